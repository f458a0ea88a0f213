// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/ecosystem/internal/config"
	"github.com/ManuGH/ecosystem/internal/version"
)

func runConfigCLI(args []string) int {
	return configCLI(args, os.Stdout, os.Stderr)
}

func configCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "init":
		return runConfigInit(args[1:], stdout, stderr)
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  daemon config init [--file|-f config.yaml] [--force]")
	fmt.Fprintln(w, "  daemon config validate [--file|-f config.yaml]")
	fmt.Fprintln(w, "  daemon config dump [--file|-f config.yaml]")
}

func resolveDefaultConfigPath() string {
	dataDir := strings.TrimSpace(os.Getenv("ECO_DATA"))
	if dataDir == "" {
		return ""
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

func fileFlag(fs *flag.FlagSet) *string {
	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	return &file
}

func runConfigInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("daemon config init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fileFlag(fs)
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := strings.TrimSpace(*file)
	if path == "" {
		path = "config.yaml"
	}
	if err := config.WriteFile(path, config.Default(), *force); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote default configuration to %s\n", path)
	return 0
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("daemon config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fileFlag(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := strings.TrimSpace(*file)
	if path == "" {
		path = resolveDefaultConfigPath()
	}
	if path == "" {
		fmt.Fprintln(stderr, "Error: --file is required (no default config.yaml found in $ECO_DATA)")
		return 2
	}

	if _, err := config.NewLoader(path, version.Version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", path, err)
		return 1
	}
	fmt.Fprintf(stdout, "✓ %s is valid\n", path)
	return 0
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("daemon config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fileFlag(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := strings.TrimSpace(*file)
	if path == "" {
		path = resolveDefaultConfigPath()
	}
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	redactSecrets(&cfg)

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
		return 1
	}
	_ = enc.Close()
	return 0
}

func redactSecrets(cfg *config.AppConfig) {
	if cfg.Seal.Key != "" {
		cfg.Seal.Key = "***"
	}
	if cfg.Shortener.Cache.RedisPassword != "" {
		cfg.Shortener.Cache.RedisPassword = "***"
	}
	if cfg.Shortener.Store.DSN != "" {
		cfg.Shortener.Store.DSN = maskURL(cfg.Shortener.Store.DSN)
	}
}
