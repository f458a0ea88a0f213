// SPDX-License-Identifier: MIT

// Command ecoctl talks to a running ecosystem daemon and offers local
// sealing and hashing helpers.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ManuGH/ecosystem/internal/version"
)

const (
	defaultShortenerURL = "http://127.0.0.1:9876"
	defaultUserAPIURL   = "http://127.0.0.1:8082"
)

type rootOptions struct {
	server  string
	key     string
	timeout time.Duration
}

// serverOr returns --server when set, else fallback.
func (o *rootOptions) serverOr(fallback string) string {
	if o.server != "" {
		return o.server
	}
	return fallback
}

func addGlobalFlags(fs *pflag.FlagSet, o *rootOptions) {
	fs.StringVarP(&o.server, "server", "s", "", "base URL of the target service (defaults per command)")
	fs.StringVarP(&o.key, "key", "k", os.Getenv("ECO_SEAL_KEY"), "seal key, 64 hex chars (env ECO_SEAL_KEY)")
	fs.DurationVar(&o.timeout, "timeout", 10*time.Second, "request timeout")
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ecoctl",
		Short:         "Client for the ecosystem daemon",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addGlobalFlags(root.PersistentFlags(), opts)

	root.AddCommand(
		newShortenCmd(opts),
		newResolveCmd(opts),
		newUserCmd(opts),
		newSealCmd(opts),
		newUnsealCmd(opts),
		newHashCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ %v", err))
		os.Exit(1)
	}
}
