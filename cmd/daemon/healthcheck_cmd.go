// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/ManuGH/ecosystem/internal/health"
)

// healthcheckCLI queries the ops listener of a running daemon. In ready mode
// it names the components that made the daemon unready.
func healthcheckCLI(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	mode := fs.String("mode", "ready", "ready or live")
	addr := fs.String("addr", "127.0.0.1:9090", "ops listener address")
	timeout := fs.Duration("timeout", 5*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var path string
	switch *mode {
	case "ready":
		path = "/readyz"
	case "live":
		path = "/healthz"
	default:
		fmt.Fprintf(stderr, "healthcheck: unknown mode %q\n", *mode)
		return 2
	}

	client := http.Client{Timeout: *timeout}
	resp, err := client.Get("http://" + *addr + path)
	if err != nil {
		fmt.Fprintf(stderr, "healthcheck: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		fmt.Fprintf(stdout, "%s: ok\n", *mode)
		return 0
	}

	fmt.Fprintf(stderr, "%s: %s\n", *mode, resp.Status)
	var body health.ReadinessResponse
	if json.NewDecoder(resp.Body).Decode(&body) == nil {
		for _, name := range failing(body.Checks) {
			c := body.Checks[name]
			fmt.Fprintf(stderr, "  %s: %s %s\n", name, c.Status, c.Error)
		}
	}
	return 1
}

func failing(checks map[string]health.CheckResult) []string {
	var names []string
	for name, c := range checks {
		if c.Status == health.StatusUnhealthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
