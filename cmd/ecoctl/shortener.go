// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/ecosystem/internal/shortener"
)

func newShortenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shorten <url>",
		Short: "Create a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts.serverOr(defaultShortenerURL), opts.timeout)
			var resp shortener.ShortenResponse
			if err := c.call(http.MethodPost, "/", shortener.ShortenRequest{URL: args[0]}, http.StatusCreated, &resp); err != nil {
				return fmt.Errorf("shorten: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.URL)
			return nil
		},
	}
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id|short-url>",
		Short: "Print the URL behind a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if i := strings.LastIndex(id, "/"); i >= 0 {
				id = id[i+1:]
			}
			if !shortener.ValidID(id) {
				return fmt.Errorf("resolve: %q is not a short id", id)
			}

			c := newClient(opts.serverOr(defaultShortenerURL), opts.timeout)
			resp, err := c.do(http.MethodGet, "/"+id, nil)
			if err != nil {
				return fmt.Errorf("resolve: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusPermanentRedirect {
				return fmt.Errorf("resolve: %w", statusError(resp))
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Header.Get("Location"))
			return nil
		},
	}
}
