// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/ecosystem/internal/hashing"
)

func newHashCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the BLAKE3 digest of every stdin line",
		Long: `Reads lines from stdin and prints "<digest>  <line>" for each one.
Lines are hashed concurrently, so output follows completion order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool := hashing.NewPool(hashing.Options{Workers: workers})
			defer pool.Close()

			in := make(chan string)
			out := make(chan hashing.Result)
			g, ctx := errgroup.WithContext(cmd.Context())

			g.Go(func() error {
				defer close(in)
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					select {
					case in <- sc.Text():
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				return sc.Err()
			})
			g.Go(func() error {
				defer close(out)
				return pool.Run(ctx, in, out)
			})
			g.Go(func() error {
				digest := color.New(color.FgCyan)
				w := cmd.OutOrStdout()
				for r := range out {
					fmt.Fprintf(w, "%s  %s\n", digest.Sprint(r.Digest), r.Input)
				}
				return nil
			})
			if err := g.Wait(); err != nil {
				return fmt.Errorf("hash: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "worker goroutines (default: number of CPUs)")
	return cmd
}
