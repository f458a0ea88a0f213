// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/ecosystem/internal/seal"
)

func sealerFrom(opts *rootOptions) (*seal.Sealer, error) {
	if opts.key == "" {
		return nil, errors.New("--key or ECO_SEAL_KEY is required")
	}
	raw, err := seal.ParseKey(opts.key)
	if err != nil {
		return nil, err
	}
	return seal.New(raw)
}

func newSealCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seal <text>",
		Short: "Encrypt text with the seal key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sealerFrom(opts)
			if err != nil {
				return fmt.Errorf("seal: %w", err)
			}
			token, err := s.SealString(args[0])
			if err != nil {
				return fmt.Errorf("seal: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newUnsealCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unseal <token>",
		Short: "Decrypt a sealed token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sealerFrom(opts)
			if err != nil {
				return fmt.Errorf("unseal: %w", err)
			}
			plain, err := s.OpenString(args[0])
			if err != nil {
				return fmt.Errorf("unseal: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), plain)
			return nil
		},
	}
}
