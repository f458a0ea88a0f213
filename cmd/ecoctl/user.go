// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ManuGH/ecosystem/internal/user"
)

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Read or update the user record",
	}
	cmd.AddCommand(newUserGetCmd(opts), newUserPatchCmd(opts))
	return cmd
}

func newUserGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the user record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient(opts.serverOr(defaultUserAPIURL), opts.timeout)
			var u user.User
			if err := c.call(http.MethodGet, "/", nil, http.StatusOK, &u); err != nil {
				return fmt.Errorf("user get: %w", err)
			}
			return printJSON(cmd, u)
		},
	}
}

func newUserPatchCmd(opts *rootOptions) *cobra.Command {
	var (
		age    uint8
		skills []string
	)
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Update age and/or skills",
		Long: `Updates only the fields whose flags are given.

Examples:
  ecoctl user patch --age 21
  ecoctl user patch --skill go --skill sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var up user.Update
			if cmd.Flags().Changed("age") {
				up.Age = &age
			}
			if cmd.Flags().Changed("skill") {
				up.Skills = &skills
			}
			if up.Age == nil && up.Skills == nil {
				return errors.New("user patch: nothing to update, pass --age or --skill")
			}

			c := newClient(opts.serverOr(defaultUserAPIURL), opts.timeout)
			var u user.User
			if err := c.call(http.MethodPatch, "/", up, http.StatusOK, &u); err != nil {
				return fmt.Errorf("user patch: %w", err)
			}
			return printJSON(cmd, u)
		},
	}
	cmd.Flags().Uint8Var(&age, "age", 0, "new age")
	cmd.Flags().StringArrayVar(&skills, "skill", nil, "skill to set (repeatable, replaces the list)")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
