// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/v2m3u/internal/config"
	"github.com/ManuGH/v2m3u/internal/validate"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigDumpCommand(ctx))
	return configCmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			_, _, err := ctx.load()
			if err == nil {
				fmt.Fprintln(out, "configuration valid")
				return nil
			}

			var verr validate.ValidationError
			if errors.As(err, &verr) {
				rows := make([][]string, 0, len(verr.Errors()))
				for _, e := range verr.Errors() {
					rows = append(rows, []string{e.Field, e.Message, fmt.Sprint(e.Value)})
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Problem", "Value"}, rows, nil))
				return fmt.Errorf("configuration invalid: %d problem(s)", len(rows))
			}
			return err
		},
	}
}

func newConfigDumpCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as YAML with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := ctx.load()
			if err != nil {
				return err
			}
			data, err := config.Dump(cfg)
			if err != nil {
				return fmt.Errorf("render config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
