package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-kardex/pkg/rut"
)

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <rut>",
		Short: "Fetch a patient and its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireLookup(); err != nil {
				return err
			}
			if err := rut.Validate(args[0]); err != nil {
				return err
			}
			found, err := env.client.FichaPaciente(cmd.Context(), rut.Format(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), found)
		},
	}
}

func rutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rut <value>",
		Short: "Format and check a RUT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatted := rut.Format(args[0])
			if err := rut.Validate(args[0]); err != nil {
				return fmt.Errorf("%s: %w", formatted, err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), formatted)
			return err
		},
	}
}
