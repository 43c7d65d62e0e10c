package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-kardex/pkg/renderers/tui"
	"github.com/goliatone/go-kardex/pkg/rules"
)

func rulesCmd() *cobra.Command {
	var (
		flags       rules.FlagSet
		interactive bool
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the field states for a flag combination",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if interactive {
				ctrl := env.newOrchestrator().NewController()
				session, err := tui.New(ctrl, tui.WithPromptDriver(tui.NewSurveyDriver(cmd.ErrOrStderr())))
				if err != nil {
					return err
				}
				if flags, err = session.PromptFlags(cmd.Context()); err != nil {
					return err
				}
			}

			states := env.engine.Compute(flags)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					Flags  rules.FlagSet `json:"flags"`
					Rows   []string      `json:"rows"`
					States rules.States  `json:"states"`
				}{flags, env.engine.Explain(flags), states})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "flags: %s\n", flags)
			for _, row := range env.engine.Explain(flags) {
				fmt.Fprintf(out, "row:   %s\n", row)
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FIELD\tENABLED\tREQUIRED")
			for _, id := range env.engine.Fields() {
				s := states.State(id)
				fmt.Fprintf(w, "%s\t%t\t%t\n", id, s.Enabled, s.Required)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&flags.RecienNacido, "recien-nacido", false, "newborn without own RUT")
	cmd.Flags().BoolVar(&flags.Extranjero, "extranjero", false, "foreign patient")
	cmd.Flags().BoolVar(&flags.Fallecido, "fallecido", false, "deceased patient")
	cmd.Flags().BoolVar(&flags.SinTelefono, "sin-telefono", false, "patient without phone")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "ask for the flags")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func tableCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "table",
		Short: "List every resolved row of the decision table",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			combos := env.engine.Combinations()
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), combos)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GROUP\tROW\tDISABLED\tREQUIRED")
			for _, c := range combos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Group, c.Row, joinIDs(c.Disabled), joinIDs(c.Required))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func joinIDs(ids []rules.FieldID) string {
	if len(ids) == 0 {
		return "-"
	}
	out := string(ids[0])
	for _, id := range ids[1:] {
		out += "," + string(id)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
