package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-kardex/pkg/binding"
	"github.com/goliatone/go-kardex/pkg/orchestrator"
	"github.com/goliatone/go-kardex/pkg/renderers/tui"
)

func renderCmd() *cobra.Command {
	var (
		renderer string
		output   string
		rutValue string
		values   []string
		validate bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the patient form",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			overlay, err := parseValues(values)
			if err != nil {
				return err
			}

			result, err := env.newOrchestrator().Generate(cmd.Context(), orchestrator.Request{
				Rut:      rutValue,
				Values:   overlay,
				Validate: validate,
				Renderer: renderer,
			})
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(result.Output)
				return err
			}
			if err := os.WriteFile(output, result.Output, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			env.logger.Info().Str("renderer", result.Renderer).Str("output", output).Msg("form rendered")
			return nil
		},
	}
	cmd.Flags().StringVarP(&renderer, "renderer", "r", "", "renderer name (vanilla, json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	cmd.Flags().StringVar(&rutValue, "rut", "", "bind the patient with this RUT first")
	cmd.Flags().StringArrayVar(&values, "value", nil, "field value as id=value, repeatable")
	cmd.Flags().BoolVar(&validate, "validate", false, "run the submission checks")
	return cmd
}

func fillCmd() *cobra.Command {
	var (
		format   string
		rutValue string
	)
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill the patient form interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			ctrl := env.newOrchestrator().NewController()

			if rutValue != "" {
				if err := env.requireLookup(); err != nil {
					return err
				}
				if _, err := binding.NewPaciente(env.client, ctrl, binding.WithLogger(env.logger)).Load(cmd.Context(), rutValue); err != nil {
					return err
				}
			}

			session, err := tui.New(ctrl,
				tui.WithPromptDriver(tui.NewSurveyDriver(cmd.ErrOrStderr())),
				tui.WithOutputFormat(tui.OutputFormat(format)),
			)
			if err != nil {
				return err
			}
			body, err := session.Run(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(tui.OutputFormatJSON), "output format (json, form)")
	cmd.Flags().StringVar(&rutValue, "rut", "", "bind the patient with this RUT first")
	return cmd
}

// parseValues turns id=value pairs into form values. A bare id checks a box.
func parseValues(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid --value %q", pair)
		}
		if !found {
			out[key] = true
			continue
		}
		out[key] = value
	}
	return out, nil
}
