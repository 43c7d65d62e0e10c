package main

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-kardex/internal/config"
	"github.com/goliatone/go-kardex/internal/logging"
	"github.com/goliatone/go-kardex/pkg/lookup"
	"github.com/goliatone/go-kardex/pkg/orchestrator"
	"github.com/goliatone/go-kardex/pkg/rules"
	"github.com/goliatone/go-kardex/pkg/schema"
)

// environment is what every command builds from the configuration.
type environment struct {
	cfg    *config.Config
	logger zerolog.Logger
	engine    *rules.Engine
	catalogue *schema.Catalogue
	client    *lookup.Client
}

func loadEnv(cmd *cobra.Command) (*environment, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.IsDev())

	var engineOpts []rules.Option
	if cfg.RulesFile != "" {
		engineOpts = append(engineOpts, rules.WithTableFile(cfg.RulesFile))
	}
	engine, err := rules.New(engineOpts...)
	if err != nil {
		return nil, err
	}

	catalogue := schema.Default()
	if cfg.SchemaFile != "" {
		if catalogue, err = schema.LoadFile(cmd.Context(), cfg.SchemaFile); err != nil {
			return nil, err
		}
		if err := checkFlags(catalogue); err != nil {
			return nil, err
		}
	}

	env := &environment{cfg: cfg, logger: logger, engine: engine, catalogue: catalogue}
	if cfg.HasLookup() {
		lookupOpts := []lookup.Option{
			lookup.WithTimeout(cfg.LookupTimeout),
			lookup.WithLogger(logger),
			lookup.WithCSRFToken(cfg.CSRFToken),
		}
		if cfg.LookupRPS > 0 {
			lookupOpts = append(lookupOpts, lookup.WithRateLimit(cfg.LookupRPS, cfg.LookupBurst))
		}
		env.client, err = lookup.New(cfg.BaseURL, lookupOpts...)
		if err != nil {
			return nil, err
		}
	}
	return env, nil
}

// newOrchestrator builds the pipeline from the configured pieces. The lookup
// source is attached only when a base URL is configured.
func (e *environment) newOrchestrator() *orchestrator.Orchestrator {
	opts := []orchestrator.Option{
		orchestrator.WithEngine(e.engine),
		orchestrator.WithCatalogue(e.catalogue),
		orchestrator.WithLogger(e.logger),
	}
	if e.client != nil {
		opts = append(opts, orchestrator.WithSource(e.client))
	}
	return orchestrator.New(opts...)
}

func (e *environment) requireLookup() error {
	if e.client == nil {
		return fmt.Errorf("KARDEX_BASE_URL is required for lookups")
	}
	return nil
}

// checkFlags rejects a catalogue that lacks one of the checkboxes the rule
// table reads.
func checkFlags(cat *schema.Catalogue) error {
	declared := cat.Flags()
	for id := range (rules.FlagSet{}).Values() {
		if !slices.Contains(declared, id) {
			return fmt.Errorf("schema: %q must be declared as a flag", id)
		}
	}
	return nil
}
