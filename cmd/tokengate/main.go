package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/everstacklabs/tokengate/internal/config"
	"github.com/everstacklabs/tokengate/internal/content"
	"github.com/everstacklabs/tokengate/internal/httpclient"
	"github.com/everstacklabs/tokengate/internal/limit"
	"github.com/everstacklabs/tokengate/internal/pricing"
	"github.com/everstacklabs/tokengate/internal/registry"
	"github.com/everstacklabs/tokengate/internal/report"
	"github.com/everstacklabs/tokengate/internal/runner"
	"github.com/everstacklabs/tokengate/internal/tokenizer"

	anthropicCounter "github.com/everstacklabs/tokengate/internal/tokenizer/anthropic" // registers Anthropic counter
	_ "github.com/everstacklabs/tokengate/internal/tokenizer/openai"                   // register BPE counter
)

// Exit codes. Limit failures and configuration errors are distinguishable
// so CI can tell a blown budget from a broken setup.
const (
	exitFailed = 1
	exitConfig = 2
)

var cfgFile string

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "tokengate",
		Short: "Token budget gate for LLM context files",
		Long: "Counts the tokens (and cost) a set of files would consume for a model\n" +
			"and fails CI when a configured budget is exceeded.",
		RunE:          runChecks,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tokengate.{yaml,json,toml})")
	rootCmd.Flags().Bool("json", false, "Emit results as JSON")
	rootCmd.Flags().StringSlice("path", nil, "Run a single ad-hoc check against these glob patterns")
	rootCmd.Flags().String("limit", "", "Limit for the ad-hoc check (e.g. 100k, $0.50)")
	rootCmd.Flags().String("model", "", "Model for the ad-hoc check")
	rootCmd.Flags().Bool("show-cost", false, "Include cost in the ad-hoc check output")

	rootCmd.AddCommand(modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitConfig)
	}
}

func runChecks(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	reg, err := registry.Load()
	if err != nil {
		return fmt.Errorf("loading model registry: %w", err)
	}

	checks, err := buildChecks(cmd, cfg, reg)
	if err != nil {
		return err
	}

	configureCounters(cfg)

	r := runner.New(
		content.NewProvider(cfg.Root, cfg.MaxFileSize),
		tokenizer.NewDispatcher(reg),
		loadPricing(cmd.Context(), cfg),
		limit.NewParser(reg),
	)

	summary, err := r.Run(cmd.Context(), checks)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		if err := report.JSON(os.Stdout, summary); err != nil {
			return err
		}
	} else {
		report.Human(os.Stdout, summary)
	}

	if summary.Failed {
		os.Exit(exitFailed)
	}
	return nil
}

// buildChecks assembles runner checks either from --path flags (one ad-hoc
// check) or from the validated config file.
func buildChecks(cmd *cobra.Command, cfg *config.Config, reg *registry.Registry) ([]runner.Check, error) {
	paths, _ := cmd.Flags().GetStringSlice("path")
	if len(paths) > 0 {
		model, _ := cmd.Flags().GetString("model")
		if model == "" {
			model = cfg.Model
		}
		showCost, _ := cmd.Flags().GetBool("show-cost")

		check := runner.Check{
			Name:     strings.Join(paths, ", "),
			Paths:    paths,
			Model:    model,
			ShowCost: showCost,
		}
		if limitFlag, _ := cmd.Flags().GetString("limit"); limitFlag != "" {
			expr := limit.String(limitFlag)
			check.Limit = &expr
		}
		return []runner.Check{check}, nil
	}

	result := config.Validate(cfg, reg)
	if len(result.Issues) > 0 {
		fmt.Fprint(os.Stderr, config.FormatResult(result))
	}
	if result.HasErrors() {
		return nil, errors.New("configuration invalid")
	}

	checks := make([]runner.Check, 0, len(cfg.Checks))
	for i, cc := range cfg.Checks {
		patterns, err := cc.Paths()
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", cc.DisplayName(i), err)
		}

		model := cc.Model
		if model == "" {
			model = cfg.Model
		}

		check := runner.Check{
			Name:          cc.Name,
			Paths:         patterns,
			Model:         model,
			WarnThreshold: cc.WarnThreshold,
			ShowCost:      cc.ShowCost,
		}
		if cc.Limit != nil {
			expr, err := limit.FromAny(cc.Limit)
			if err != nil {
				return nil, fmt.Errorf("check %q: %w", cc.DisplayName(i), err)
			}
			check.Limit = &expr
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// configureCounters upgrades registered counters with credentials, the
// same pass-after-load shape used for provider adapters.
func configureCounters(cfg *config.Config) {
	if c, ok := tokenizer.Get("anthropic"); ok {
		if ac, ok := c.(*anthropicCounter.Anthropic); ok {
			apiKey := cfg.Anthropic.APIKey
			if apiKey == "" {
				apiKey = os.Getenv("ANTHROPIC_API_KEY")
			}
			ac.Configure(apiKey, cfg.Anthropic.BaseURL,
				cfg.Anthropic.RequestsPerMinute, cfg.Anthropic.RequestTimeout)
		}
	}
}

// loadPricing prefers the remote feed when configured and falls back to
// the embedded snapshot.
func loadPricing(ctx context.Context, cfg *config.Config) *pricing.Table {
	if cfg.Pricing.FeedURL != "" {
		client := httpclient.New(
			httpclient.WithRateLimit(2),
			httpclient.WithTimeout(30*time.Second),
		)
		t, err := pricing.Fetch(ctx, client, cfg.Pricing.FeedURL)
		if err == nil {
			return t
		}
		slog.Warn("pricing feed fetch failed, using embedded snapshot",
			"url", cfg.Pricing.FeedURL, "error", err)
	}
	t, err := pricing.Load()
	if err != nil {
		slog.Warn("embedded pricing snapshot unavailable, costs will be zero", "error", err)
		return pricing.New(nil)
	}
	return t
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known models with context windows and pricing",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load()
			if err != nil {
				return err
			}

			fmt.Printf("%-28s %-10s %12s %12s %12s\n",
				"MODEL", "PROVIDER", "CONTEXT", "IN $/1K", "OUT $/1K")
			for _, m := range reg.All() {
				name := m.Name
				if m.Deprecated {
					name += " (deprecated)"
				}
				in, out := "-", "-"
				if m.CostPer1K != nil {
					in = fmt.Sprintf("%.5f", m.CostPer1K.InputPer1K)
					out = fmt.Sprintf("%.5f", m.CostPer1K.OutputPer1K)
				}
				fmt.Printf("%-28s %-10s %12d %12s %12s\n",
					name, m.Provider, m.ContextWindow, in, out)
			}
			return nil
		},
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
