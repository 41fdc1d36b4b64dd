package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zonroxx/FitQuest-AI/internal/catalog"
	"github.com/zonroxx/FitQuest-AI/internal/envstruct"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/logging"
	"github.com/zonroxx/FitQuest-AI/internal/planview"
	"github.com/zonroxx/FitQuest-AI/internal/workout"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
	// batchConcurrency bounds the number of plans generated at the same time.
	batchConcurrency = 4
)

const rootLong = `plangen builds weekly workout plans from YAML or JSON profile files.

Set HUGGINGFACE_API_TOKEN to let a language model draft the plan. Without it, or when every model fails,
the plan is built from training rules.`

// config holds the settings read from the environment. The variables are shared with cmd/web.
type config struct {
	HuggingFaceToken string        `env:"HUGGINGFACE_API_TOKEN" envDefault:""`
	LLMBaseURL       string        `env:"FITQUEST_LLM_BASE_URL" envDefault:"https://router.huggingface.co/v1"`
	LLMModels        []string      `env:"FITQUEST_LLM_MODELS"   envDefault:""`
	LLMTimeout       time.Duration `env:"FITQUEST_LLM_TIMEOUT"  envDefault:"60s"`
	CatalogPath      string        `env:"FITQUEST_CATALOG_PATH" envDefault:""`
}

// rootOptions are the persistent flags shared by all subcommands.
type rootOptions struct {
	logLevel  string
	rulesOnly bool
	lookupEnv func(string) (string, bool)
}

// batchResult is one line of batch output.
type batchResult struct {
	Profile        string                 `json:"profile"`
	Source         workout.Source         `json:"source"`
	FallbackReason workout.FallbackReason `json:"fallback_reason,omitempty"`
	Plan           workout.Plan           `json:"plan"`
}

func newRootCmd(lookupEnv func(string) (string, bool)) *cobra.Command {
	opts := &rootOptions{logLevel: "info", rulesOnly: false, lookupEnv: lookupEnv}

	cmd := &cobra.Command{
		Use:           "plangen",
		Short:         "Generate weekly workout plans",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.rulesOnly, "rules-only", false, "Skip the language model and use the rules")

	cmd.AddCommand(newGenerateCmd(opts), newBatchCmd(opts), newCatalogCmd(opts))
	return cmd
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		profilePath string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a plan for one profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatJSON && format != formatMarkdown {
				return errors.New("unknown format", slog.String("format", format))
			}
			profile, err := loadProfile(profilePath)
			if err != nil {
				return err
			}
			g, err := opts.generator(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			plan := g.Generate(cmd.Context(), profile)
			if format == formatMarkdown {
				_, err = io.WriteString(cmd.OutOrStdout(), planview.Markdown(plan))
				return errors.Wrap(err, "write markdown")
			}
			return writeJSON(cmd.OutOrStdout(), plan, true)
		},
	}
	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "Profile file (YAML or JSON)")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format (json, markdown)")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "batch PROFILE...",
		Short: "Generate plans for several profiles concurrently and print one JSON line per profile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := make([]workout.Profile, len(args))
			for i, path := range args {
				p, err := loadProfile(path)
				if err != nil {
					return err
				}
				profiles[i] = p
			}
			g, err := opts.generator(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			results := make([]batchResult, len(args))
			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.SetLimit(batchConcurrency)
			for i := range args {
				eg.Go(func() error {
					plan := g.Generate(ctx, profiles[i])
					results[i] = batchResult{
						Profile:        args[i],
						Source:         plan.Source,
						FallbackReason: plan.FallbackReason,
						Plan:           plan,
					}
					return nil
				})
			}
			if err = eg.Wait(); err != nil {
				return errors.Wrap(err, "generate plans")
			}
			for _, r := range results {
				if err = writeJSON(cmd.OutOrStdout(), r, false); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the exercise catalog grouped by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cfg.CatalogPath)
			if err != nil {
				return err
			}
			var sb strings.Builder
			for _, c := range catalog.Categories() {
				fmt.Fprintf(&sb, "%s\n", strings.ToUpper(string(c)))
				for _, e := range cat.Entries(c) {
					fmt.Fprintf(&sb, "  %-28s %s\n", e.Name, e.Equipment)
				}
			}
			_, err = io.WriteString(cmd.OutOrStdout(), sb.String())
			return errors.Wrap(err, "write catalog")
		},
	}
}

func (o *rootOptions) config() (config, error) {
	var cfg config
	if err := envstruct.Populate(&cfg, o.lookupEnv); err != nil {
		return config{}, errors.Wrap(err, "populate config")
	}
	return cfg, nil
}

// generator wires a Generator from the environment. Logs go to logSink so that stdout only carries plans.
func (o *rootOptions) generator(logSink io.Writer) (*workout.Generator, error) {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}
	logger := logging.NewLogger(logSink, level)

	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	var requester workout.Requester
	if cfg.HuggingFaceToken != "" && !o.rulesOnly {
		requester = workout.NewModelRequester(workout.ModelConfig{
			APIKey:     cfg.HuggingFaceToken,
			BaseURL:    cfg.LLMBaseURL,
			Models:     cfg.LLMModels,
			Timeout:    cfg.LLMTimeout,
			HTTPClient: nil,
		}, logger, nil)
	}
	return workout.NewGenerator(cat, requester, logger), nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog", slog.String("path", path))
	}
	return cat, nil
}

// loadProfile reads a profile file. JSON is a subset of YAML, so both formats go through the YAML decoder.
func loadProfile(path string) (workout.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return workout.Profile{}, errors.Wrap(err, "read profile", slog.String("path", path))
	}
	var profile workout.Profile
	if err = yaml.Unmarshal(data, &profile); err != nil {
		return workout.Profile{}, errors.Wrap(err, "parse profile", slog.String("path", path))
	}
	if err = profile.Validate(); err != nil {
		return workout.Profile{}, errors.Wrap(err, "validate profile", slog.String("path", path))
	}
	return profile, nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode json")
	}
	return nil
}
