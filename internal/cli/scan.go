package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/depscout/depscout/pkg/cache"
	"github.com/depscout/depscout/pkg/config"
	"github.com/depscout/depscout/pkg/errors"
	"github.com/depscout/depscout/pkg/pipeline"
	"github.com/depscout/depscout/pkg/registry/pypi"
	"github.com/depscout/depscout/pkg/source"
)

// scanFlags holds the scan command's flag values. File config is loaded
// first; any flag the user set explicitly wins.
type scanFlags struct {
	output       string
	configPath   string
	registryURL  string
	cacheBackend string
	concurrency  int
	attribution  string
	deny         []string
	refresh      bool
	exitZero     bool
}

// newScanCmd creates the scan command.
func newScanCmd() *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Scan setup.py manifests for claimable dependency names",
		Long: `Scan statically extracts dependency declarations from setup.py files,
normalizes each entry down to its package name, and checks every distinct
name against the registry. Names that are not registered are reported as
findings; names whose lookup failed are reported as indeterminate.

Paths may be setup.py files or directories, which are walked recursively.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "output format (text, json)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to TOML config file")
	cmd.Flags().StringVar(&flags.registryURL, "registry", "", "registry base URL (default public PyPI)")
	cmd.Flags().StringVar(&flags.cacheBackend, "cache", "", "lookup cache backend (file, memory, redis, mongo, none)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "registry lookup workers")
	cmd.Flags().StringVar(&flags.attribution, "dynamic-attribution", "", "dynamic list attribution (all, first)")
	cmd.Flags().StringSliceVar(&flags.deny, "deny", nil, "additional names to exclude from lookup")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass the lookup cache")
	cmd.Flags().BoolVar(&flags.exitZero, "exit-zero", false, "exit 0 even when findings exist")

	return cmd
}

func runScan(cmd *cobra.Command, args []string, flags *scanFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	backend, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer backend.Close()

	client := pypi.NewClient(backend, cfg.Cache.TTL(),
		pypi.WithBaseURL(cfg.Registry.BaseURL),
		pypi.WithRetries(cfg.Lookup.Retries),
		pypi.WithRefresh(cfg.Lookup.Refresh))

	runner, err := pipeline.NewRunner(client, pipeline.Options{
		Concurrency:        cfg.Lookup.Concurrency,
		DynamicAttribution: cfg.Scan.DynamicAttribution,
		ExtraDeny:          cfg.Scan.Deny,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	manifests, err := source.NewLocal(args...).Manifests(ctx)
	if err != nil {
		return err
	}
	logger.Debug("loaded manifests", "count", len(manifests))

	p := newProgress(logger)
	report, err := runner.Scan(ctx, manifests)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Checked %d names", report.Stats.Candidates))

	switch flags.output {
	case "json":
		if err := writeJSONReport(os.Stdout, report); err != nil {
			return err
		}
	case "text":
		printReport(report)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid output format: %q (must be text or json)", flags.output)
	}

	if len(report.Findings) > 0 && !flags.exitZero {
		return errors.New(errors.ErrCodeNotFound, "%d claimable name(s) found", len(report.Findings))
	}
	return nil
}

// loadConfig reads the config file and layers explicit flags on top.
func loadConfig(flags *scanFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}

	if flags.registryURL != "" {
		cfg.Registry.BaseURL = flags.registryURL
	}
	if flags.cacheBackend != "" {
		cfg.Cache.Backend = flags.cacheBackend
	}
	if flags.concurrency > 0 {
		cfg.Lookup.Concurrency = flags.concurrency
	}
	if flags.refresh {
		cfg.Lookup.Refresh = true
	}
	if flags.attribution != "" {
		cfg.Scan.DynamicAttribution = flags.attribution
	}
	cfg.Scan.Deny = append(cfg.Scan.Deny, flags.deny...)

	return cfg, cfg.Validate()
}

// openCache constructs the configured lookup cache backend.
func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "file":
		return cache.NewFileCache(cfg.Dir)
	case "memory":
		return cache.NewMemoryCache(), nil
	case "redis":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return cache.NewRedisCache(dialCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "mongo":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return cache.NewMongoCache(dialCtx, cfg.MongoURI, cfg.MongoDatabase)
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Backend)
	}
}
