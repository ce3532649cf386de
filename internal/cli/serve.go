package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/depscout/depscout/pkg/errors"
	"github.com/depscout/depscout/pkg/pipeline"
	"github.com/depscout/depscout/pkg/registry/pypi"
	"github.com/depscout/depscout/pkg/source"
)

// maxScanBody bounds the request body for a scan: manifests are source
// text, not archives.
const maxScanBody = 4 << 20

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	flags := &scanFlags{}
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scanner as an HTTP API",
		Long: `Serve exposes the scanner over HTTP:

  POST /v1/scans   scan manifests supplied in the request body
  GET  /healthz    liveness probe

The scan endpoint accepts {"manifests": [{"label": ..., "text": ...}]} and
responds with the same report the CLI produces with --output json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr, flags)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to TOML config file")
	cmd.Flags().StringVar(&flags.registryURL, "registry", "", "registry base URL (default public PyPI)")
	cmd.Flags().StringVar(&flags.cacheBackend, "cache", "", "lookup cache backend (file, memory, redis, mongo, none)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "registry lookup workers")

	return cmd
}

func runServe(cmd *cobra.Command, addr string, flags *scanFlags) error {
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
		pypi.WithRetries(cfg.Lookup.Retries))

	runner, err := pipeline.NewRunner(client, pipeline.Options{
		Concurrency:        cfg.Lookup.Concurrency,
		DynamicAttribution: cfg.Scan.DynamicAttribution,
		ExtraDeny:          cfg.Scan.Deny,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", handleHealth)
	r.Post("/v1/scans", handleScan(runner))

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// scanRequest is the POST /v1/scans body.
type scanRequest struct {
	Manifests []struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	} `json:"manifests"`
}

func handleScan(runner *pipeline.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		body := http.MaxBytesReader(w, r.Body, maxScanBody)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			writeAPIError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeInvalidInput, err, "cannot decode request body"))
			return
		}
		if len(req.Manifests) == 0 {
			writeAPIError(w, http.StatusBadRequest, errors.New(errors.ErrCodeInvalidInput, "at least one manifest is required"))
			return
		}

		manifests := make([]source.Manifest, 0, len(req.Manifests))
		for _, m := range req.Manifests {
			if err := errors.ValidateManifestLabel(m.Label); err != nil {
				writeAPIError(w, http.StatusBadRequest, err)
				return
			}
			manifests = append(manifests, source.Manifest{Label: m.Label, Text: m.Text})
		}

		report, err := runner.Scan(r.Context(), manifests)
		if err != nil {
			writeAPIError(w, http.StatusInternalServerError, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			loggerFromContext(r.Context()).Error("encoding response", "err", err)
		}
	}
}

// apiError is the JSON error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeAPIError(w http.ResponseWriter, status int, err error) {
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: errors.UserMessage(err)})
}
