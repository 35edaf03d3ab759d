package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/hsncheck/internal/config"
	"github.com/JonMunkholm/hsncheck/internal/core"
	"github.com/JonMunkholm/hsncheck/internal/ingest"
	"github.com/JonMunkholm/hsncheck/internal/logging"
	"github.com/JonMunkholm/hsncheck/internal/metrics"
	"github.com/JonMunkholm/hsncheck/internal/reload"
	"github.com/JonMunkholm/hsncheck/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	policy, err := core.ParseLengthPolicy(cfg.Validation.LengthPolicy)
	if err != nil {
		slog.Error("invalid length policy", "error", err)
		os.Exit(1)
	}

	src, err := referenceSource(cfg)
	if err != nil {
		slog.Error("invalid reference source", "location", config.MaskLocation(cfg.Reference.Location), "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := ingest.CloseSource(src); err != nil {
			slog.Warn("closing reference source", "error", err)
		}
	}()

	service := core.NewService(referenceLoader(src, cfg.Reference.MappingFile), core.ServiceConfig{
		LengthPolicy:      policy,
		Concurrency:       cfg.Validation.Concurrency,
		MaxBulkCodes:      cfg.Validation.BulkMaxCodes,
		MaxConcurrentBulk: cfg.Validation.BulkMaxConcurrent,
		BulkMaxWait:       cfg.Validation.BulkMaxWait,
	})
	service.SetObserver(metrics.ServiceObserver{})

	// A failed initial load is not fatal: the server answers 503 (REF001)
	// until the scheduler, the watcher or a manual reload succeeds.
	if err := service.Reload(context.Background()); err != nil {
		slog.Error("initial reference load failed; serving without reference data", "error", err)
	}

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	go service.StartRefreshScheduler(jobCtx, core.RefreshConfig{
		Interval: cfg.Reference.RefreshInterval,
	})

	if cfg.Reference.Watch {
		if w := startWatcher(jobCtx, service, src, cfg.Reference.MappingFile); w != nil {
			defer w.Stop()
		}
	}

	// Graceful shutdown. Start returns as soon as Shutdown begins, so main
	// waits on done for the drain to finish.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if st := service.BulkStatus(); st.Active > 0 {
			slog.Info("waiting for bulk validations to complete", "active", st.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// referenceSource builds the ingest source named by REFERENCE_LOCATION.
func referenceSource(cfg *config.Config) (ingest.Source, error) {
	format, err := ingest.ParseFormat(cfg.Reference.Format)
	if err != nil {
		return nil, err
	}

	sheet := cfg.Reference.Sheet
	if sheet == "" && cfg.Reference.MappingFile != "" {
		if ov, err := ingest.LoadMappingOverride(cfg.Reference.MappingFile); err == nil {
			sheet = ov.Sheet
		}
	}

	return ingest.ParseLocation(cfg.Reference.Location, ingest.SourceConfig{
		Parse:    ingest.ParseOptions{Format: format, Sheet: sheet},
		MaxBytes: ingest.DefaultMaxBytes,
		HTTP: ingest.HTTPOptions{
			Timeout: cfg.Reference.HTTPTimeout,
			Retries: cfg.Reference.HTTPRetries,
		},
		S3: ingest.S3Options{
			Region:          cfg.Reference.S3Region,
			Endpoint:        cfg.Reference.S3Endpoint,
			AccessKeyID:     cfg.Reference.S3AccessKeyID,
			SecretAccessKey: cfg.Reference.S3SecretAccessKey,
			UsePathStyle:    cfg.Reference.S3UsePathStyle,
		},
		SQL: ingest.SQLOptions{
			Table:      cfg.Reference.SQLTable,
			CodeColumn: cfg.Reference.SQLCodeColumn,
			DescColumn: cfg.Reference.SQLDescColumn,
		},
	})
}

// referenceLoader re-reads the mapping file on every load so edits to it
// take effect on the next reload.
func referenceLoader(src ingest.Source, mappingFile string) core.Loader {
	return func(ctx context.Context) (*core.ReferenceTable, error) {
		var opts ingest.Options
		if mappingFile != "" {
			ov, err := ingest.LoadMappingOverride(mappingFile)
			if err != nil {
				return nil, err
			}
			opts.Override = ov
		}
		table, _, err := ingest.Load(ctx, src, opts)
		return table, err
	}
}

// startWatcher reloads when the local reference file or the mapping file
// changes. Remote sources rely on the refresh scheduler instead.
func startWatcher(ctx context.Context, service *core.Service, src ingest.Source, mappingFile string) *reload.Watcher {
	var files []string
	if fs, ok := src.(*ingest.FileSource); ok {
		files = append(files, fs.Path)
	}
	if mappingFile != "" {
		files = append(files, mappingFile)
	}
	if len(files) == 0 {
		slog.Warn("REFERENCE_WATCH set but there is no local file to watch", "source", src.String())
		return nil
	}

	w, err := reload.NewWatcher(files, service.Reload, reload.DefaultDebounce)
	if err != nil {
		slog.Error("failed to create file watcher", "error", err)
		return nil
	}
	if err := w.Start(ctx); err != nil {
		slog.Error("failed to start file watcher", "error", err)
		return nil
	}
	slog.Info("watching reference files", "files", files)
	return w
}
