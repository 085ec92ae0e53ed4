package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/labelscore-mcp/internal/config"
	"github.com/ironsheep/labelscore-mcp/internal/label"
	"github.com/ironsheep/labelscore-mcp/internal/ocr"
	"github.com/ironsheep/labelscore-mcp/internal/preferences"
	"github.com/ironsheep/labelscore-mcp/internal/scoring"
	"github.com/ironsheep/labelscore-mcp/internal/server"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout (default)",
		Long: `Run the MCP server on stdin/stdout.

The server speaks JSON-RPC 2.0, one request per line. Logs go to stderr
because stdout carries the protocol. Configure it in your MCP client
(e.g., Claude Desktop).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g)
		},
	}
}

func runServe(cmd *cobra.Command, g *globalFlags) error {
	cfg, lg, closeLog, err := g.setup(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	lg.Info("starting labelscore-mcp", "version", Version, "built", BuildTime, "commit", GitCommit)

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	predictor, err := loadPredictor(cfg, lg)
	if err != nil {
		return err
	}

	tess := ocr.NewTesseract(cfg.OCR.Language)
	info := tess.Info()
	var reader *label.Reader
	if info.Available {
		reader = label.NewReader(ocr.WithTimeout(tess, cfg.OCR.Timeout), cfg.PreprocessOptions(), lg)
	} else {
		lg.Warn("OCR unavailable, label reading disabled", "error", info.Error)
	}

	srv := server.New(server.Options{
		Predictor:   predictor,
		Store:       store,
		Reader:      reader,
		OCRInfo:     tess.Info,
		Weights:     cfg.Weights,
		Concurrency: cfg.Batch.Concurrency,
		Logger:      lg,
		Version:     Version,
	})
	defer func() {
		if err := srv.Close(); err != nil {
			lg.Warn("failed to release model", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	lg.Info("server stopped")
	return nil
}

func newStore(cfg *config.Config) (preferences.Store, error) {
	if cfg.Preferences.Backend == config.BackendMemory {
		return preferences.NewMemoryStore(), nil
	}
	fs, err := preferences.NewFileStore(cfg.Preferences.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}
	return fs, nil
}

// loadPredictor loads the configured model. Without a model path the server
// still runs; the scoring tools then report that no model is loaded.
func loadPredictor(cfg *config.Config, lg *slog.Logger) (*scoring.Predictor, error) {
	if !cfg.HasModel() {
		lg.Warn("no model configured, scoring tools disabled")
		return nil, nil
	}
	spec, err := cfg.ModelSpec()
	if err != nil {
		return nil, err
	}
	p, err := scoring.Load(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	info := p.Info()
	lg.Info("model loaded", "kind", info.Kind, "scaled", info.Scaled, "path", spec.Path)
	return p, nil
}
