package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/labelscore-mcp/internal/config"
	"github.com/ironsheep/labelscore-mcp/internal/logger"
)

// rowErrors reports that a dataset command skipped rows.
type rowErrors struct {
	count int
}

func (e *rowErrors) Error() string {
	return fmt.Sprintf("%d row(s) could not be parsed", e.count)
}

func exitCode(err error) int {
	var rows *rowErrors
	if errors.As(err, &rows) {
		return ExitRows
	}
	return ExitError
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
	logFile    string
	modelKind  string
	modelPath  string
	scalerPath string
	likeW      float64
	dislikeW   float64
}

func (g *globalFlags) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&g.configPath, "config", "", "TOML config file (default "+config.DefaultPath()+")")
	f.StringVar(&g.envFile, "env-file", "", "dotenv file to load (default .env when present)")
	f.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&g.logFile, "log-file", "", "write logs to this file instead of stderr")
	f.StringVar(&g.modelKind, "model-kind", "", "model format: xgboost, mlp, linear, onnx")
	f.StringVar(&g.modelPath, "model", "", "path to the scoring model")
	f.StringVar(&g.scalerPath, "scaler", "", "path to the feature scaler (mlp, scaled onnx)")
	f.Float64Var(&g.likeW, "like-weight", 0, "label formula weight for liked matches")
	f.Float64Var(&g.dislikeW, "dislike-weight", 0, "label formula weight for disliked matches")
}

// load builds the effective configuration: file, dotenv and environment
// first, then any flag the user actually set.
func (g *globalFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigPath: g.configPath, EnvFile: g.envFile})
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = g.logFile
	}
	if flags.Changed("model-kind") {
		cfg.Model.Kind = g.modelKind
	}
	if flags.Changed("model") {
		cfg.Model.Path = g.modelPath
	}
	if flags.Changed("scaler") {
		cfg.Model.ScalerPath = g.scalerPath
	}
	if flags.Changed("like-weight") {
		cfg.Weights.Like = g.likeW
	}
	if flags.Changed("dislike-weight") {
		cfg.Weights.Dislike = g.dislikeW
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup loads configuration and installs the logger.
func (g *globalFlags) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := g.load(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	lg, closeLog, err := logger.Init(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, lg, func() { _ = closeLog() }, nil
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "labelscore-mcp",
		Short: "MCP server that scores food labels against dietary preferences",
		Long: `labelscore-mcp reads the ingredient list from a food label photo, matches it
against a user's likes, dislikes and allergens, and predicts a 0-100
suitability score with a pre-trained model.

Run without a subcommand to start the MCP server on stdin/stdout.

Configuration is read from the TOML file, a .env file, LABELSCORE_*
environment variables and flags, in increasing precedence.`,
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g)
		},
	}
	cmd.SetVersionTemplate(versionText())
	g.register(cmd)

	cmd.AddCommand(newServeCommand(g))
	cmd.AddCommand(newRelabelCommand(g))
	cmd.AddCommand(newEvaluateCommand(g))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func versionText() string {
	return fmt.Sprintf("labelscore-mcp %s\n  Build time: %s\n  Git commit: %s\n", Version, BuildTime, GitCommit)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), versionText())
		},
	}
}

func execute() error {
	return newRootCommand().Execute()
}

func since(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
