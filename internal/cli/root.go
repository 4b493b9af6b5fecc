// Package cli implements the checkup command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lzoffoli-tg/checkupy/internal/config"
	"github.com/lzoffoli-tg/checkupy/internal/logging"
	"github.com/lzoffoli-tg/checkupy/onnx"
	"github.com/lzoffoli-tg/checkupy/predictor"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "v0.1.0-dev"

// app holds state shared by subcommands of one invocation.
type app struct {
	cfgFile string
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "checkup",
		Short:         "Run label-aware predictions with ONNX models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML)")

	root.AddCommand(
		a.predictCommand(),
		a.demoCommand(),
		infoCommand(),
		opsCommand(),
		versionCommand(),
	)
	return root
}

// session is the predictor and logger built from the config file.
type session struct {
	cfg       *config.Config
	logger    *zap.Logger
	predictor *predictor.Predictor
	cleanup   func()
}

func (s *session) Close() {
	if err := s.predictor.Close(); err != nil {
		s.logger.Warn("close session", zap.Error(err))
	}
	s.cleanup()
}

// open loads the config, builds the logger and opens the configured model.
func (a *app) open() (*session, error) {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, cleanup, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	p, err := predictor.New(cfg.Model.Path, cfg.Model.Inputs, cfg.Model.Outputs, predictor.Options{
		Opener: opener(cfg, logger),
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	logger.Info("model opened",
		zap.String("path", cfg.Model.Path),
		zap.String("engine", cfg.Model.Engine),
		zap.Stringer("inputs", p.InputLabels()),
		zap.Stringer("outputs", p.OutputLabels()))

	return &session{cfg: cfg, logger: logger, predictor: p, cleanup: cleanup}, nil
}

func opener(cfg *config.Config, logger *zap.Logger) predictor.Opener {
	if cfg.Model.Engine == config.EngineOnnxRuntime {
		return predictor.RuntimeOpener(cfg.Model.Library)
	}
	opts := onnx.DefaultLoadOptions()
	opts.StrictMode = cfg.Model.Strict
	opts.Logger = logger
	return predictor.NativeOpener(opts)
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "checkup %s (onnxruntime: %t)\n", Version, predictor.RuntimeSupported)
			return err
		},
	}
}
