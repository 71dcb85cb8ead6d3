package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/jsondocs/internal/config"
	"github.com/roach88/jsondocs/internal/datasource"
	"github.com/roach88/jsondocs/internal/docstore"
)

// session is an open store plus everything needed to release it.
type session struct {
	store  *docstore.Store
	reg    *datasource.Registry
	logger *slog.Logger
}

func (s *session) Close() {
	s.store.Shutdown()
	if err := s.reg.Close(); err != nil {
		s.logger.Error("error closing data sources", "error", err)
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath == "" {
		return config.Default(), nil
	}
	return config.Load(opts.ConfigPath)
}

func newLogger(cfg config.Log, verbose bool, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openSession loads configuration and opens the selected repository,
// creating its table if needed. Failures are reported through f.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command, f *OutputFormatter) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, "failed to load config", err)
	}

	logWriter := opts.LogWriter
	if logWriter == nil {
		logWriter = cmd.ErrOrStderr()
	}
	logger := newLogger(cfg.Log, opts.Verbose, logWriter)

	repo, err := cfg.Repository(opts.Repository)
	if err != nil {
		return nil, f.Fail(ExitCommandError, "failed to select repository", err)
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, f.Fail(ExitCommandError, "failed to register data sources", err)
	}

	logger.Debug("opening repository", "repository", repo.Name, "driver", repo.Driver)
	st, err := docstore.Open(ctx, reg, docstore.Options{
		Repository:  repo.Name,
		BatchSize:   repo.BatchSize,
		Logger:      logger,
		IDGenerator: opts.IDGenerator,
	})
	if err != nil {
		_ = reg.Close()
		return nil, f.Fail(ExitFailure, fmt.Sprintf("failed to open repository %s", repo.Name), err)
	}

	return &session{store: st, reg: reg, logger: logger}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
