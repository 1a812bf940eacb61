// Package cli implements the moviedex command-line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/moviedex/internal/catalog"
	"github.com/mesh-intelligence/moviedex/internal/logger"
	"github.com/mesh-intelligence/moviedex/internal/paths"
	"github.com/mesh-intelligence/moviedex/pkg/sqlite"
	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonMode  bool
}

// app carries state shared by the subcommands of one root command.
type app struct {
	flags rootFlags
}

// systemError marks failures of the environment rather than of the input.
type systemError struct {
	err error
}

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

func sysErr(format string, args ...any) error {
	return &systemError{err: fmt.Errorf(format, args...)}
}

// NewRootCmd creates the top-level "moviedex" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "moviedex",
		Short: "A personal catalog of movies, documentaries and kids' movies",
		Long: "Moviedex keeps a catalog of movies, documentaries and kids' movies.\n" +
			"Run \"moviedex serve\" for the HTTP API or use the subcommands directly.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newServeCmd(a),
		newAddCmd(a),
		newSearchCmd(a),
		newGetCmd(a),
		newUpdateCmd(a),
		newAddGenreCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}
	return exitCode(err)
}

// exitCode maps an error to the process exit code: storage and
// environment failures are system errors, everything else is the user's.
func exitCode(err error) int {
	var sys *systemError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &sys), errors.Is(err, types.ErrPersistence):
		return exitSysError
	default:
		return exitUserError
	}
}

// load resolves directories and reads the configuration.
func (a *app) load() (settings, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return settings{}, sysErr("resolve config directory: %w", err)
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return settings{}, sysErr("load config: %w", err)
	}
	s.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, s.DataDir)
	if err != nil {
		return settings{}, sysErr("resolve data directory: %w", err)
	}
	if a.flags.logLevel != "" {
		s.Log.Level = a.flags.logLevel
	}
	return s, nil
}

// newLogger builds the logger for a command. One-shot commands stay quiet
// below warn unless a level is given on the command line.
func (a *app) newLogger(cmd *cobra.Command, s settings, server bool) *slog.Logger {
	level := s.Log.Level
	if !server && a.flags.logLevel == "" {
		level = "warn"
	}
	return logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Format: s.Log.Format,
		Level:  logger.ParseLevel(level),
	})
}

// attach opens the configured backend.
func attach(s settings) (types.Backend, error) {
	backend := sqlite.NewBackend()
	if err := backend.Attach(s.backendConfig()); err != nil {
		return nil, sysErr("attach %s backend: %w", s.Backend, err)
	}
	return backend, nil
}

// openService attaches the backend and returns a service over it along
// with the function that detaches it.
func (a *app) openService(cmd *cobra.Command) (*catalog.Service, func(), error) {
	s, err := a.load()
	if err != nil {
		return nil, nil, err
	}
	backend, err := attach(s)
	if err != nil {
		return nil, nil, err
	}
	svc := catalog.New(backend, catalog.WithLogger(a.newLogger(cmd, s, false)))
	return svc, func() { backend.Detach() }, nil
}

// parseID parses a positional item ID.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, types.NewValidationError("invalid id", "id")
	}
	return id, nil
}
