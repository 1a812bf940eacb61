package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/moviedex/internal/paths"
)

type initResult struct {
	ConfigFile  string `json:"configFile"`
	DataDir     string `json:"dataDir"`
	WroteConfig bool   `json:"wroteConfig"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize moviedex storage",
		Long:  "Create the configuration and data directories, write a default config.yaml if none exists, then create the catalog schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr("resolve config directory: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysErr("create config directory: %w", err)
	}

	s, err := a.load()
	if err != nil {
		return err
	}

	configPath := paths.ConfigFile(configDir)
	wrote, err := writeConfigIfMissing(configPath, s.DataDir)
	if err != nil {
		return sysErr("%w", err)
	}

	backend, err := attach(s)
	if err != nil {
		return err
	}
	if err := backend.Detach(); err != nil {
		return sysErr("finalize storage: %w", err)
	}

	res := initResult{ConfigFile: configPath, DataDir: s.DataDir, WroteConfig: wrote}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), res)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Moviedex initialized successfully")
	fmt.Fprintf(out, "config: %s\n", res.ConfigFile)
	fmt.Fprintf(out, "data:   %s\n", res.DataDir)
	return nil
}
