package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/adfharrison1/lookupdb/pkg/config"
)

const defaultConfigFile = "lookupdb.yaml"

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the lookupdb config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file holding the defaults",
	Long: `Writes the default configuration as YAML to path, or to the --config
location, or to ` + defaultConfigFile + `. --uri, --database and --schema are
applied on top of the defaults. An existing file is kept unless --force is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := defaultConfigFile
	switch {
	case len(args) == 1:
		path = args[0]
	case configPath != "":
		path = configPath
	}

	if !configForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
	}

	cfg := config.DefaultConfig()
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
