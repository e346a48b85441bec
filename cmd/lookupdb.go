package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/config"
	"github.com/adfharrison1/lookupdb/pkg/schema"
)

var (
	configPath string
	verbose    bool
	mongoURI   string
	database   string
	schemaFile string
)

var rootCmd = &cobra.Command{
	Use:   "lookupdb",
	Short: "Schema initializer for the lookup store",
	Long: `lookupdb prepares a document database for the lookup store: it creates
the lookup collection, a wildcard index over every identifier and a unique
index on archivalId. Every step is create-if-absent, so it is safe to re-run.

Examples:
  lookupdb init                                   # Apply to mongodb://localhost:27017/benchmark
  lookupdb init --uri mongodb://db:27017 --dry-run
  lookupdb indexes lookup                         # Show what is there
  lookupdb serve --data-dir /var/lib/lookupdb      # Embedded store with admin API`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&mongoURI, "uri", "", "MongoDB connection string (env LOOKUP_MONGO_URI)")
	rootCmd.PersistentFlags().StringVar(&database, "database", "", "Database name (env LOOKUP_MONGO_DATABASE, default \""+config.DefaultDatabase+"\")")
	rootCmd.PersistentFlags().StringVar(&schemaFile, "schema", "", "YAML schema definition replacing the built-in lookup schema")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(indexesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// loadConfig layers defaults, the config file, the environment and finally
// explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("uri") {
		cfg.Mongo.URI = mongoURI
	}
	if flags.Changed("database") {
		cfg.Mongo.Database = database
	}
	if flags.Changed("schema") {
		cfg.SchemaFile = schemaFile
	}
}

func loadDefinition(cfg *config.Config) (schema.Definition, error) {
	if cfg.SchemaFile == "" {
		return schema.Lookup(), nil
	}
	return schema.LoadFile(cfg.SchemaFile)
}
