package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adfharrison1/lookupdb/pkg/config"
	"github.com/adfharrison1/lookupdb/pkg/mongostore"
	"github.com/adfharrison1/lookupdb/pkg/schema"
)

var initDryRun bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the lookup collection and its indexes if absent",
	Long: `Connects to MongoDB and ensures the schema exists. Existing collections
and indexes with matching definitions are left alone; an index whose name is
taken by a different definition is reported as a conflict and never replaced.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var indexesCmd = &cobra.Command{
	Use:   "indexes [collection]",
	Short: "List the secondary indexes of a collection",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndexes,
}

func init() {
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "Print the steps that would run without changing anything")
}

func connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*mongostore.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.GetTimeout())
	defer cancel()
	return mongostore.Connect(ctx, mongostore.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		AppName:        cfg.Mongo.AppName,
		ConnectTimeout: cfg.GetTimeout(),
	}, mongostore.WithLogger(logger.Named("mongo")))
}

func runInit(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	def, err := loadDefinition(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("connection failed", zap.String("database", cfg.Mongo.Database), zap.Error(err))
		return err
	}
	defer store.Close(context.Background())

	initializer := schema.NewInitializer(store, schema.WithDefinition(def), schema.WithLogger(logger.Named("schema")))
	out := cmd.OutOrStdout()

	if initDryRun {
		steps, err := initializer.Plan(ctx)
		if err != nil {
			return err
		}
		if len(steps) == 0 {
			fmt.Fprintf(out, "%s is up to date\n", cfg.Mongo.Database)
			return nil
		}
		for _, step := range steps {
			fmt.Fprintln(out, step)
		}
		return nil
	}

	if err := initializer.Initialize(ctx); err != nil {
		logger.Error("schema initialization failed", zap.Error(err))
		return err
	}
	fmt.Fprintf(out, "schema applied to %s\n", cfg.Mongo.Database)
	return nil
}

func runIndexes(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	collection := schema.LookupCollection
	if len(args) == 1 {
		collection = args[0]
	}

	store, err := connect(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	specs, err := store.ListIndexes(cmd.Context(), collection)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, spec := range specs {
		fmt.Fprintln(out, spec.String())
	}
	if len(specs) == 0 {
		fmt.Fprintf(out, "no secondary indexes on %s.%s\n", cfg.Mongo.Database, collection)
	}
	return nil
}
