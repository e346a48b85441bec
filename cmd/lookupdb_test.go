package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/lookupdb/pkg/config"
	"github.com/adfharrison1/lookupdb/pkg/domain"
	"github.com/adfharrison1/lookupdb/pkg/schema"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LOOKUP_MONGO_URI", "LOOKUP_MONGO_DATABASE", "LOOKUP_SCHEMA_FILE", "LOOKUP_PORT", "LOOKUP_DATA_DIR"} {
		t.Setenv(key, "")
	}
}

// resetFlags undoes flag parsing between tests; cobra commands are globals.
func resetFlags(t *testing.T) {
	t.Cleanup(func() {
		for _, name := range []string{"config", "uri", "database", "schema"} {
			f := rootCmd.PersistentFlags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	resetFlags(t)
	t.Setenv("LOOKUP_MONGO_DATABASE", "from_env")

	require.NoError(t, indexesCmd.ParseFlags([]string{"--uri", "mongodb://db.internal:27017", "--database", "archive"}))
	cfg, err := loadConfig(indexesCmd)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Mongo.URI)
	assert.Equal(t, "archive", cfg.Mongo.Database)

	def, err := loadDefinition(cfg)
	require.NoError(t, err)
	assert.Equal(t, schema.Lookup(), def)
}

func TestLoadDefinition_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collections:\n  - name: audit\n"), 0644))
	t.Setenv("LOOKUP_SCHEMA_FILE", path)

	cfg, err := loadConfig(serveCmd)
	require.NoError(t, err)
	def, err := loadDefinition(cfg)
	require.NoError(t, err)
	assert.Equal(t, "audit", def.Collections[0].Name)
}

func TestInit_UnreachableServerFails(t *testing.T) {
	clearEnv(t)
	resetFlags(t)
	configFile := filepath.Join(t.TempDir(), "lookupdb.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("mongo:\n  uri: mongodb://127.0.0.1:1/?directConnection=true\n  database: benchmark\n  timeout: 200ms\n"), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"init", "--config", configFile})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnectionFailure)
}

func TestConfigInit_WritesDefaults(t *testing.T) {
	clearEnv(t)
	resetFlags(t)
	t.Cleanup(func() { configForce = false })
	path := filepath.Join(t.TempDir(), "conf", "lookupdb.yaml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"config", "init", path, "--database", "archive"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	want := config.DefaultConfig()
	want.Mongo.Database = "archive"
	assert.Equal(t, want, cfg)

	rootCmd.SetArgs([]string{"config", "init", path})
	err = rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	rootCmd.SetArgs([]string{"config", "init", path, "--force"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, cfg)
}
