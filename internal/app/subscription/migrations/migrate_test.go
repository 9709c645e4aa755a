package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseDDLStatements(t *testing.T) {
	sql := `-- leading comment
CREATE TABLE IF NOT EXISTS holidays (
  id STRING(36) NOT NULL, -- primary key
  date DATE NOT NULL,
) PRIMARY KEY (id);

CREATE INDEX IF NOT EXISTS holidays_by_date ON holidays(date);
CREATE TABLE trailing (id STRING(36)) PRIMARY KEY (id)`

	got := ParseDDLStatements(sql)

	require.Len(t, got, 3)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS holidays ( id STRING(36) NOT NULL, date DATE NOT NULL, ) PRIMARY KEY (id)", got[0])
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS holidays_by_date ON holidays(date)", got[1])
	assert.Equal(t, "CREATE TABLE trailing (id STRING(36)) PRIMARY KEY (id)", got[2])
}

func TestParseDDLStatements_Empty(t *testing.T) {
	assert.Empty(t, ParseDDLStatements("-- nothing here\n\n"))
}

func TestLoadStatements_OrdersFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002_second.sql"), []byte("CREATE INDEX b ON t(b);"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_first.sql"), []byte("CREATE TABLE t (a INT64) PRIMARY KEY (a);"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("CREATE TABLE ignored;"), 0o600))

	got, err := LoadStatements(dir, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE t (a INT64) PRIMARY KEY (a)", "CREATE INDEX b ON t(b)"}, got)
}

func TestLoadStatements_RepositorySchema(t *testing.T) {
	dir, err := FindMigrationsDir()
	require.NoError(t, err)

	got, err := LoadStatements(dir, zap.NewNop())

	require.NoError(t, err)
	joined := ""
	for _, s := range got {
		joined += s + "\n"
	}
	for _, table := range []string{"subscriptions", "meal_deliveries", "holidays", "subscription_settings"} {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

func TestClientOptions(t *testing.T) {
	assert.Nil(t, ClientOptions(""))
	assert.Len(t, ClientOptions("http://localhost:9010"), 1)
}

func TestTargetNames(t *testing.T) {
	target := Target{ProjectID: "p", InstanceID: "i", DatabaseID: "d"}
	assert.Equal(t, "projects/p/instances/i", target.instanceName())
	assert.Equal(t, "projects/p/instances/i/databases/d", target.databasePath())
}
