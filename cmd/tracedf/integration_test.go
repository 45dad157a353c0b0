package main

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"tracedf/internal/storage"
)

type testMySQLContainer struct {
	container *mysql.MySQLContainer
	dsn       string
	db        *sql.DB
}

func setupMySQL(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err, "failed to open direct DB connection")
	require.NoError(t, db.PingContext(ctx), "failed to ping database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close DB connection: %v", err)
		}
	})

	return &testMySQLContainer{container: mysqlContainer, dsn: dsn, db: db}
}

func TestLoadMySQLDataframeIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)
	ctx := context.Background()

	_, err := tc.db.ExecContext(ctx, `CREATE TABLE spans (
		id BIGINT NOT NULL,
		dur BIGINT NOT NULL,
		name VARCHAR(255) NULL
	)`)
	require.NoError(t, err)

	_, err = tc.db.ExecContext(ctx,
		"INSERT INTO spans (id, dur, name) VALUES (1, 100, 'sched_switch'), (2, 200, NULL)")
	require.NoError(t, err)

	df, err := loadMySQLDataframe(ctx, tc.db, "spans")
	require.NoError(t, err)
	assert.Equal(t, 2, df.RowCount())

	cols := df.Columns()
	require.Len(t, cols, 3)

	nameIdx, ok := df.ColumnIndex("name")
	require.True(t, ok)
	assert.Equal(t, storage.KindString, cols[nameIdx].Spec.Kind)
	assert.True(t, cols[nameIdx].Spec.Nullable)

	durIdx, ok := df.ColumnIndex("dur")
	require.True(t, ok)
	assert.Equal(t, storage.KindUint32, cols[durIdx].Spec.Kind)
}

func TestRunLoadPrintsColumnSummaryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)
	ctx := context.Background()

	_, err := tc.db.ExecContext(ctx, "CREATE TABLE spans (id BIGINT NOT NULL, dur BIGINT NOT NULL)")
	require.NoError(t, err)
	_, err = tc.db.ExecContext(ctx, "INSERT INTO spans (id, dur) VALUES (1, 100)")
	require.NoError(t, err)

	err = runLoad(&loadFlags{dsn: tc.dsn, table: "spans"})
	require.NoError(t, err)
}
