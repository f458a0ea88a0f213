// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_InvalidDSN(t *testing.T) {
	_, err := Open(context.Background(), "postgres://%zz", DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse dsn")
}

func TestOpen_Live(t *testing.T) {
	dsn := os.Getenv("ECO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ECO_TEST_POSTGRES_DSN not set")
	}
	pool, err := Open(context.Background(), dsn, DefaultConfig())
	require.NoError(t, err)
	defer pool.Close()

	var one int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}
