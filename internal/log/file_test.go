// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyFile_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 9, 21, 23, 59, 0, 0, time.UTC)
	df := &dailyFile{dir: dir, prefix: "ecosystem.log", now: func() time.Time { return now }}
	defer df.Close()

	_, err := df.Write([]byte("first\n"))
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = df.Write([]byte("second\n"))
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "ecosystem.log.2024-09-21"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "ecosystem.log.2024-09-22"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(second))
}

func TestFileSink_FiltersBelowMinimumLevel(t *testing.T) {
	dir := t.TempDir()
	sink, err := newFileSink(FileConfig{Dir: dir, Prefix: "test.log"}, zerolog.WarnLevel)
	require.NoError(t, err)

	l := zerolog.New(sink)
	l.Info().Msg("skipped")
	l.Warn().Msg("kept")
	require.NoError(t, sink.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "test.log.*"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")
	assert.NotContains(t, string(data), "skipped")
}
