package sqlitestorage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/geotime/internal/config"
	"github.com/OCAP2/geotime/internal/database"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnDisk_RunReturnsImmediately(t *testing.T) {
	dir := t.TempDir()
	b, err := New(config.SQLiteConfig{Path: filepath.Join(dir, "g.db"), DumpInterval: time.Millisecond, DumpPath: filepath.Join(dir, "dump.db")}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.False(t, b.InMemory())
	assert.NoError(t, b.Run(context.Background()))
}

func TestInMemory_DumpOnCloseIsReadable(t *testing.T) {
	ctx := context.Background()
	dump := filepath.Join(t.TempDir(), "plans", "geotime.db")

	b, err := New(config.SQLiteConfig{DumpInterval: time.Hour, DumpPath: dump}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	assert.True(t, b.InMemory())

	doc := core.Document{
		Items:  []core.MapItem{{ID: "a", Kind: core.KindMarker, Name: "Drone 1", Position: core.GeoPoint{Lat: 1, Lng: 2}, Visible: true}},
		Scenes: []core.Scene{},
	}
	_, err = b.SaveDocument(ctx, "op", doc)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = os.Stat(dump)
	require.NoError(t, err)

	snapshot, err := New(config.SQLiteConfig{Path: dump}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, snapshot.Init())
	defer snapshot.Close()

	got, err := snapshot.LoadDocument(ctx, "op")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestRun_StopsOnCancel(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "tick.db")
	b, err := New(config.SQLiteConfig{DumpInterval: 10 * time.Millisecond, DumpPath: dump}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(dump)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDump_NoPath(t *testing.T) {
	b, err := New(config.SQLiteConfig{}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.ErrorIs(t, b.Dump(), database.ErrNoDumpPath)
}
