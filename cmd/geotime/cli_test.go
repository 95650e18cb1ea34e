package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/OCAP2/geotime/internal/ai"
	"github.com/OCAP2/geotime/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig points storage and logs into a temp dir and returns it.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := map[string]any{
		"logsDir": filepath.Join(dir, "logs"),
		"storage": map[string]any{
			"type":   "memory",
			"memory": map[string]any{"outputDir": filepath.Join(dir, "plans")},
		},
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geotime.cfg.json"), data, 0644))

	for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "VITE_API_KEY", "API_KEY"} {
		t.Setenv(k, "")
	}
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config-dir", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestClockCmd(t *testing.T) {
	dir := writeConfig(t)
	out, err := run(t, dir, "clock", "0", "25", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "06:00")
	assert.Contains(t, out, "00:00")

	_, err = run(t, dir, "clock", "noon")
	assert.Error(t, err)
}

func TestRenderCmd_Demo(t *testing.T) {
	dir := writeConfig(t)
	out, err := run(t, dir, "render", "--demo", "-t", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "T=50")
	assert.Contains(t, out, "clock 12:00")
}

func TestRenderCmd_File(t *testing.T) {
	dir := writeConfig(t)
	doc := core.Document{Items: []core.MapItem{{
		ID:       "a",
		Kind:     core.KindMarker,
		Name:     "Overwatch",
		Position: core.GeoPoint{Lat: -22.95, Lng: -43.2},
		Visible:  true,
	}}}
	path := filepath.Join(dir, "plan.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, core.WriteDocument(f, doc, false))
	require.NoError(t, f.Close())

	out, err := run(t, dir, "render", "--file", path, "-t", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Overwatch")
	assert.Contains(t, out, "items 1")

	_, err = run(t, dir, "render", "--file", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestReportCmd_NoCredentials(t *testing.T) {
	dir := writeConfig(t)
	out, err := run(t, dir, "report", "--demo")
	assert.ErrorIs(t, err, ai.ErrMissingCredentials)
	assert.Contains(t, out, "GEMINI_API_KEY")
}

func TestTemplatesCmd(t *testing.T) {
	dir := writeConfig(t)
	out, err := run(t, dir, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "SWAT")
	assert.Contains(t, out, "built-in")

	out, err = run(t, dir, "templates", "--show", "DEFAULT")
	require.NoError(t, err)
	assert.Contains(t, out, "Operation Commander")

	_, err = run(t, dir, "templates", "--show", "NOPE")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, AppName+" version "+CurrentVersion)
}

func TestTemplatesCmd_DeleteSaved(t *testing.T) {
	dir := writeConfig(t)
	tree := map[string]any{"MINE": map[string]any{"id": "root", "role": "Lead", "name": "Me", "subordinates": []any{}}}
	data, err := json.Marshal(tree)
	require.NoError(t, err)
	plans := filepath.Join(dir, "plans")
	require.NoError(t, os.MkdirAll(plans, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(plans, "templates.json"), data, 0644))

	out, err := run(t, dir, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "MINE")

	out, err = run(t, dir, "templates", "--delete", "MINE")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted template MINE")

	out, err = run(t, dir, "templates")
	require.NoError(t, err)
	assert.NotContains(t, out, "MINE")

	_, err = run(t, dir, "templates", "--delete", "SWAT")
	assert.Error(t, err)
}
