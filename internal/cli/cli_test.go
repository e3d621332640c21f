package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillerstead/admin/internal/calculator"
	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/project"
)

type result struct {
	stdout string
	stderr string
}

// setup points the command at a fresh data directory with a fixed admin password
func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("ADMIN_PASSWORD", "cli-admin-password")
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TOOLKIT_API_URL", "")
	t.Setenv("ADMIN_CONFIG_FILE", "")
	t.Setenv("NODE_ENV", "test")
	return t.TempDir()
}

func run(t *testing.T, dir, stdin string, args ...string) (result, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--data-dir", dir}, args...))
	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String()}, err
}

func mustRun(t *testing.T, dir, stdin string, args ...string) string {
	t.Helper()
	res, err := run(t, dir, stdin, args...)
	require.NoError(t, err, res.stderr)
	return res.stdout
}

func decodeOut[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestInvalidFormat(t *testing.T) {
	dir := setup(t)
	_, err := run(t, dir, "", "--format", "yaml", "calc", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestCalcList(t *testing.T) {
	dir := setup(t)
	out := mustRun(t, dir, "", "calc", "list")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "calc_list", []byte(out))
}

func TestCalcList_JSON(t *testing.T) {
	dir := setup(t)
	infos := decodeOut[[]calculator.Info](t, mustRun(t, dir, "", "--format", "json", "calc", "list"))

	assert.Len(t, infos, 24)
	assert.Equal(t, "bath-layout", infos[0].ID)
}

func TestCalcRun(t *testing.T) {
	dir := setup(t)
	input := `{"area":120,"tileSize":"12x12","layout":"straight","tilesPerBox":10}`

	out := decodeOut[calculator.Outcome](t, mustRun(t, dir, "", "calc", "run", "tile", "--input", input))
	assert.Equal(t, calculator.SourceLocal, out.Source)
	result, ok := out.Result.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 132, result["tilesNeeded"])
	assert.EqualValues(t, 14, result["boxes"])

	// stdin when --input is absent
	out = decodeOut[calculator.Outcome](t, mustRun(t, dir, input, "calc", "run", "tile"))
	assert.Equal(t, "tile", out.Calculator)

	_, err := run(t, dir, "", "calc", "run", "tile", "--input", "{nope")
	assert.ErrorIs(t, err, calculator.ErrInvalidInput)

	_, err = run(t, dir, "", "calc", "run", "grout-o-matic", "--input", "{}")
	assert.ErrorIs(t, err, calculator.ErrUnknownCalculator)
}

func TestUserLifecycle(t *testing.T) {
	dir := setup(t)

	out := mustRun(t, dir, "dana-password-1\n",
		"user", "create", "dana", "--email", "dana@example.com", "--role", "editor", "--password-stdin")
	assert.Equal(t, "Created user dana (editor)\n", out)

	_, err := run(t, dir, "dana-password-1\n",
		"user", "create", "erin", "--email", "erin@example.com", "--role", "superuser", "--password-stdin")
	assert.ErrorContains(t, err, `unknown role "superuser"`)

	users := decodeOut[[]models.PublicUser](t, mustRun(t, dir, "", "--format", "json", "user", "list"))
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.ElementsMatch(t, []string{"admin", "dana"}, names)

	u := decodeOut[models.PublicUser](t, mustRun(t, dir, "", "--format", "json", "user", "disable", "dana"))
	assert.False(t, u.IsActive)
	u = decodeOut[models.PublicUser](t, mustRun(t, dir, "", "--format", "json", "user", "enable", "dana"))
	assert.True(t, u.IsActive)

	out = mustRun(t, dir, "dana-password-2\n", "user", "passwd", "dana", "--password-stdin")
	assert.Equal(t, "Password updated for dana\n", out)

	_, err = run(t, dir, "short\n", "user", "passwd", "dana", "--password-stdin")
	assert.Error(t, err)

	table := mustRun(t, dir, "", "user", "list")
	assert.Contains(t, table, "USERNAME")
	assert.Contains(t, table, "dana@example.com")

	mustRun(t, dir, "", "user", "delete", "dana")
	_, err = run(t, dir, "", "user", "delete", "dana")
	assert.Error(t, err)
}

func TestUserCreate_PromptsForPassword(t *testing.T) {
	dir := setup(t)
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte("prompted-pass"), nil }
	t.Cleanup(func() { readPassword = orig })

	res, err := run(t, dir, "", "user", "create", "fay", "--email", "fay@example.com")
	require.NoError(t, err)
	assert.Contains(t, res.stderr, "Password: ")
	assert.Equal(t, "Created user fay (viewer)\n", res.stdout)

	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	_, err = run(t, dir, "", "user", "create", "gus", "--email", "gus@example.com")
	assert.ErrorContains(t, err, "read password")
}

func TestAPIKeyLifecycle(t *testing.T) {
	dir := setup(t)

	created := decodeOut[createdKey](t, mustRun(t, dir, "",
		"--format", "json", "apikey", "create", "ci", "--perm", "calculator:read", "--perm", "content:read"))
	assert.True(t, strings.HasPrefix(created.Key, "ts_"))
	assert.Equal(t, []string{"calculator:read", "content:read"}, created.Permissions)

	keys := decodeOut[[]models.APIKey](t, mustRun(t, dir, "", "--format", "json", "apikey", "list"))
	require.Len(t, keys, 1)
	assert.True(t, strings.HasSuffix(keys[0].Hash, "..."))
	assert.Equal(t, "ci", keys[0].Name)

	assert.Equal(t, "API key revoked\n", mustRun(t, dir, "", "apikey", "revoke", keys[0].Hash))

	_, err := run(t, dir, "", "apikey", "revoke", keys[0].Hash)
	assert.Error(t, err)

	keys = decodeOut[[]models.APIKey](t, mustRun(t, dir, "", "--format", "json", "apikey", "list"))
	assert.Empty(t, keys)
}

func TestAudit(t *testing.T) {
	dir := setup(t)
	mustRun(t, dir, "hal-password\n", "user", "create", "hal", "--email", "hal@example.com", "--password-stdin")

	entries := decodeOut[[]models.AuditEntry](t, mustRun(t, dir, "", "--format", "json", "audit", "--limit", "10"))
	require.NotEmpty(t, entries)
	assert.Equal(t, "user_created", entries[0].Event)
	assert.Equal(t, "cli", entries[0].IP)
	assert.Equal(t, "hal", entries[0].Details["username"])

	entries = decodeOut[[]models.AuditEntry](t, mustRun(t, dir, "", "--format", "json", "audit", "--filter", "login"))
	assert.Empty(t, entries)

	_, err := run(t, dir, "", "audit", "--filter", "everything")
	assert.ErrorContains(t, err, "invalid filter")
}

const backup = `{
  "projects": [
    {
      "id": "proj_cli",
      "name": "Hall bath",
      "createdAt": "2026-03-01T12:00:00Z",
      "updatedAt": "2026-03-02T12:00:00Z",
      "totalArea": 120,
      "calculations": {
        "tile": {
          "inputs": {"area": 120, "tileSize": "12x12", "layout": "straight", "tilesPerBox": 10},
          "results": {"tilesNeeded": 132, "boxes": 14},
          "savedAt": "2026-03-02T12:00:00Z"
        }
      }
    }
  ],
  "settings": {"autoSave": true, "notifications": false, "darkMode": true, "units": "metric"}
}`

func TestProjectImportExport(t *testing.T) {
	dir := setup(t)
	file := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(file, []byte(backup), 0o600))

	assert.Equal(t, "Imported 1 projects\n", mustRun(t, dir, "", "project", "import", file))

	table := mustRun(t, dir, "", "project", "list")
	assert.Contains(t, table, "proj_cli")
	assert.Contains(t, table, "Hall bath")

	csv := mustRun(t, dir, "", "project", "shopping", "proj_cli", "--csv")
	assert.Equal(t, "Item,Quantity,Unit,Source\nTile,14,boxes,tile\n", csv)

	list := decodeOut[project.ShoppingList](t, mustRun(t, dir, "", "--format", "json", "project", "shopping", "proj_cli"))
	require.Len(t, list.Items, 1)
	assert.Equal(t, 14, list.Totals["boxes"])

	text := mustRun(t, dir, "", "project", "text", "proj_cli")
	assert.True(t, strings.HasPrefix(text, "PROJECT: Hall bath\n"))

	out := filepath.Join(t.TempDir(), "out.json")
	res, err := run(t, dir, "", "project", "export", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, res.stderr, "Wrote ")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := decodeOut[project.Export](t, string(raw))
	require.Len(t, doc.Projects, 1)
	assert.Equal(t, "metric", doc.Settings.Units)

	_, err = run(t, dir, "", "project", "text", "proj_missing")
	assert.ErrorIs(t, err, project.ErrNotFound)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"nope":true}`), 0o600))
	_, err = run(t, dir, "", "project", "import", bad)
	assert.ErrorIs(t, err, project.ErrInvalidImport)
}
