package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabpractice/internal/database"
	"vocabpractice/internal/repository"
	"vocabpractice/internal/service"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedDatabase(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Initialize(path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.RunMigrations(ctx, "")
	require.NoError(t, err)

	teacher, err := repository.NewTeacherRepository(db).CreateTeacher(ctx, "t@example.com", "hash", "Ms Teacher")
	require.NoError(t, err)
	_, _, err = repository.NewWordSetRepository(db).CreateWithWords(ctx, teacher.ID, "Feelings", []string{"happy", "brave"})
	require.NoError(t, err)
}

func TestExportThenImport(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	dir := t.TempDir()
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("LOG_MODE", "production")
	t.Setenv("DB_PATH", filepath.Join(dir, "src.db"))
	seedDatabase(t, filepath.Join(dir, "src.db"))

	backupPath := filepath.Join(dir, "out", "backup.json")
	_, err := execute(t, "", "export", "--output", backupPath)
	require.NoError(t, err)

	raw, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	var data service.BackupData
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, "1.0", data.Version)
	assert.Len(t, data.Teachers, 1)
	assert.Len(t, data.Words, 2)

	t.Setenv("DB_PATH", filepath.Join(dir, "dst.db"))
	_, err = execute(t, "", "import", "--input", backupPath)
	require.NoError(t, err)

	db, err := database.Initialize(filepath.Join(dir, "dst.db"))
	require.NoError(t, err)
	defer db.Close()
	teacher, err := repository.NewTeacherRepository(db).GetTeacherByEmail(context.Background(), "t@example.com")
	require.NoError(t, err)
	require.NotNil(t, teacher)
	assert.Equal(t, "Ms Teacher", teacher.FullName)
}

func TestImportClearNeedsConfirmation(t *testing.T) {
	out, err := execute(t, "no\n", "import", "--input", "does-not-exist.json", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Import cancelled")
}

func TestImportRequiresInput(t *testing.T) {
	_, err := execute(t, "", "import")
	assert.ErrorContains(t, err, `required flag(s) "input" not set`)
}
