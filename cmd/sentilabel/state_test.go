package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useDirs points the storage settings at a temp dir.
func useDirs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("SENTI_DOCUMENTS_DIR", filepath.Join(root, "documents"))
	t.Setenv("SENTI_RESULTS_DIR", filepath.Join(root, "results"))
	t.Setenv("SENTI_PROGRESS_FILE", filepath.Join(root, ".progress", "current_session.json"))
	t.Setenv("SENTI_COMPLETED_FILE", filepath.Join(root, ".completed_files.txt"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return root
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { filesJSON = false })

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestFilesCommand(t *testing.T) {
	root := useDirs(t)
	docs := filepath.Join(root, "documents")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "a.csv"), []byte("user,text\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "b.csv"), []byte("user,text\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".completed_files.txt"), []byte("b.csv\n"), 0o644))

	out := execute(t, "files")
	assert.Regexp(t, `a\.csv\s+pending`, out)
	assert.Regexp(t, `b\.csv\s+completed`, out)

	out = execute(t, "files", "--json")
	assert.JSONEq(t, `[{"name":"a.csv","completed":false},{"name":"b.csv","completed":true}]`, out)
}

func TestProgressCommands(t *testing.T) {
	root := useDirs(t)

	assert.Contains(t, execute(t, "progress", "show"), "No saved progress.")

	progress := filepath.Join(root, ".progress", "current_session.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(progress), 0o755))
	require.NoError(t, os.WriteFile(progress, []byte(`{
		"username": "alice",
		"selected_file": "reviews.csv",
		"current_index": 1,
		"user_labels": ["positive", null],
		"total_records": 2,
		"timestamp": "2024-03-01T10:30:00"
	}`), 0o644))

	assert.Contains(t, execute(t, "progress", "show"), "alice is labeling reviews.csv: 1/2 records (50.0%)")

	assert.Contains(t, execute(t, "progress", "clear"), "Saved progress deleted.")
	assert.NoFileExists(t, progress)
}

func TestCompletedReset(t *testing.T) {
	root := useDirs(t)
	completed := filepath.Join(root, ".completed_files.txt")
	require.NoError(t, os.WriteFile(completed, []byte("a.csv\nb.csv\n"), 0o644))

	assert.Contains(t, execute(t, "completed", "reset"), "Reset 2 completed file(s).")
	assert.NoFileExists(t, completed)
}
