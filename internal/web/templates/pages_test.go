package templates

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/sentilabel/internal/core"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func TestIndex_CheckResume(t *testing.T) {
	out := render(t, Index(View{
		Stage: core.StageCheckResume,
		Snapshot: &core.ProgressSnapshot{
			Username:     "bob",
			SelectedFile: "tweets.csv",
			CurrentIndex: 1,
			TotalRecords: 4,
			Timestamp:    core.Timestamp{Time: time.Date(2024, time.May, 1, 21, 5, 0, 0, time.Local)},
		},
	}))

	assert.Contains(t, out, "1/4 records (25.0%)")
	assert.Contains(t, out, "May 01, 2024 at 09:05 PM")
	assert.Contains(t, out, `action="/resume"`)
	assert.Contains(t, out, `action="/progress/delete"`)
}

func TestIndex_CheckResumeWithoutSnapshot(t *testing.T) {
	out := render(t, Index(View{Stage: core.StageCheckResume}))
	assert.Contains(t, out, "No saved progress.")
	assert.NotContains(t, out, `action="/resume"`)
}

func TestIndex_FileSelection(t *testing.T) {
	out := render(t, Index(View{
		Stage:          core.StageFileSelection,
		Files:          []FileEntry{{Name: "a.csv", Completed: true}, {Name: "b.csv"}},
		CompletedCount: 1,
	}))

	assert.Contains(t, out, `value="a.csv" disabled`)
	assert.Contains(t, out, `value="b.csv" checked`)
	assert.Contains(t, out, "1 file(s) completed.")
	assert.Contains(t, out, `action="/completed/reset"`)
}

func TestIndex_FileSelectionEmpty(t *testing.T) {
	out := render(t, Index(View{Stage: core.StageFileSelection, DocumentsDir: "documents"}))
	assert.Contains(t, out, "No CSV files found in <code>documents</code>")
}

func TestIndex_LabelingEscapesRecord(t *testing.T) {
	session := &core.Session{
		Username:   "alice",
		SourceFile: "reviews.csv",
		Labels:     make([]core.Label, 2),
		Table:      &core.RecordTable{Records: make([]core.Record, 2)},
	}
	out := render(t, Index(View{
		Stage:   core.StageLabeling,
		Session: session,
		Record:  core.Record{User: "mallory", Text: `<script>alert("x")</script>`},
		Pending: core.Neutral,
	}))

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "Record 1 of 2")
	assert.Contains(t, out, `class="sentiment neutral selected"`)
	assert.Contains(t, out, `<input type="hidden" name="sentiment" value="neutral">`)
}

func TestIndex_LabelingWithoutPending(t *testing.T) {
	session := &core.Session{
		Labels: make([]core.Label, 1),
		Table:  &core.RecordTable{Records: make([]core.Record, 1)},
	}
	out := render(t, Index(View{Stage: core.StageLabeling, Session: session}))
	assert.Contains(t, out, `class="primary" disabled>Submit`)
}

func TestIndex_Complete(t *testing.T) {
	out := render(t, Index(View{
		Stage: core.StageComplete,
		Report: &core.Report{
			OutputName: "alice_reviews-20240704_090503.csv",
			Summary:    core.Summary{Total: 2, Positive: 1, Negative: 1},
		},
	}))
	assert.Contains(t, out, "alice_reviews-20240704_090503.csv")
	assert.Contains(t, out, `href="/report/download"`)

	failed := render(t, Index(View{Stage: core.StageComplete}))
	assert.Contains(t, failed, `action="/export/retry"`)
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("File not found", "Check the name", "FILE001"))
	assert.Contains(t, out, "File not found")
	assert.Contains(t, out, "Check the name")
	assert.Contains(t, out, "Error code: FILE001")

	flash := render(t, Index(View{Stage: core.StageFileSelection, Flash: &Flash{Kind: "success", Message: "Saved"}}))
	assert.Contains(t, flash, `alert-success`)
}
