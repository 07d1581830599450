package templates

import (
	"context"
	"fmt"
	"strconv"

	"github.com/JonMunkholm/sentilabel/internal/core"
	"github.com/a-h/templ"
)

// Flash is a one-shot message shown above the stage content.
type Flash struct {
	Kind    string // "error" or "success"
	Message string
	Action  string
	Code    string
}

// FileEntry is one source file offered for selection.
type FileEntry struct {
	Name      string
	Completed bool
}

// View is everything the index page renders for the current stage.
type View struct {
	Stage core.Stage
	Flash *Flash

	// CheckResume
	Snapshot *core.ProgressSnapshot

	// FileSelection
	Files          []FileEntry
	CompletedCount int
	DocumentsDir   string
	Username       string

	// Labeling
	Session *core.Session
	Record  core.Record
	Pending core.Label

	// Complete
	Report *core.Report
}

// Index renders the page for the current stage.
func Index(v View) templ.Component {
	return Layout("Sentiment Labeling", build(func(ctx context.Context, h *html) {
		if v.Flash != nil {
			if v.Flash.Kind == "error" {
				h.component(ctx, ErrorAlert(v.Flash.Message, v.Flash.Action, v.Flash.Code))
			} else {
				h.component(ctx, Notice(v.Flash.Message))
			}
		}

		switch v.Stage {
		case core.StageCheckResume:
			h.component(ctx, resumeSection(v.Snapshot))
		case core.StageFileSelection:
			h.component(ctx, fileSelectionSection(v))
		case core.StageLabeling:
			h.component(ctx, labelingSection(v))
		case core.StageComplete:
			h.component(ctx, completeSection(v))
		}
	}))
}

// Layout is the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title><link rel="stylesheet" href="/static/style.css"></head><body>`)
		h.raw(`<header><h1>`)
		h.text(title)
		h.raw(`</h1></header><main>`)
		h.component(ctx, body)
		h.raw(`</main></body></html>`)
	})
}

// ErrorAlert renders an error message with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<div class="alert alert-error" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(`<p>`)
			h.text(action)
			h.raw(`</p>`)
		}
		if code != "" {
			h.raw(`<small class="code">Error code: `)
			h.text(code)
			h.raw(`</small>`)
		}
		h.raw(`</div>`)
	})
}

// Notice renders a success message.
func Notice(message string) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<div class="alert alert-success" role="status">`)
		h.text(message)
		h.raw(`</div>`)
	})
}

// postButton renders a single-button form.
func postButton(h *html, action, label, class string) {
	h.rawf(`<form method="post" action="%s" class="inline"><button type="submit" class="%s">`, attr(action), attr(class))
	h.text(label)
	h.raw(`</button></form>`)
}

func resumeSection(snap *core.ProgressSnapshot) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<section class="card"><h2>Resume Previous Session</h2>`)
		if snap == nil {
			h.raw(`<p>No saved progress.</p><div class="actions">`)
			postButton(h, "/start-new", "Continue to file selection", "primary")
			h.raw(`</div></section>`)
			return
		}

		h.raw(`<p>Saved progress found.</p><dl>`)
		h.raw(`<dt>User</dt><dd>`)
		h.text(snap.Username)
		h.raw(`</dd><dt>File</dt><dd>`)
		h.text(snap.SelectedFile)
		h.raw(`</dd><dt>Progress</dt><dd>`)
		h.text(fmt.Sprintf("%d/%d records (%.1f%%)", snap.CurrentIndex, snap.TotalRecords, snap.Percent()))
		h.raw(`</dd><dt>Saved</dt><dd>`)
		h.text(snap.Timestamp.Local().Format(core.SavedTimeLayout))
		h.raw(`</dd></dl><div class="actions">`)
		postButton(h, "/resume", "Resume", "primary")
		postButton(h, "/start-new", "Start New", "")
		postButton(h, "/progress/delete", "Delete Progress", "danger")
		h.raw(`</div></section>`)
	})
}

func fileSelectionSection(v View) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<section class="card"><h2>Select a File</h2>`)

		if len(v.Files) == 0 {
			h.raw(`<p>No CSV files found in <code>`)
			h.text(v.DocumentsDir)
			h.raw(`</code>.</p></section>`)
			return
		}

		h.raw(`<form method="post" action="/start">`)
		h.raw(`<label for="username">Your name</label>`)
		h.rawf(`<input id="username" name="username" type="text" required value="%s">`, attr(v.Username))
		h.raw(`<fieldset><legend>Files</legend>`)
		first := true
		for _, f := range v.Files {
			id := "file-" + attr(f.Name)
			checked := ""
			disabled := ""
			if f.Completed {
				disabled = " disabled"
			} else if first {
				checked = " checked"
				first = false
			}
			h.rawf(`<div class="file"><input type="radio" name="file" id="%s" value="%s"%s%s><label for="%s">`,
				id, attr(f.Name), checked, disabled, id)
			h.text(f.Name)
			if f.Completed {
				h.raw(` <span class="badge">completed</span>`)
			}
			h.raw(`</label></div>`)
		}
		h.raw(`</fieldset><button type="submit" class="primary">Start Labeling</button></form>`)

		if v.CompletedCount > 0 {
			h.raw(`<div class="completed"><p>`)
			h.text(fmt.Sprintf("%d file(s) completed.", v.CompletedCount))
			h.raw(`</p>`)
			postButton(h, "/completed/reset", "Reset Completed Files", "danger")
			h.raw(`</div>`)
		}
		h.raw(`</section>`)
	})
}

func labelingSection(v View) templ.Component {
	return build(func(ctx context.Context, h *html) {
		s := v.Session
		if s == nil {
			return
		}
		total := s.Total()

		h.raw(`<div class="labeling"><aside class="sidebar"><dl>`)
		h.raw(`<dt>User</dt><dd>`)
		h.text(s.Username)
		h.raw(`</dd><dt>File</dt><dd>`)
		h.text(s.SourceFile)
		h.raw(`</dd><dt>Progress</dt><dd>`)
		h.text(fmt.Sprintf("%d/%d", s.Cursor, total))
		h.rawf(`</dd></dl><progress value="%d" max="%d"></progress>`, s.Cursor, total)
		postButton(h, "/save-exit", "Save & Exit", "")
		h.raw(`</aside>`)

		h.raw(`<section class="card record"><h2>`)
		h.text(fmt.Sprintf("Record %d of %d", s.Cursor+1, total))
		h.raw(`</h2><p class="author">`)
		h.text(v.Record.User)
		h.raw(`</p><blockquote>`)
		h.text(v.Record.Text)
		h.raw(`</blockquote><div class="sentiments">`)
		for _, l := range core.Labels {
			class := "sentiment " + string(l)
			if l == v.Pending {
				class += " selected"
			}
			h.raw(`<form method="post" action="/sentiment" class="inline">`)
			h.rawf(`<button type="submit" name="sentiment" value="%s" class="%s">`, attr(string(l)), attr(class))
			h.text(l.Title())
			h.raw(`</button></form>`)
		}
		h.raw(`</div><form method="post" action="/submit">`)
		disabled := " disabled"
		if v.Pending.IsSet() {
			disabled = ""
			h.rawf(`<input type="hidden" name="sentiment" value="%s">`, attr(string(v.Pending)))
		}
		h.rawf(`<button type="submit" class="primary"%s>Submit</button></form></section></div>`, disabled)
	})
}

func completeSection(v View) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<section class="card"><h2>Labeling Complete</h2>`)

		r := v.Report
		if r == nil {
			h.raw(`<p>The report could not be saved.</p><div class="actions">`)
			postButton(h, "/export/retry", "Retry Export", "primary")
			postButton(h, "/reset", "Start Over", "danger")
			h.raw(`</div></section>`)
			return
		}

		h.raw(`<table class="summary"><tbody>`)
		row := func(name string, n int) {
			h.raw(`<tr><th>`)
			h.text(name)
			h.raw(`</th><td>`)
			h.text(strconv.Itoa(n))
			h.raw(`</td></tr>`)
		}
		row("Total", r.Summary.Total)
		row("Positive", r.Summary.Positive)
		row("Neutral", r.Summary.Neutral)
		row("Negative", r.Summary.Negative)
		h.raw(`</tbody></table><p>Saved as <code>`)
		h.text(r.OutputName)
		h.raw(`</code></p><div class="actions">`)
		h.raw(`<a class="button primary" href="/report/download">Download CSV</a>`)
		postButton(h, "/reset", "Start Over", "")
		h.raw(`</div></section>`)
	})
}
