package web

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sentilabel/internal/core"
	"github.com/JonMunkholm/sentilabel/internal/logging"
	"github.com/JonMunkholm/sentilabel/internal/web/templates"
)

// action wraps a single transition. On success browsers are redirected to
// the index page, showing notice if set, and JSON clients get the new state.
func (s *Server) action(notice string, fn func(m *core.Machine) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if err := fn(s.machine); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondTransition(w, r, notice)
	}
}

// respondTransition finishes a successful transition. Callers hold s.mu.
func (s *Server) respondTransition(w http.ResponseWriter, r *http.Request, notice string) {
	logging.WithFields(r.Context(), "stage", s.machine.Stage()).
		Debug("transition applied", "path", r.URL.Path)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, s.state())
		return
	}
	if notice != "" {
		s.flash = &templates.Flash{Kind: "success", Message: notice}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleIndex renders the page for the current stage.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, s.state())
		return
	}

	view := s.view()
	s.flash = nil

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Index(view).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// view builds the page model for the current stage. Callers hold s.mu.
func (s *Server) view() templates.View {
	m := s.machine
	v := templates.View{Stage: m.Stage(), Flash: s.flash}

	switch m.Stage() {
	case core.StageCheckResume:
		v.Snapshot = m.Snapshot()
	case core.StageFileSelection:
		catalog := m.Catalog()
		v.Files = fileEntries(catalog)
		v.CompletedCount = len(catalog.Completed())
		v.DocumentsDir = catalog.DocumentsDir()
		v.Username = s.username
	case core.StageLabeling:
		v.Session = m.Session()
		v.Record, _ = m.Current()
		v.Pending = m.Pending()
	case core.StageComplete:
		v.Report = m.Report()
	}
	return v
}

func fileEntries(catalog *core.Catalog) []templates.FileEntry {
	names := catalog.ListAvailable()
	entries := make([]templates.FileEntry, len(names))
	for i, name := range names {
		entries[i] = templates.FileEntry{Name: name, Completed: catalog.IsCompleted(name)}
	}
	return entries
}

// handleStart begins a session from the file selection form.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := r.PostFormValue("file")
	username := r.PostFormValue("username")
	s.username = strings.TrimSpace(username)

	if err := s.machine.Start(file, username); err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "file", file, "user", s.username).Info("session started")
	s.respondTransition(w, r, "")
}

// handleSelect sets the pending sentiment.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.Select(core.Label(r.PostFormValue("sentiment"))); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondTransition(w, r, "")
}

// handleSubmit commits the posted sentiment, or the pending one when the
// form carries none.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if raw := r.PostFormValue("sentiment"); raw != "" {
		err = s.machine.Submit(core.Label(raw))
	} else {
		err = s.machine.SubmitPending()
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	notice := ""
	if rep := s.machine.Report(); rep != nil && s.machine.Stage() == core.StageComplete {
		notice = fmt.Sprintf("Report saved as %s.", rep.OutputName)
	}
	s.respondTransition(w, r, notice)
}

// handleDownloadReport streams the finished report as a CSV attachment.
func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := s.machine.Report()
	if rep == nil {
		s.respondError(w, r, fmt.Errorf("download report: %w", core.ErrWrongStage))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment",
		map[string]string{"filename": core.DownloadName(rep.Username, rep.CreatedAt)}))
	if err := core.WriteCSV(w, rep.Table); err != nil {
		logging.FromContext(r.Context()).Error("write report download", "error", err)
	}
}
