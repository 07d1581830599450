package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/sentilabel/internal/core"
)

// StateResponse is the JSON form of the state machine.
type StateResponse struct {
	Stage    core.Stage             `json:"stage"`
	Snapshot *core.ProgressSnapshot `json:"snapshot,omitempty"`
	Session  *SessionState          `json:"session,omitempty"`
	Report   *ReportState           `json:"report,omitempty"`
}

// SessionState describes the active session.
type SessionState struct {
	ID         string       `json:"id"`
	Username   string       `json:"username"`
	SourceFile string       `json:"source_file"`
	Cursor     int          `json:"cursor"`
	Total      int          `json:"total"`
	Pending    core.Label   `json:"pending"`
	Current    *RecordState `json:"current,omitempty"`
}

// RecordState is the record awaiting a label.
type RecordState struct {
	Index int    `json:"index"`
	User  string `json:"user"`
	Text  string `json:"text"`
}

// ReportState summarizes an exported report.
type ReportState struct {
	OutputName   string       `json:"output_name"`
	DownloadName string       `json:"download_name"`
	Summary      core.Summary `json:"summary"`
	CreatedAt    time.Time    `json:"created_at"`
}

// FileState is one entry of the file listing.
type FileState struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// FilesResponse lists the source files.
type FilesResponse struct {
	Files     []FileState `json:"files"`
	Completed []string    `json:"completed"`
}

// state builds the JSON state. Callers hold s.mu.
func (s *Server) state() StateResponse {
	m := s.machine
	resp := StateResponse{Stage: m.Stage(), Snapshot: m.Snapshot()}

	if sess := m.Session(); sess != nil {
		cursor, total := m.Progress()
		st := &SessionState{
			ID:         sess.ID,
			Username:   sess.Username,
			SourceFile: sess.SourceFile,
			Cursor:     cursor,
			Total:      total,
			Pending:    m.Pending(),
		}
		if rec, ok := m.Current(); ok {
			st.Current = &RecordState{Index: cursor, User: rec.User, Text: rec.Text}
		}
		resp.Session = st
	}

	if rep := m.Report(); rep != nil {
		resp.Report = &ReportState{
			OutputName:   rep.OutputName,
			DownloadName: core.DownloadName(rep.Username, rep.CreatedAt),
			Summary:      rep.Summary,
			CreatedAt:    rep.CreatedAt,
		}
	}
	return resp
}

// handleState returns the state machine as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.state())
}

// handleListFiles returns the source files and the completed set.
// The catalog does its own locking.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	catalog := s.machine.Catalog()
	entries := fileEntries(catalog)

	files := make([]FileState, len(entries))
	for i, e := range entries {
		files[i] = FileState{Name: e.Name, Completed: e.Completed}
	}
	writeJSON(w, http.StatusOK, FilesResponse{Files: files, Completed: catalog.Completed()})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
