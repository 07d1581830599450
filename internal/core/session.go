package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ArchiveTimeout bounds a single report archive write.
var ArchiveTimeout = 30 * time.Second

var startValidate = validator.New()

// StartRequest is the input of the file selection stage.
type StartRequest struct {
	File     string `validate:"required,endswith=.csv,excludesall=/\\"`
	Username string `validate:"required,excludesall=/\\"`
}

// validate trims the username and checks both fields.
func (r *StartRequest) validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.File = strings.TrimSpace(r.File)

	err := startValidate.Struct(r)
	if err == nil {
		if strings.Contains(r.Username, "..") {
			return ErrInvalidUsername
		}
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	// Report the username first; it is the field users most often miss.
	for _, fe := range verrs {
		if fe.Field() == "Username" {
			if fe.Tag() == "required" {
				return ErrEmptyUsername
			}
			return ErrInvalidUsername
		}
	}
	if verrs[0].Tag() == "required" {
		return ErrNoFile
	}
	return ErrInvalidFileName
}

// MachineConfig wires a Machine to its collaborators.
type MachineConfig struct {
	Catalog  *Catalog
	Progress *ProgressStore
	Exporter *Exporter
	Archive  Archiver     // optional
	Logger   *slog.Logger // optional, defaults to slog.Default()
}

// Machine is the labeling session state machine.
//
// Every transition either applies completely or leaves the machine as it
// was, and returns a *Error describing any failure. A Machine is not safe
// for concurrent use; callers serialize transitions.
type Machine struct {
	catalog  *Catalog
	progress *ProgressStore
	exporter *Exporter
	archive  Archiver
	logger   *slog.Logger
	now      func() time.Time

	stage    Stage
	session  *Session
	pending  Label
	snapshot *ProgressSnapshot
	report   *Report
}

// NewMachine creates a machine in the CheckResume stage. Call Init before
// the first transition.
func NewMachine(cfg MachineConfig) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		catalog:  cfg.Catalog,
		progress: cfg.Progress,
		exporter: cfg.Exporter,
		archive:  cfg.Archive,
		logger:   logger.With("component", "session"),
		now:      time.Now,
		stage:    StageCheckResume,
	}
}

// ----------------------------------------------------------------------------
// Views
// ----------------------------------------------------------------------------

// Stage returns the current stage.
func (m *Machine) Stage() Stage { return m.stage }

// Session returns the active session, or nil outside Labeling and Complete.
// The returned value must not be modified.
func (m *Machine) Session() *Session { return m.session }

// Snapshot returns the saved progress offered in CheckResume, if any.
func (m *Machine) Snapshot() *ProgressSnapshot { return m.snapshot }

// Pending returns the sentiment selected but not yet submitted.
func (m *Machine) Pending() Label { return m.pending }

// Report returns the exported report once Complete has finalized.
func (m *Machine) Report() *Report { return m.report }

// Catalog returns the file catalog the machine selects from.
func (m *Machine) Catalog() *Catalog { return m.catalog }

// Current returns the record awaiting a label.
func (m *Machine) Current() (Record, bool) {
	if m.stage != StageLabeling || m.session == nil {
		return Record{}, false
	}
	return m.session.Table.At(m.session.Cursor)
}

// Progress returns the cursor and the number of records.
func (m *Machine) Progress() (cursor, total int) {
	if m.session == nil {
		return 0, 0
	}
	return m.session.Cursor, m.session.Total()
}

// ----------------------------------------------------------------------------
// CheckResume
// ----------------------------------------------------------------------------

// Init queries the progress store. A saved snapshot leaves the machine in
// CheckResume; otherwise it moves to FileSelection. A corrupt snapshot is
// reported and treated as absent.
func (m *Machine) Init() error {
	m.session = nil
	m.pending = Unset
	m.report = nil
	m.snapshot = nil

	snap, err := m.progress.Load()
	if err != nil {
		m.setStage(StageFileSelection)
		return m.fail(err)
	}
	if snap == nil {
		m.setStage(StageFileSelection)
		return nil
	}

	m.snapshot = snap
	m.setStage(StageCheckResume)
	m.logger.Info("saved progress found",
		"file", snap.SelectedFile,
		"user", snap.Username,
		"cursor", snap.CurrentIndex,
		"total", snap.TotalRecords,
	)
	return nil
}

// Resume reloads the snapshot's source file and continues labeling where it
// stopped. If the file cannot be loaded or no longer matches the snapshot,
// the snapshot is cleared and the machine moves to FileSelection.
func (m *Machine) Resume() error {
	const op = "resume"

	if m.stage != StageCheckResume {
		return m.fail(validationError(op, "%w", ErrWrongStage))
	}
	snap := m.snapshot
	if snap == nil {
		return m.fail(validationError(op, "%w", ErrNoSnapshot))
	}

	var table *RecordTable
	var err error
	if !safeSnapshotNames(snap) {
		err = validationError(op, "%w: unusable file or user name", ErrSnapshotInvalid)
	} else if table, err = LoadRecords(m.catalog.Path(snap.SelectedFile)); err == nil {
		err = checkSnapshot(snap, table)
	}
	if err != nil {
		m.discardSnapshot()
		m.setStage(StageFileSelection)
		return m.fail(err)
	}

	id := snap.SessionID
	if id == "" {
		id = uuid.New().String()
	}
	labels := make([]Label, len(snap.UserLabels))
	copy(labels, snap.UserLabels)

	m.session = &Session{
		ID:         id,
		Username:   snap.Username,
		SourceFile: snap.SelectedFile,
		Cursor:     snap.CurrentIndex,
		Labels:     labels,
		Table:      table,
	}
	m.snapshot = nil
	m.pending = Unset
	sessionsStarted.Inc()

	if m.session.Done() {
		m.setStage(StageComplete)
		return m.finalize()
	}
	m.setStage(StageLabeling)
	return nil
}

// checkSnapshot verifies snap still describes table.
func checkSnapshot(snap *ProgressSnapshot, table *RecordTable) error {
	const op = "resume"

	n := table.Len()
	switch {
	case snap.TotalRecords != n:
		return validationError(op, "%w: saved %d records, file has %d", ErrSnapshotInvalid, snap.TotalRecords, n)
	case len(snap.UserLabels) != n:
		return validationError(op, "%w: saved %d labels, file has %d records", ErrSnapshotInvalid, len(snap.UserLabels), n)
	case snap.CurrentIndex < 0 || snap.CurrentIndex > n:
		return validationError(op, "%w: position %d out of range", ErrSnapshotInvalid, snap.CurrentIndex)
	}
	for i, l := range snap.UserLabels {
		if l.IsSet() != (i < snap.CurrentIndex) {
			return validationError(op, "%w: labels not filled up to position %d", ErrSnapshotInvalid, snap.CurrentIndex)
		}
	}
	return nil
}

// safeSnapshotNames applies the Start rules to a snapshot read from disk.
func safeSnapshotNames(snap *ProgressSnapshot) bool {
	req := StartRequest{File: snap.SelectedFile, Username: snap.Username}
	return req.validate() == nil && req.File == snap.SelectedFile
}

// StartNew discards the saved snapshot and moves to FileSelection. A failure
// to remove the snapshot file is reported but does not block the move.
func (m *Machine) StartNew() error {
	if m.stage != StageCheckResume {
		return m.fail(validationError("start new", "%w", ErrWrongStage))
	}
	err := m.discardSnapshot()
	m.setStage(StageFileSelection)
	if err != nil {
		return m.fail(err)
	}
	return nil
}

// DeleteSnapshot discards the saved snapshot and stays in CheckResume.
func (m *Machine) DeleteSnapshot() error {
	if m.stage != StageCheckResume {
		return m.fail(validationError("delete progress", "%w", ErrWrongStage))
	}
	if err := m.discardSnapshot(); err != nil {
		return m.fail(err)
	}
	m.logger.Info("saved progress deleted")
	return nil
}

// discardSnapshot forgets the in-memory snapshot and clears the store.
func (m *Machine) discardSnapshot() error {
	m.snapshot = nil
	return m.progress.Clear()
}

// ----------------------------------------------------------------------------
// FileSelection
// ----------------------------------------------------------------------------

// Start begins labeling file as username. Completed files are rejected.
func (m *Machine) Start(file, username string) error {
	const op = "start"

	if m.stage != StageFileSelection {
		return m.fail(validationError(op, "%w", ErrWrongStage))
	}

	req := StartRequest{File: file, Username: username}
	if err := req.validate(); err != nil {
		return m.fail(validationError(op, "%w", err))
	}
	if m.catalog.IsCompleted(req.File) {
		return m.fail(validationError(op, "%w: %s", ErrFileCompleted, req.File))
	}

	table, err := LoadRecords(m.catalog.Path(req.File))
	if err != nil {
		return m.fail(err)
	}
	if table.Len() == 0 {
		return m.fail(validationError(op, "%w: %s", ErrEmptyTable, req.File))
	}

	m.session = &Session{
		ID:         uuid.New().String(),
		Username:   req.Username,
		SourceFile: req.File,
		Labels:     make([]Label, table.Len()),
		Table:      table,
	}
	m.pending = Unset
	m.report = nil
	sessionsStarted.Inc()
	m.setStage(StageLabeling)
	return nil
}

// ResetCompleted clears the completed set.
func (m *Machine) ResetCompleted() error {
	if err := m.catalog.ResetAll(); err != nil {
		return m.fail(err)
	}
	m.logger.Info("completed files reset")
	return nil
}

// ----------------------------------------------------------------------------
// Labeling
// ----------------------------------------------------------------------------

// Select sets the pending sentiment. It can be changed any number of times
// before Submit; Unset clears it.
func (m *Machine) Select(label Label) error {
	const op = "select"

	if m.stage != StageLabeling {
		return m.fail(validationError(op, "%w", ErrWrongStage))
	}
	parsed, err := ParseLabel(string(label))
	if err != nil {
		return m.fail(validationError(op, "%w", err))
	}
	m.pending = parsed
	return nil
}

// Submit records label for the current record and advances the cursor.
// Labeling the last record moves to Complete and finalizes the session.
func (m *Machine) Submit(label Label) error {
	const op = "submit"

	if m.stage != StageLabeling || m.session == nil {
		return m.fail(validationError(op, "%w", ErrWrongStage))
	}
	parsed, err := ParseLabel(string(label))
	if err != nil {
		return m.fail(validationError(op, "%w", err))
	}
	if !parsed.IsSet() {
		return m.fail(validationError(op, "%w", ErrNoSentiment))
	}

	s := m.session
	s.Labels[s.Cursor] = parsed
	s.Cursor++
	m.pending = Unset
	labelsSubmitted.WithLabelValues(string(parsed)).Inc()

	if s.Done() {
		m.setStage(StageComplete)
		return m.finalize()
	}
	return nil
}

// SubmitPending submits the pending sentiment.
func (m *Machine) SubmitPending() error {
	return m.Submit(m.pending)
}

// SaveAndExit persists the session and returns to CheckResume with the
// fresh snapshot on offer. On failure the machine stays in Labeling.
func (m *Machine) SaveAndExit() error {
	if m.stage != StageLabeling || m.session == nil {
		return m.fail(validationError("save progress", "%w", ErrWrongStage))
	}

	snap, err := m.progress.Save(m.session)
	if err != nil {
		progressSaves.WithLabelValues("error").Inc()
		return m.fail(err)
	}
	progressSaves.WithLabelValues("ok").Inc()

	m.logger.Info("progress saved",
		"file", snap.SelectedFile,
		"user", snap.Username,
		"cursor", snap.CurrentIndex,
		"total", snap.TotalRecords,
	)
	m.session = nil
	m.pending = Unset
	m.snapshot = snap
	m.setStage(StageCheckResume)
	return nil
}

// ----------------------------------------------------------------------------
// Complete
// ----------------------------------------------------------------------------

// finalize exports the finished session, marks its file completed and
// clears saved progress. If the export fails the machine stays in Complete
// without a report, the file is not marked and the session is saved as
// progress; RetryExport runs it again.
// Failures after a successful export are reported but keep the report.
func (m *Machine) finalize() error {
	s := m.session
	table := BuildExportTable(s)

	name, err := m.exporter.Export(s.Username, s.SourceFile, table)
	if err != nil {
		m.report = nil
		// Keep the finished labels on disk; Resume finalizes them again.
		if _, saveErr := m.progress.Save(s); saveErr != nil {
			return m.fail(errors.Join(err, saveErr))
		}
		return m.fail(err)
	}

	m.report = &Report{
		ID:         s.ID,
		Username:   s.Username,
		SourceFile: s.SourceFile,
		OutputName: name,
		Summary:    Summarize(s.Labels),
		Table:      table,
		CreatedAt:  m.now(),
	}
	sessionsCompleted.Inc()
	m.logger.Info("report exported",
		"file", s.SourceFile,
		"user", s.Username,
		"output", name,
		"total", m.report.Summary.Total,
	)

	var errs []error
	if err := m.catalog.MarkCompleted(s.SourceFile); err != nil {
		errs = append(errs, err)
	}
	if err := m.progress.Clear(); err != nil {
		errs = append(errs, err)
	}
	m.archiveReport(m.report)

	if err := errors.Join(errs...); err != nil {
		return m.fail(err)
	}
	return nil
}

// archiveReport copies r to the archive, if one is configured. Archive
// failures are logged only; the exported file is the report of record.
func (m *Machine) archiveReport(r *Report) {
	if m.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ArchiveTimeout)
	defer cancel()

	if err := m.archive.Archive(ctx, r); err != nil {
		m.logger.Warn("archive report failed", "output", r.OutputName, "error", err)
	}
}

// RetryExport re-runs finalization after a failed export.
func (m *Machine) RetryExport() error {
	if m.stage != StageComplete || m.session == nil || m.report != nil {
		return m.fail(validationError("retry export", "%w", ErrWrongStage))
	}
	return m.finalize()
}

// Reset clears saved progress, drops the session and starts over from
// CheckResume. It is allowed in every stage.
func (m *Machine) Reset() error {
	clearErr := m.progress.Clear()

	m.session = nil
	m.pending = Unset
	m.report = nil
	m.snapshot = nil
	m.setStage(StageCheckResume)
	m.logger.Info("session reset")

	initErr := m.Init()
	if clearErr != nil {
		return m.fail(errors.Join(clearErr, initErr))
	}
	return initErr
}

func (m *Machine) setStage(stage Stage) {
	if m.stage != stage {
		m.logger.Debug("stage changed", "from", m.stage, "to", stage)
	}
	m.stage = stage
}

func (m *Machine) fail(err error) error {
	transitionErrors.WithLabelValues(KindOf(err).String()).Inc()
	m.logger.Warn("transition failed", "stage", m.stage, "error", err)
	return err
}
