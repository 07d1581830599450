package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Stage is the current step of the labeling flow.
type Stage string

const (
	StageCheckResume   Stage = "check_resume"
	StageFileSelection Stage = "file_selection"
	StageLabeling      Stage = "labeling"
	StageComplete      Stage = "complete"
)

// Label is a sentiment assigned to one record. The zero value is Unset.
type Label string

const (
	Unset    Label = ""
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// Labels lists the assignable sentiments in display order.
var Labels = []Label{Positive, Neutral, Negative}

// ParseLabel converts user input to a Label. Matching ignores case and
// surrounding whitespace. An empty string parses to Unset.
func ParseLabel(s string) (Label, error) {
	switch Label(strings.ToLower(strings.TrimSpace(s))) {
	case Unset:
		return Unset, nil
	case Positive:
		return Positive, nil
	case Neutral:
		return Neutral, nil
	case Negative:
		return Negative, nil
	}
	return Unset, fmt.Errorf("unknown sentiment %q", s)
}

// IsSet reports whether the label holds a sentiment.
func (l Label) IsSet() bool { return l != Unset }

// Title returns the display name, e.g. "Positive".
func (l Label) Title() string {
	if l == Unset {
		return "Unset"
	}
	return strings.ToUpper(string(l[:1])) + string(l[1:])
}

// MarshalJSON encodes Unset as null.
func (l Label) MarshalJSON() ([]byte, error) {
	if l == Unset {
		return []byte("null"), nil
	}
	return json.Marshal(string(l))
}

// UnmarshalJSON accepts null or one of the sentiment strings.
func (l *Label) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = Unset
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLabel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Record is one row of a source file.
type Record struct {
	User   string
	Text   string
	Fields []string // full row, aligned to RecordTable.Header
}

// RecordTable is the in-memory contents of a source file.
type RecordTable struct {
	Header  []string // normalized column names
	Records []Record
}

// Len returns the number of records.
func (t *RecordTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// At returns the record at index i.
func (t *RecordTable) At(i int) (Record, bool) {
	if t == nil || i < 0 || i >= len(t.Records) {
		return Record{}, false
	}
	return t.Records[i], true
}

// Session is the single active labeling run.
type Session struct {
	ID         string
	Username   string
	SourceFile string
	Cursor     int
	Labels     []Label
	Table      *RecordTable
}

// Total returns the number of records in the session.
func (s *Session) Total() int {
	return s.Table.Len()
}

// Done reports whether every record has been labeled.
func (s *Session) Done() bool {
	return s.Cursor >= s.Total()
}

// ProgressSnapshot is the durable form of a Session.
type ProgressSnapshot struct {
	SessionID    string    `json:"session_id,omitempty"`
	Username     string    `json:"username"`
	SelectedFile string    `json:"selected_file"`
	CurrentIndex int       `json:"current_index"`
	UserLabels   []Label   `json:"user_labels"`
	TotalRecords int       `json:"total_records"`
	Timestamp    Timestamp `json:"timestamp"`
}

// Percent returns labeling progress in the range 0-100.
func (p *ProgressSnapshot) Percent() float64 {
	if p.TotalRecords <= 0 {
		return 0
	}
	return float64(p.CurrentIndex) / float64(p.TotalRecords) * 100
}

// Timestamp is an ISO-8601 time. It is written as RFC 3339 and also read
// without a zone offset, the form Python's datetime.isoformat produces.
type Timestamp struct {
	time.Time
}

// SavedTimeLayout formats a snapshot's save time for people.
const SavedTimeLayout = "January 02, 2006 at 03:04 PM"

var naiveISOLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// MarshalJSON writes RFC 3339 with nanoseconds.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// UnmarshalJSON parses RFC 3339 or naive ISO-8601 in local time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range naiveISOLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// Summary counts labels by sentiment.
type Summary struct {
	Total    int `json:"total"`
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Unset    int `json:"unset"`
}

// ExportTable is the tabular content of a finished report.
type ExportTable struct {
	Columns []string
	Rows    [][]string
}

// Report is the result of finalizing a session.
type Report struct {
	ID         string
	Username   string
	SourceFile string
	OutputName string
	Summary    Summary
	Table      ExportTable
	CreatedAt  time.Time
}
