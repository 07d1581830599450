package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReportTimestampLayout formats the timestamp embedded in report names.
const ReportTimestampLayout = "20060102_150405"

// Exporter writes finished reports into the results directory.
type Exporter struct {
	dir string
	now func() time.Time
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir, now: time.Now}
}

// Dir returns the results directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Export writes table as CSV and returns the generated file name. An
// existing file with the same name is never overwritten.
func (e *Exporter) Export(username, sourceFile string, table ExportTable) (string, error) {
	const op = "export report"

	name := ReportName(username, sourceFile, e.now())

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", ioError(op, err)
	}

	f, err := os.OpenFile(filepath.Join(e.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", ioError(op, err)
	}

	if err := WriteCSV(f, table); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", ioError(op, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", ioError(op, err)
	}

	return name, nil
}

// ReportName builds "<user>_<source>-<YYYYMMDD_HHMMSS>.csv" with spaces and
// path separators in the user name replaced by underscores and the source's .csv extension
// removed.
func ReportName(username, sourceFile string, at time.Time) string {
	return fmt.Sprintf("%s_%s-%s.csv",
		cleanUsername(username),
		strings.TrimSuffix(sourceFile, ".csv"),
		at.Format(ReportTimestampLayout))
}

// DownloadName is the file name offered for a browser download of a report.
func DownloadName(username string, at time.Time) string {
	return fmt.Sprintf("sentiment_analysis_%s_%s.csv", cleanUsername(username), at.Format(ReportTimestampLayout))
}

// SentimentColumn is the export column holding a user's labels.
func SentimentColumn(username string) string {
	return "sentiment_by_" + cleanUsername(username)
}

var usernameReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

func cleanUsername(username string) string {
	return usernameReplacer.Replace(username)
}

// BuildExportTable produces the user, text and sentiment columns for s.
// Unset labels export as empty cells.
func BuildExportTable(s *Session) ExportTable {
	table := ExportTable{
		Columns: []string{ColumnUser, ColumnText, SentimentColumn(s.Username)},
		Rows:    make([][]string, 0, s.Total()),
	}
	for i, rec := range s.Table.Records {
		var label Label
		if i < len(s.Labels) {
			label = s.Labels[i]
		}
		table.Rows = append(table.Rows, []string{rec.User, rec.Text, string(label)})
	}
	return table
}

// Summarize counts labels by sentiment.
func Summarize(labels []Label) Summary {
	sum := Summary{Total: len(labels)}
	for _, l := range labels {
		switch l {
		case Positive:
			sum.Positive++
		case Neutral:
			sum.Neutral++
		case Negative:
			sum.Negative++
		default:
			sum.Unset++
		}
	}
	return sum
}

// WriteCSV writes the header and rows of table to w.
func WriteCSV(w io.Writer, table ExportTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	return cw.Error()
}
