// Package core provides the business logic for sentiment labeling sessions.
//
// This package contains all domain logic independent of any UI or transport
// layer. The web server, the terminal UI and tests drive it the same way.
//
// # Architecture
//
// The package is organized around a few collaborators:
//
//   - Catalog: lists source CSV files and the completed set.
//   - Record loading: [LoadRecords] reads a CSV into a [RecordTable].
//   - ProgressStore: the single saved snapshot of an unfinished session.
//   - Exporter: writes finished reports to the results directory.
//   - Machine: the session state machine that ties them together.
//
// # Session Flow
//
// A [Machine] moves through four stages:
//
//  1. [StageCheckResume]: a saved snapshot is offered for resume or deletion
//  2. [StageFileSelection]: the user picks a file and enters a name
//  3. [StageLabeling]: one record at a time, forward only
//  4. [StageComplete]: the report is exported and the file marked completed
//
// [Machine.Reset] returns to the start from any stage.
//
// # Error Handling
//
// Every failure is an [*Error] carrying an [ErrorKind]. Transitions never
// leave the machine half-updated. Presentation layers convert errors to
// user-facing messages with [MapError]; each message has a code for
// support reference:
//
//   - FILE000-FILE005: file read and write errors
//   - SCH000-SCH001: missing required columns
//   - PRG001-PRG003: saved progress errors
//   - VAL000-VAL007: invalid input
package core
