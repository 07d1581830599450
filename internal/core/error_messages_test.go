package core

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing file maps correctly",
			err:         ioError("load records", fmt.Errorf("open documents/a.csv: %w", fs.ErrNotExist)),
			wantCode:    "FILE001",
			wantMessage: "The selected file no longer exists",
		},
		{
			name:        "ragged csv maps correctly",
			err:         ioError("load records", errors.New("record on line 3: wrong number of fields")),
			wantCode:    "FILE003",
			wantMessage: "The file is not a valid CSV",
		},
		{
			name:        "missing column maps correctly",
			err:         schemaError("load records", "missing required column(s): text"),
			wantCode:    "SCH001",
			wantMessage: "Required column is missing from the CSV",
		},
		{
			name:        "completed file maps correctly",
			err:         validationError("start", "%w: a.csv", ErrFileCompleted),
			wantCode:    "VAL002",
			wantMessage: "This file has already been completed",
		},
		{
			name:        "serialization kind falls back to kind message",
			err:         serializationError("load progress", errors.New("invalid character 'x'")),
			wantCode:    "PRG001",
			wantMessage: "Saved progress could not be read",
		},
		{
			name:        "io kind falls back to kind message",
			err:         ioError("save progress", errors.New("disk quota exceeded")),
			wantCode:    "FILE000",
			wantMessage: "A file could not be read or written",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("NO SENTIMENT SELECTED"),
			wantCode:    "VAL003",
			wantMessage: "Select a sentiment before submitting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError_InvalidUsername(t *testing.T) {
	err := validationError("start", "%w", ErrInvalidUsername)
	if got := FormatUserError(err); !strings.Contains(got, "(Code: VAL008)") {
		t.Errorf("FormatUserError() = %q, want code VAL008", got)
	}
}

func TestFormatUserError(t *testing.T) {
	err := validationError("start", "%w", ErrEmptyUsername)
	result := FormatUserError(err)

	expected := "Please enter your name (Code: VAL001). Your name is used to label the exported column"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", schemaError("load", "missing required column(s): user"))
	if got := KindOf(wrapped); got != KindSchema {
		t.Errorf("KindOf() = %v, want %v", got, KindSchema)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf() = %v, want %v", got, KindUnknown)
	}
	if !errors.Is(validationError("submit", "%w", ErrNoSentiment), ErrNoSentiment) {
		t.Error("validation error should wrap its sentinel")
	}
}
