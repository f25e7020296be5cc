package types

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat indicates the input is not a readable spreadsheet
	ErrFormat = errors.New("unreadable spreadsheet")
	// ErrSheetNotFound indicates the requested sheet does not exist
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrStructure indicates no usable table header could be located
	ErrStructure = errors.New("table structure not recognized")
	// ErrEmptyInput indicates no data rows survived cleaning
	ErrEmptyInput = errors.New("no data rows")
	// ErrExport indicates the output document could not be produced
	ErrExport = errors.New("export failed")
	// ErrInvalidSettings indicates discount settings are out of range
	ErrInvalidSettings = errors.New("invalid discount settings")
)

// FormatError reports an input container that cannot be parsed
type FormatError struct {
	Source string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot read %q: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot read %q: %s", e.Source, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// SheetNotFoundError reports a missing worksheet
type SheetNotFoundError struct {
	Sheet     string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	if e.Sheet == "" {
		return "workbook has no sheets"
	}
	return fmt.Sprintf("sheet %q not found (available: %v)", e.Sheet, e.Available)
}

func (e *SheetNotFoundError) Is(target error) bool { return target == ErrSheetNotFound }

// StructureError reports a header row that could not be located or mapped
type StructureError struct {
	HeaderRow int
	Found     []Role
	Reason    string
}

func (e *StructureError) Error() string {
	if e.HeaderRow < 0 {
		return fmt.Sprintf("table structure not recognized: %s", e.Reason)
	}
	return fmt.Sprintf("table structure not recognized at row %d: %s (roles found: %v)", e.HeaderRow+1, e.Reason, e.Found)
}

func (e *StructureError) Is(target error) bool { return target == ErrStructure }

// SettingsError reports an invalid discount marker entry
type SettingsError struct {
	Marker string
	Reason string
	Value  int
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("discount %q: %s (got %d)", e.Marker, e.Reason, e.Value)
}

func (e *SettingsError) Is(target error) bool { return target == ErrInvalidSettings }

// StageError wraps a failure with the pipeline stage that produced it
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError creates a new StageError
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
