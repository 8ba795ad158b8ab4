package review

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoDataset is returned by operations that need a loaded spreadsheet.
	ErrNoDataset = errors.New("no dataset loaded")
	// ErrNoCurrentRecord is returned when saving past the end of the view.
	ErrNoCurrentRecord = errors.New("no current record")
	// ErrNotEditable is returned when an edit targets a read-only column.
	ErrNotEditable = errors.New("column is not editable")
	// ErrConflictingEdits is returned when two edit keys name the same column.
	ErrConflictingEdits = errors.New("conflicting edits")
	// ErrNothingToExport is returned by Export when no row has been modified.
	ErrNothingToExport = errors.New("no modified rows to export")
)

// LoadError reports a spreadsheet that could not be read as tabular data.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DirectoryNotFoundError reports an image directory that does not exist.
type DirectoryNotFoundError struct {
	Path string
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("directory not found: %s", e.Path)
}

// ImageNotFoundError lists every path probed for a record's image.
type ImageNotFoundError struct {
	Name  string
	Tried []string
}

func (e *ImageNotFoundError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("image not found: %q", e.Name)
	}
	return fmt.Sprintf("image not found: %q (tried %s)", e.Name, strings.Join(e.Tried, ", "))
}

// CoercionError reports an edited value that does not fit its column type.
type CoercionError struct {
	Column string
	Value  string
	Kind   ColumnKind
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("column %q: cannot store %q as %s: %v", e.Column, e.Value, e.Kind, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }
