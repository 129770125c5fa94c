package volume

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCorruptIndex is returned when an index file is structurally invalid.
var ErrCorruptIndex = errors.New("corrupt index file")

// ErrFormatVersion indicates an index file with an unsupported version.
type ErrFormatVersion struct {
	Path    string
	Version uint32
}

func (e *ErrFormatVersion) Error() string {
	return fmt.Sprintf("%s: unsupported format version %d", e.Path, e.Version)
}

// ErrMoleculeMismatch indicates that an index file holds a different
// molecule type than was requested.
type ErrMoleculeMismatch struct {
	Path string
	Want MoleculeType
	Got  MoleculeType
}

func (e *ErrMoleculeMismatch) Error() string {
	return fmt.Sprintf("%s: molecule type mismatch: want %s, got %s", e.Path, e.Want, e.Got)
}

// ErrMissingFile indicates that no candidate path for a database name exists.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrMissingFile struct {
	Name  string
	Tried []string
	cause error
}

// NewMissingFile returns an ErrMissingFile for name.
func NewMissingFile(name string, tried []string, cause error) *ErrMissingFile {
	return &ErrMissingFile{Name: name, Tried: tried, cause: cause}
}

func (e *ErrMissingFile) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("database %q not found", e.Name)
	}
	return fmt.Sprintf("database %q not found (tried %s)", e.Name, strings.Join(e.Tried, ", "))
}

func (e *ErrMissingFile) Unwrap() error { return e.cause }
