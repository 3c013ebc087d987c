package compile

import (
	"fmt"
)

// FileError is a recoverable per-file failure within one target.
type FileError struct {
	Target TargetName
	File   string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Target, e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
