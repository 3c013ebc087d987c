package style

import "fmt"

// CompileError reports a stylesheet that could not be compiled. It is
// recoverable: callers skip the file and continue with the rest.
type CompileError struct {
	File   string
	Import string
	Err    error
}

func (e *CompileError) Error() string {
	if e.Import != "" {
		return fmt.Sprintf("compile %s: import %q: %v", e.File, e.Import, e.Err)
	}
	return fmt.Sprintf("compile %s: %v", e.File, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }
