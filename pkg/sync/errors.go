package sync

import "fmt"

// PathError records a filesystem failure that aborted a sync, together with
// the operation and the path it was applied to
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func displayPath(p string) string {
	if p == "" {
		return "."
	}
	return p
}
