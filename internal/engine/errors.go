package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/atelier/internal/repo"
	"github.com/roach88/atelier/internal/validate"
)

// BlockedError is returned by Commit when hard-mode validation found
// error-severity issues. Nothing was mutated; the issues carry everything
// the caller needs to surface the failure.
type BlockedError struct {
	Issues []validate.Issue
}

func (e *BlockedError) Error() string {
	errs := 0
	for _, issue := range e.Issues {
		if issue.Severity == validate.SeverityError {
			errs++
		}
	}
	return fmt.Sprintf("commit blocked: %d error issue(s)", errs)
}

// IsBlocked reports whether err is (or wraps) a BlockedError.
func IsBlocked(err error) bool {
	var be *BlockedError
	return errors.As(err, &be)
}

// IsConflict reports whether err is (or wraps) a repository conflict.
// Re-exported here so callers of Commit need only this package.
func IsConflict(err error) bool {
	return repo.IsConflict(err)
}
