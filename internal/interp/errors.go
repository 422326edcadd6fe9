package interp

import (
	"fmt"

	"github.com/dgw-tools/coursemapper/internal/types"
)

// StructuralError reports a parse-tree shape the interpreter does not model:
// a rule that is not a single-key record, or an unrecognized top-level kind.
// It aborts the run. Continuing past one risks silently wrong output rather
// than merely incomplete output, so these are never downgraded to reports.
type StructuralError struct {
	Key    types.BlockKey
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: structural error: %s", e.Key, e.Detail)
}

func structuralf(key types.BlockKey, format string, args ...any) error {
	return &StructuralError{Key: key, Detail: fmt.Sprintf(format, args...)}
}
