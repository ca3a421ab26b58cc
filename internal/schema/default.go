package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue/cuecontext"
)

//go:embed default.cue
var defaultProfileCUE string

// DefaultProfile compiles the embedded standard profile.
func DefaultProfile() (*Profile, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(defaultProfileCUE)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded profile: %w", formatCUEError(err))
	}
	return CompileProfile(v)
}

// DefaultTable compiles the embedded standard profile into a lookup table.
// Panics on failure: the embedded profile is part of the binary and a
// compile failure is a build defect, not a runtime condition.
func DefaultTable() *Table {
	p, err := DefaultProfile()
	if err != nil {
		panic(fmt.Sprintf("embedded profile is invalid: %v", err))
	}
	return NewTable(p)
}
