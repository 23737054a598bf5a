package models

import (
	"fmt"
	"strings"
)

// Pipeline error taxonomy. Region stages classify their failures so the
// orchestrator can tell recoverable gaps from structural problems.

// MissingInputError reports an absent optional input (a grid file, a coastal
// site set). Stages treat it as non-fatal: affected features stay missing and
// coverage is logged.
type MissingInputError struct {
	Path     string
	Variable string
}

func (e *MissingInputError) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("missing input for %s: %s", e.Variable, e.Path)
	}
	return fmt.Sprintf("missing input: %s", e.Path)
}

// SchemaMismatchError reports a region whose stored features do not match
// the expected schema. Fatal for that region; other regions proceed.
type SchemaMismatchError struct {
	Region  string
	Version string
	Missing []string
	Extra   []string
}

func (e *SchemaMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "feature schema mismatch in region %s (schema %s)", e.Region, e.Version)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing columns %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, "; unexpected columns %s", strings.Join(e.Extra, ", "))
	}
	return b.String()
}

// LeakageError reports an attempt to validate on data the models trained on.
// The validator refuses rather than producing an optimistic accuracy number.
type LeakageError struct {
	HoldoutRegion   string
	RequestedRegion string
}

func (e *LeakageError) Error() string {
	return fmt.Sprintf("validation refused: region %s was in the training set (holdout is %s)",
		e.RequestedRegion, e.HoldoutRegion)
}
