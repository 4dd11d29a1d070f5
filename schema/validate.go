package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyIdentity is returned when a finding or flag has no identity key.
	ErrEmptyIdentity = errors.New("empty identity key")

	// ErrDuplicateIdentity is returned when an identity key repeats within a document.
	ErrDuplicateIdentity = errors.New("duplicate identity key")

	// ErrInvalidLevel is returned when a risk report carries a level outside the known set.
	ErrInvalidLevel = errors.New("invalid risk level")
)

// Valid reports whether l is one of the levels the analyzer emits.
func (l RiskLevel) Valid() bool {
	switch l {
	case CriticalLevel, HighLevel, MediumLevel, LowLevel, UnknownLevel:
		return true
	}
	return false
}

// Validate checks that every finding carries a unique, non-empty findingId.
func (d *FactsDocument) Validate() error {
	if d == nil {
		return errors.New("facts document is nil")
	}
	seen := make(map[string]struct{}, len(d.Findings))
	for i, f := range d.Findings {
		if f.FindingID == "" {
			return fmt.Errorf("findings[%d]: %w", i, ErrEmptyIdentity)
		}
		if _, dup := seen[f.FindingID]; dup {
			return fmt.Errorf("findingId %q: %w", f.FindingID, ErrDuplicateIdentity)
		}
		seen[f.FindingID] = struct{}{}
	}
	return nil
}

// Validate checks that every flag carries a unique, non-empty flagId and that
// the level is known.
func (r *RiskReport) Validate() error {
	if r == nil {
		return errors.New("risk report is nil")
	}
	seen := make(map[string]struct{}, len(r.Flags))
	for i, f := range r.Flags {
		if f.FlagID == "" {
			return fmt.Errorf("flags[%d]: %w", i, ErrEmptyIdentity)
		}
		if _, dup := seen[f.FlagID]; dup {
			return fmt.Errorf("flagId %q: %w", f.FlagID, ErrDuplicateIdentity)
		}
		seen[f.FlagID] = struct{}{}
	}
	if !r.Level.Valid() {
		return fmt.Errorf("level %q: %w", r.Level, ErrInvalidLevel)
	}
	return nil
}
