package senml

import (
	"fmt"
	"strings"
)

// ValidationCode identifies the compliance rule an envelope violated.
type ValidationCode string

// Compliance failure codes, in rule precedence order.
const (
	CodeEmptyMeasurements  ValidationCode = "EmptyMeasurements"
	CodeUnsupportedVersion ValidationCode = "UnsupportedVersion"
	CodeUnknownBaseUnit    ValidationCode = "UnknownBaseUnit"
	CodeInvalidName        ValidationCode = "InvalidName"
	CodeAmbiguousValue     ValidationCode = "AmbiguousValueProvided"
	CodeUnknownUnit        ValidationCode = "UnknownUnit"
	CodeAllUnitsUndefined  ValidationCode = "AllUnitsUndefined"
)

// ValidationError describes why an envelope failed compliance. Entry is the
// index of the offending entry, or -1 for envelope-level failures.
type ValidationError struct {
	Code   ValidationCode
	Entry  int
	Detail string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Entry >= 0 {
		return fmt.Sprintf("envelope validation: %s (entry %d): %s", e.Code, e.Entry, e.Detail)
	}
	return fmt.Sprintf("envelope validation: %s: %s", e.Code, e.Detail)
}

func envelopeError(code ValidationCode, detail string) *ValidationError {
	return &ValidationError{Code: code, Entry: -1, Detail: detail}
}

func entryError(code ValidationCode, index int, detail string) *ValidationError {
	return &ValidationError{Code: code, Entry: index, Detail: detail}
}

// Check validates an envelope against the compliance rules. Rules are
// evaluated in precedence order and the first failing rule wins. Check is
// pure: it never mutates the envelope and has no side effects. Any failure
// rejects the envelope as a whole.
func Check(env *Envelope) error {
	if len(env.Entries) == 0 {
		return envelopeError(CodeEmptyMeasurements, "envelope carries no entries")
	}

	if env.Version != nil && (*env.Version < 1 || *env.Version > MaxVersion) {
		return envelopeError(CodeUnsupportedVersion,
			fmt.Sprintf("version %d outside supported range [1, %d]", *env.Version, MaxVersion))
	}

	if env.BaseUnit != "" && !KnownUnit(env.BaseUnit) {
		return envelopeError(CodeUnknownBaseUnit,
			fmt.Sprintf("base unit %q is not a known unit symbol", env.BaseUnit))
	}

	for i := range env.Entries {
		if err := checkEntry(env, i); err != nil {
			return err
		}
	}

	return nil
}

// checkEntry applies the per-entry rules, in precedence order.
func checkEntry(env *Envelope, i int) error {
	entry := &env.Entries[i]

	name := entry.resolvedName(env)
	if name == "" {
		return entryError(CodeInvalidName, i, "resolved name is empty")
	}
	if strings.HasPrefix(name, "/") {
		return entryError(CodeInvalidName, i,
			fmt.Sprintf("resolved name %q starts with a path separator", name))
	}

	// Sum and Value together are explicitly allowed: the Value slot then
	// carries the instantaneous reading for the summed series. Every other
	// combination of two or more slots is ambiguous, and an entry with no
	// slot at all carries nothing to dispatch.
	slots := entry.valueSlots()
	sumWithInstant := entry.Sum != nil && entry.Value != nil &&
		entry.StringValue == nil && entry.BoolValue == nil
	if slots > 1 && !sumWithInstant {
		return entryError(CodeAmbiguousValue, i,
			fmt.Sprintf("%d value slots populated", slots))
	}
	if slots == 0 {
		return entryError(CodeAmbiguousValue, i, "no value slot populated")
	}

	if entry.Unit != "" && !KnownUnit(entry.Unit) {
		return entryError(CodeUnknownUnit, i,
			fmt.Sprintf("unit %q is not a known unit symbol", entry.Unit))
	}

	// A unit is required unless the value is boolean.
	if entry.Unit == "" && env.BaseUnit == "" && entry.BoolValue == nil {
		return entryError(CodeAllUnitsUndefined, i,
			fmt.Sprintf("no unit defined for non-boolean entry %q", name))
	}

	return nil
}
