// Package senml implements the sensor measurement envelope format: the wire
// data model, the compliance checker that rejects malformed envelopes, and
// the canonicalizer that expands an envelope into fully self-contained
// records.
//
// An envelope carries shared defaults (base prefix, base unit, base time,
// version) and an ordered sequence of entries. Entries are compact: each may
// rely on the envelope defaults for its name prefix, unit and time base.
// Canonical records have no implicit defaults left.
package senml

import (
	"encoding/json"
	"time"
)

// MaxVersion is the highest envelope version this dispatcher understands.
const MaxVersion = 1

// Envelope is the wire-level batch of sensor entries plus shared defaults.
// Field keys follow the compact measurement envelope encoding.
type Envelope struct {
	BasePrefix string  `json:"bn,omitempty"`
	BaseUnit   string  `json:"bu,omitempty"`
	BaseTime   *int64  `json:"bt,omitempty"`
	Version    *int    `json:"ver,omitempty"`
	Entries    []Entry `json:"e"`
}

// Entry is a single raw measurement inside an envelope. At most one value
// slot among Value, StringValue, BoolValue and Sum may be populated, with
// one deliberate exception: Sum and Value together are allowed, the Value
// slot then carrying the instantaneous reading paired with the sum.
type Entry struct {
	Name        string   `json:"n,omitempty"`
	Unit        string   `json:"u,omitempty"`
	Value       *float64 `json:"v,omitempty"`
	StringValue *string  `json:"sv,omitempty"`
	BoolValue   *bool    `json:"bv,omitempty"`
	Sum         *float64 `json:"s,omitempty"`
	Time        *int64   `json:"t,omitempty"`
	UpdateTime  *int64   `json:"ut,omitempty"`
}

// valueSlots returns how many of the four value slots are populated.
func (e *Entry) valueSlots() int {
	n := 0
	if e.Value != nil {
		n++
	}
	if e.StringValue != nil {
		n++
	}
	if e.BoolValue != nil {
		n++
	}
	if e.Sum != nil {
		n++
	}
	return n
}

// resolvedName is the entry name with the envelope's base prefix applied.
// This is the sensor id the registry indexes on.
func (e *Entry) resolvedName(env *Envelope) string {
	return env.BasePrefix + e.Name
}

// DecodeJSON parses an envelope from its JSON wire encoding.
func DecodeJSON(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// EncodeJSON renders an envelope to its JSON wire encoding.
func EncodeJSON(env *Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// timeNow is stubbed in tests that pin the "approximately now" timestamp.
var timeNow = time.Now

// Float64 returns a pointer to v; a convenience for building entries.
func Float64(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
