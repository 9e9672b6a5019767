package senml

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	// KindNumber is a floating point reading.
	KindNumber ValueKind = iota
	// KindText is a string reading.
	KindText
	// KindBoolean is a boolean reading.
	KindBoolean
	// KindSum is an accumulated total, optionally paired with an
	// instantaneous reading.
	KindSum
)

// String returns the string representation of ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	case KindSum:
		return "sum"
	default:
		return "unknown"
	}
}

// Value is the tagged union carried by a canonical record. Exactly one
// variant is populated, selected by Kind. For KindSum, Sum holds the
// accumulated total and Instant optionally holds the paired instantaneous
// reading.
type Value struct {
	Kind    ValueKind
	Number  float64
	Text    string
	Bool    bool
	Sum     float64
	Instant *float64
}

// NumberValue builds a number-kind Value.
func NumberValue(v float64) Value { return Value{Kind: KindNumber, Number: v} }

// TextValue builds a text-kind Value.
func TextValue(v string) Value { return Value{Kind: KindText, Text: v} }

// BoolValue builds a boolean-kind Value.
func BoolValue(v bool) Value { return Value{Kind: KindBoolean, Bool: v} }

// SumValue builds a sum-kind Value with an optional instantaneous reading.
func SumValue(total float64, instant *float64) Value {
	return Value{Kind: KindSum, Sum: total, Instant: instant}
}

// Record is a single fully resolved measurement. Name is the sensor id the
// registry indexes on, Time is absolute seconds since the epoch, and Unit is
// empty only for boolean-valued records. Records are immutable once built.
type Record struct {
	Name  string
	Unit  string
	Time  int64
	Value Value
}

// Canonicalize expands an envelope into one self-contained record per entry.
// It must only be called on an envelope that passed Check.
//
// Resolution rules:
//   - name: base prefix concatenated with the entry name
//   - unit: entry unit, falling back to the base unit
//   - time: entry offset added to the base time (default 0); without an
//     entry offset the base time alone; without either, the current
//     wall-clock time ("approximately now" - intentionally best-effort,
//     which makes canonicalization non-idempotent for such entries)
//   - value: sum (with optional instant from the number slot) over number
//     over text over boolean
func Canonicalize(env *Envelope) []Record {
	records := make([]Record, 0, len(env.Entries))
	for i := range env.Entries {
		records = append(records, canonicalizeEntry(env, &env.Entries[i]))
	}
	return records
}

func canonicalizeEntry(env *Envelope, entry *Entry) Record {
	unit := entry.Unit
	if unit == "" {
		unit = env.BaseUnit
	}

	return Record{
		Name:  entry.resolvedName(env),
		Unit:  unit,
		Time:  resolveTime(env, entry),
		Value: resolveValue(entry),
	}
}

// resolveTime computes the absolute timestamp for an entry.
func resolveTime(env *Envelope, entry *Entry) int64 {
	base := int64(0)
	if env.BaseTime != nil {
		base = *env.BaseTime
	}
	if entry.Time != nil {
		return base + *entry.Time
	}
	if env.BaseTime != nil {
		return base
	}
	return timeNow().Unix()
}

// resolveValue selects the value variant by the fixed precedence
// sum > number > text > boolean. Sum absorbs the number slot as its
// instantaneous reading when both are present.
func resolveValue(entry *Entry) Value {
	switch {
	case entry.Sum != nil:
		return SumValue(*entry.Sum, entry.Value)
	case entry.Value != nil:
		return NumberValue(*entry.Value)
	case entry.StringValue != nil:
		return TextValue(*entry.StringValue)
	default:
		return BoolValue(entry.BoolValue != nil && *entry.BoolValue)
	}
}

// EncodeRecords reconstructs an envelope from canonical records. The result
// carries no shared defaults: every entry is self-contained with an absolute
// time, so re-canonicalizing it yields the same records.
func EncodeRecords(records []Record) *Envelope {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entry := Entry{
			Name: rec.Name,
			Unit: rec.Unit,
			Time: Int64(rec.Time),
		}
		switch rec.Value.Kind {
		case KindNumber:
			entry.Value = Float64(rec.Value.Number)
		case KindText:
			entry.StringValue = String(rec.Value.Text)
		case KindBoolean:
			entry.BoolValue = Bool(rec.Value.Bool)
		case KindSum:
			entry.Sum = Float64(rec.Value.Sum)
			if rec.Value.Instant != nil {
				entry.Value = Float64(*rec.Value.Instant)
			}
		}
		entries = append(entries, entry)
	}
	return &Envelope{Entries: entries}
}
