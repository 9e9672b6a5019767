package senml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeBaseExpansion(t *testing.T) {
	raw := []byte(`{
		"bn": "x/", "bu": "degC", "bt": 100,
		"e": [
			{"n": "in", "t": -20, "v": 20.2},
			{"n": "out", "t": -10, "v": -8.8}
		]
	}`)
	env, err := DecodeJSON(raw)
	require.NoError(t, err)
	require.NoError(t, Check(env))

	records := Canonicalize(env)
	require.Len(t, records, 2)

	assert.Equal(t, "x/in", records[0].Name)
	assert.Equal(t, "degC", records[0].Unit)
	assert.Equal(t, int64(80), records[0].Time)
	assert.Equal(t, KindNumber, records[0].Value.Kind)
	assert.Equal(t, 20.2, records[0].Value.Number)

	assert.Equal(t, "x/out", records[1].Name)
	assert.Equal(t, "degC", records[1].Unit)
	assert.Equal(t, int64(90), records[1].Time)
	assert.Equal(t, -8.8, records[1].Value.Number)
}

func TestCanonicalizeUnitPrecedence(t *testing.T) {
	env := &Envelope{
		BaseUnit: "degC",
		Entries: []Entry{
			{Name: "a", Value: Float64(1)},
			{Name: "b", Unit: "%RH", Value: Float64(2)},
		},
	}
	require.NoError(t, Check(env))

	records := Canonicalize(env)
	require.Len(t, records, 2)
	assert.Equal(t, "degC", records[0].Unit)
	assert.Equal(t, "%RH", records[1].Unit)
}

func TestCanonicalizeTimeResolution(t *testing.T) {
	fixed := time.Unix(5000, 0)
	restore := timeNow
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = restore }()

	env := &Envelope{
		BaseTime: Int64(1000),
		BaseUnit: "degC",
		Entries: []Entry{
			{Name: "offset", Time: Int64(-250), Value: Float64(1)},
			{Name: "base-only", Value: Float64(2)},
		},
	}
	require.NoError(t, Check(env))

	records := Canonicalize(env)
	require.Len(t, records, 2)
	assert.Equal(t, int64(750), records[0].Time)
	assert.Equal(t, int64(1000), records[1].Time)

	// Without a base time, an entry time stands alone and an absent time
	// is stamped with the receiver clock.
	bare := &Envelope{
		BaseUnit: "degC",
		Entries: []Entry{
			{Name: "absolute", Time: Int64(4321), Value: Float64(1)},
			{Name: "stamped", Value: Float64(2)},
		},
	}
	require.NoError(t, Check(bare))
	records = Canonicalize(bare)
	require.Len(t, records, 2)
	assert.Equal(t, int64(4321), records[0].Time)
	assert.Equal(t, fixed.Unix(), records[1].Time)
}

func TestCanonicalizeValueKinds(t *testing.T) {
	env := &Envelope{
		BaseUnit: "degC",
		Entries: []Entry{
			{Name: "n", Value: Float64(1.5)},
			{Name: "s", StringValue: String("open")},
			{Name: "b", BoolValue: Bool(true)},
			{Name: "sum", Sum: Float64(900), Value: Float64(12)},
		},
	}
	require.NoError(t, Check(env))

	records := Canonicalize(env)
	require.Len(t, records, 4)

	assert.Equal(t, KindNumber, records[0].Value.Kind)
	assert.Equal(t, 1.5, records[0].Value.Number)

	assert.Equal(t, KindText, records[1].Value.Kind)
	assert.Equal(t, "open", records[1].Value.Text)

	assert.Equal(t, KindBoolean, records[2].Value.Kind)
	assert.True(t, records[2].Value.Bool)

	assert.Equal(t, KindSum, records[3].Value.Kind)
	assert.Equal(t, 900.0, records[3].Value.Sum)
	require.NotNil(t, records[3].Value.Instant)
	assert.Equal(t, 12.0, *records[3].Value.Instant)
}

func TestEncodeRecordsRoundTrip(t *testing.T) {
	records := []Record{
		{Name: "x/in", Unit: "degC", Time: 80, Value: NumberValue(20.2)},
		{Name: "x/door", Unit: "", Time: 90, Value: BoolValue(true)},
		{Name: "x/meter", Unit: "J", Time: 95, Value: SumValue(1500, Float64(42))},
	}

	env := EncodeRecords(records)
	// Canonical envelopes carry no base fields; everything is explicit.
	assert.Empty(t, env.BasePrefix)
	assert.Empty(t, env.BaseUnit)
	assert.Nil(t, env.BaseTime)

	again := Canonicalize(env)
	require.Len(t, again, len(records))
	for i := range records {
		assert.Equal(t, records[i].Name, again[i].Name)
		assert.Equal(t, records[i].Unit, again[i].Unit)
		assert.Equal(t, records[i].Time, again[i].Time)
		assert.Equal(t, records[i].Value.Kind, again[i].Value.Kind)
	}
	assert.Equal(t, 1500.0, again[2].Value.Sum)
	assert.Equal(t, 42.0, *again[2].Value.Instant)
}
