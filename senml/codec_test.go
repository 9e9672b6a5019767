package senml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONDistinguishesZeroFromAbsent(t *testing.T) {
	env, err := DecodeJSON([]byte(`{"bt":0,"e":[{"n":"a","v":0,"t":0}]}`))
	require.NoError(t, err)

	require.NotNil(t, env.BaseTime)
	assert.Equal(t, int64(0), *env.BaseTime)
	require.NotNil(t, env.Entries[0].Value)
	assert.Equal(t, 0.0, *env.Entries[0].Value)
	require.NotNil(t, env.Entries[0].Time)

	env, err = DecodeJSON([]byte(`{"e":[{"n":"a"}]}`))
	require.NoError(t, err)
	assert.Nil(t, env.BaseTime)
	assert.Nil(t, env.Entries[0].Value)
	assert.Nil(t, env.Entries[0].Time)
}

func TestDecodeJSONMalformed(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"e":`))
	assert.Error(t, err)
}

func TestEncodeJSONOmitsAbsentFields(t *testing.T) {
	env := &Envelope{Entries: []Entry{{Name: "a", Value: Float64(1)}}}
	data, err := EncodeJSON(env)
	require.NoError(t, err)

	s := string(data)
	assert.NotContains(t, s, `"bt"`)
	assert.NotContains(t, s, `"sv"`)
	assert.NotContains(t, s, `"bv"`)
	assert.Contains(t, s, `"n":"a"`)
	assert.Contains(t, s, `"v":1`)
}

func TestXMLRoundTrip(t *testing.T) {
	env := &Envelope{
		BasePrefix: "x/",
		BaseUnit:   "degC",
		BaseTime:   Int64(100),
		Version:    Int(1),
		Entries: []Entry{
			{Name: "in", Time: Int64(-20), Value: Float64(20.2)},
			{Name: "door", BoolValue: Bool(true)},
			{Name: "label", StringValue: String("north")},
			{Name: "meter", Unit: "J", Sum: Float64(1500)},
		},
	}

	data, err := EncodeXML(env)
	require.NoError(t, err)
	assert.Contains(t, string(data), XMLNamespace)

	decoded, err := DecodeXML(data)
	require.NoError(t, err)

	assert.Equal(t, env.BasePrefix, decoded.BasePrefix)
	assert.Equal(t, env.BaseUnit, decoded.BaseUnit)
	require.NotNil(t, decoded.BaseTime)
	assert.Equal(t, int64(100), *decoded.BaseTime)
	require.NotNil(t, decoded.Version)
	assert.Equal(t, 1, *decoded.Version)

	require.Len(t, decoded.Entries, 4)
	assert.Equal(t, "in", decoded.Entries[0].Name)
	assert.Equal(t, int64(-20), *decoded.Entries[0].Time)
	assert.Equal(t, 20.2, *decoded.Entries[0].Value)
	assert.True(t, *decoded.Entries[1].BoolValue)
	assert.Equal(t, "north", *decoded.Entries[2].StringValue)
	assert.Equal(t, 1500.0, *decoded.Entries[3].Sum)
}

func TestDecodeXMLMalformed(t *testing.T) {
	_, err := DecodeXML([]byte(`<senml xmlns="` + XMLNamespace + `"><e`))
	assert.Error(t, err)
}

func TestXMLDistinguishesZeroFromAbsent(t *testing.T) {
	xml := `<senml xmlns="` + XMLNamespace + `"><e n="a" v="0" t="0"/></senml>`
	env, err := DecodeXML([]byte(strings.TrimSpace(xml)))
	require.NoError(t, err)
	require.Len(t, env.Entries, 1)
	require.NotNil(t, env.Entries[0].Value)
	assert.Equal(t, 0.0, *env.Entries[0].Value)
	require.NotNil(t, env.Entries[0].Time)
	assert.Equal(t, int64(0), *env.Entries[0].Time)
}
