package senml

import (
	"encoding/xml"
)

// XMLNamespace is the namespace of the XML envelope rendering.
const XMLNamespace = "urn:ietf:params:xml:ns:senml"

// xmlEnvelope mirrors Envelope for the XML rendering, which uses the same
// short keys as attributes.
type xmlEnvelope struct {
	XMLName    xml.Name   `xml:"senml"`
	Xmlns      string     `xml:"xmlns,attr"`
	BasePrefix string     `xml:"bn,attr,omitempty"`
	BaseUnit   string     `xml:"bu,attr,omitempty"`
	BaseTime   *int64     `xml:"bt,attr,omitempty"`
	Version    *int       `xml:"ver,attr,omitempty"`
	Entries    []xmlEntry `xml:"e"`
}

type xmlEntry struct {
	Name        string   `xml:"n,attr,omitempty"`
	Unit        string   `xml:"u,attr,omitempty"`
	Value       *float64 `xml:"v,attr,omitempty"`
	StringValue *string  `xml:"sv,attr,omitempty"`
	BoolValue   *bool    `xml:"bv,attr,omitempty"`
	Sum         *float64 `xml:"s,attr,omitempty"`
	Time        *int64   `xml:"t,attr,omitempty"`
	UpdateTime  *int64   `xml:"ut,attr,omitempty"`
}

// EncodeXML renders an envelope to its XML wire encoding.
func EncodeXML(env *Envelope) ([]byte, error) {
	out := xmlEnvelope{
		Xmlns:      XMLNamespace,
		BasePrefix: env.BasePrefix,
		BaseUnit:   env.BaseUnit,
		BaseTime:   env.BaseTime,
		Version:    env.Version,
		Entries:    make([]xmlEntry, 0, len(env.Entries)),
	}
	for _, e := range env.Entries {
		out.Entries = append(out.Entries, xmlEntry{
			Name:        e.Name,
			Unit:        e.Unit,
			Value:       e.Value,
			StringValue: e.StringValue,
			BoolValue:   e.BoolValue,
			Sum:         e.Sum,
			Time:        e.Time,
			UpdateTime:  e.UpdateTime,
		})
	}
	return xml.Marshal(out)
}

// DecodeXML parses an envelope from its XML wire encoding.
func DecodeXML(data []byte) (*Envelope, error) {
	var in xmlEnvelope
	if err := xml.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	env := &Envelope{
		BasePrefix: in.BasePrefix,
		BaseUnit:   in.BaseUnit,
		BaseTime:   in.BaseTime,
		Version:    in.Version,
		Entries:    make([]Entry, 0, len(in.Entries)),
	}
	for _, e := range in.Entries {
		env.Entries = append(env.Entries, Entry{
			Name:        e.Name,
			Unit:        e.Unit,
			Value:       e.Value,
			StringValue: e.StringValue,
			BoolValue:   e.BoolValue,
			Sum:         e.Sum,
			Time:        e.Time,
			UpdateTime:  e.UpdateTime,
		})
	}
	return env, nil
}
