package analysis

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// StringList is a list of strings that also accepts a bare JSON string
// (a one-element list) or null, since models do not always honour the schema.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = StringList{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

type KeyInfo struct {
	People         StringList `json:"people"`
	Organizations  StringList `json:"organizations"`
	PublicAgencies StringList `json:"public_agencies"`
	TimePeriod     string     `json:"time_period"`
}

type Flags struct {
	UnusualWording            StringList `json:"unusual_wording"`
	DiscrepanciesAndCriticism StringList `json:"discrepancies_and_criticism"`
	FinancialFigures          StringList `json:"financial_figures"`
	WarningsAndGaps           StringList `json:"warnings_and_gaps"`
	OtherFlags                StringList `json:"other_flags"`
}

// Categories returns the flag lists in presentation order.
func (f Flags) Categories() []StringList {
	return []StringList{f.UnusualWording, f.DiscrepanciesAndCriticism, f.FinancialFigures, f.WarningsAndGaps, f.OtherFlags}
}

// StructuredAnalysis is the journalistic analysis of one document (or one
// chunk of it during the map phase).
type StructuredAnalysis struct {
	SummaryPoints StringList `json:"summary_points"`
	KeyInfo       KeyInfo    `json:"key_info"`
	Flags         Flags      `json:"flags"`
}

// Empty returns the canonical all-empty analysis. Every list is non-nil so it
// marshals as [] rather than null.
func Empty() StructuredAnalysis {
	return StructuredAnalysis{
		SummaryPoints: StringList{},
		KeyInfo: KeyInfo{
			People:         StringList{},
			Organizations:  StringList{},
			PublicAgencies: StringList{},
		},
		Flags: Flags{
			UnusualWording:            StringList{},
			DiscrepanciesAndCriticism: StringList{},
			FinancialFigures:          StringList{},
			WarningsAndGaps:           StringList{},
			OtherFlags:                StringList{},
		},
	}
}

// EmptyJSON is the canonical empty analysis rendered as JSON. It stands in for
// a chunk whose analysis failed.
func EmptyJSON() string {
	b, _ := json.Marshal(Empty())
	return string(b)
}

// Normalize trims every entry, drops blanks and replaces nil lists with
// empty ones.
func (a *StructuredAnalysis) Normalize() {
	clean := func(l StringList) StringList {
		out := StringList{}
		for _, s := range l {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	a.SummaryPoints = clean(a.SummaryPoints)
	a.KeyInfo.People = clean(a.KeyInfo.People)
	a.KeyInfo.Organizations = clean(a.KeyInfo.Organizations)
	a.KeyInfo.PublicAgencies = clean(a.KeyInfo.PublicAgencies)
	a.KeyInfo.TimePeriod = strings.TrimSpace(a.KeyInfo.TimePeriod)
	a.Flags.UnusualWording = clean(a.Flags.UnusualWording)
	a.Flags.DiscrepanciesAndCriticism = clean(a.Flags.DiscrepanciesAndCriticism)
	a.Flags.FinancialFigures = clean(a.Flags.FinancialFigures)
	a.Flags.WarningsAndGaps = clean(a.Flags.WarningsAndGaps)
	a.Flags.OtherFlags = clean(a.Flags.OtherFlags)
}

// Schema is the JSON schema of StructuredAnalysis, used to request
// structured output from providers that support it.
func Schema() (*jsonschema.Definition, error) {
	return jsonschema.GenerateSchemaForType(StructuredAnalysis{})
}
