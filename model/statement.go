package model

import (
	"encoding/json"

	"upsolve/formatter"
)

type sectionKind int

const (
	proseSection sectionKind = iota
	examplesSection
)

// Section is one scraped statement section. Only the raw text is stored; the
// formatted HTML is derived on demand so the two variants cannot drift.
type Section struct {
	Raw  string
	kind sectionKind
}

// Prose wraps statement-like text rendered with the math formatter.
func Prose(raw string) Section { return Section{Raw: raw, kind: proseSection} }

// Examples wraps flattened sample tests rendered with the example formatter.
func Examples(raw string) Section { return Section{Raw: raw, kind: examplesSection} }

// Formatted renders the section as display HTML.
func (s Section) Formatted() string {
	if s.kind == examplesSection {
		return formatter.FormatExamples(s.Raw)
	}
	return formatter.Format(s.Raw)
}

// Empty reports whether the section carries no text.
func (s Section) Empty() bool { return s.Raw == "" }

// ScrapedProblemStatement is the normalized output of a problem page scrape.
type ScrapedProblemStatement struct {
	Title           Section
	TimeLimit       string
	MemoryLimit     string
	Statement       Section
	InputStatement  Section
	OutputStatement Section
	Examples        Section
	Note            Section
}

// statementWire is the stored/served JSON shape. Consumers pick a variant by
// the Raw/Formatted suffix.
type statementWire struct {
	TitleRaw                  string `json:"titleRaw"`
	TitleFormatted            string `json:"titleFormatted"`
	TimeLimit                 string `json:"timeLimit"`
	MemoryLimit               string `json:"memoryLimit"`
	ProblemStatementRaw       string `json:"problemStatementRaw"`
	ProblemStatementFormatted string `json:"problemStatementFormatted"`
	InputStatementRaw         string `json:"inputStatementRaw"`
	InputStatementFormatted   string `json:"inputStatementFormatted"`
	OutputStatementRaw        string `json:"outputStatementRaw"`
	OutputStatementFormatted  string `json:"outputStatementFormatted"`
	ExamplesRaw               string `json:"examplesRaw,omitempty"`
	ExamplesFormatted         string `json:"examplesFormatted,omitempty"`
	NoteRaw                   string `json:"noteRaw,omitempty"`
	NoteFormatted             string `json:"noteFormatted,omitempty"`
}

func (s ScrapedProblemStatement) MarshalJSON() ([]byte, error) {
	return json.Marshal(statementWire{
		TitleRaw:                  s.Title.Raw,
		TitleFormatted:            s.Title.Formatted(),
		TimeLimit:                 s.TimeLimit,
		MemoryLimit:               s.MemoryLimit,
		ProblemStatementRaw:       s.Statement.Raw,
		ProblemStatementFormatted: s.Statement.Formatted(),
		InputStatementRaw:         s.InputStatement.Raw,
		InputStatementFormatted:   s.InputStatement.Formatted(),
		OutputStatementRaw:        s.OutputStatement.Raw,
		OutputStatementFormatted:  s.OutputStatement.Formatted(),
		ExamplesRaw:               s.Examples.Raw,
		ExamplesFormatted:         s.Examples.Formatted(),
		NoteRaw:                   s.Note.Raw,
		NoteFormatted:             s.Note.Formatted(),
	})
}

// UnmarshalJSON restores the raw variants; formatted fields in the payload are
// ignored and recomputed on the next marshal.
func (s *ScrapedProblemStatement) UnmarshalJSON(data []byte) error {
	var w statementWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = ScrapedProblemStatement{
		Title:           Prose(w.TitleRaw),
		TimeLimit:       w.TimeLimit,
		MemoryLimit:     w.MemoryLimit,
		Statement:       Prose(w.ProblemStatementRaw),
		InputStatement:  Prose(w.InputStatementRaw),
		OutputStatement: Prose(w.OutputStatementRaw),
		Examples:        Examples(w.ExamplesRaw),
		Note:            Prose(w.NoteRaw),
	}
	return nil
}
