package model

import "strings"

// VocabularyEntry is one spoken-form to written-form substitution rule.
type VocabularyEntry struct {
	Spoken  string `mapstructure:"spoken" json:"spoken"`
	Written string `mapstructure:"written" json:"written"`
}

// VocabularyTable is an ordered list of substitution rules. Order is
// significant: entries apply top to bottom, each against the output of
// the previous one, and the earliest entry wins on overlapping matches.
type VocabularyTable []VocabularyEntry

// Compact returns the table without entries whose spoken form is blank.
func (t VocabularyTable) Compact() VocabularyTable {
	if len(t) == 0 {
		return nil
	}
	out := make(VocabularyTable, 0, len(t))
	for _, entry := range t {
		if strings.TrimSpace(entry.Spoken) == "" {
			continue
		}
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// CustomInstructions is the user-configured bundle read once per
// request. Replaced wholesale on settings save; never mutated by the
// pipeline.
type CustomInstructions struct {
	RawModeInstructions   string
	AgentModeInstructions string
	Vocabulary            VocabularyTable
}

// Clone deep-copies the bundle so an in-flight request keeps its own
// snapshot across a concurrent settings save.
func (c CustomInstructions) Clone() CustomInstructions {
	cloned := c
	if len(c.Vocabulary) > 0 {
		cloned.Vocabulary = append(VocabularyTable(nil), c.Vocabulary...)
	} else {
		cloned.Vocabulary = nil
	}
	return cloned
}
