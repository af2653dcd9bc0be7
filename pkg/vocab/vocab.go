// Package vocab rewrites transcripts using the user's ordered
// vocabulary table.
//
// Substitution is sequential: each entry applies to the output of the
// previous one, so a later entry can match text introduced by an
// earlier entry's written form. Conflicts between overlapping entries
// resolve purely by table order. Downstream tooling relies on this
// exact behavior, so it must not be replaced with simultaneous
// application against the original string.
package vocab

import (
	"regexp"
	"strings"

	"github.com/audiobash/voicepipe/pkg/model"
)

// Apply rewrites transcript per the table. An empty table is the
// identity transformation.
func Apply(table model.VocabularyTable, transcript string) string {
	out := transcript
	for _, entry := range table {
		out = replacePhrase(out, entry.Spoken, entry.Written)
	}
	return out
}

// replacePhrase substitutes every case-insensitive whole-phrase match
// of spoken with written. Blank or unmatchable spoken forms leave the
// text untouched.
func replacePhrase(text, spoken, written string) string {
	spoken = strings.TrimSpace(spoken)
	if spoken == "" {
		return text
	}

	pattern, err := phrasePattern(spoken)
	if err != nil {
		return text
	}
	return pattern.ReplaceAllLiteralString(text, written)
}

// phrasePattern builds a case-insensitive matcher for the spoken form.
// Word boundaries are applied only where the phrase itself starts or
// ends with a word character, so punctuation-heavy entries still match.
func phrasePattern(spoken string) (*regexp.Regexp, error) {
	var builder strings.Builder
	builder.WriteString("(?i)")
	if startsWithWordChar(spoken) {
		builder.WriteString(`\b`)
	}
	builder.WriteString(regexp.QuoteMeta(spoken))
	if endsWithWordChar(spoken) {
		builder.WriteString(`\b`)
	}
	return regexp.Compile(builder.String())
}

func startsWithWordChar(s string) bool {
	return len(s) > 0 && isWordChar(rune(s[0]))
}

func endsWithWordChar(s string) bool {
	return len(s) > 0 && isWordChar(rune(s[len(s)-1]))
}

func isWordChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}

// WrittenForms lists the distinct written forms of the table, in table
// order. Provider calls that accept a hint prompt use these as
// expected-term hints.
func WrittenForms(table model.VocabularyTable) []string {
	if len(table) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(table))
	forms := make([]string, 0, len(table))
	for _, entry := range table {
		written := strings.TrimSpace(entry.Written)
		if written == "" {
			continue
		}
		if _, dup := seen[written]; dup {
			continue
		}
		seen[written] = struct{}{}
		forms = append(forms, written)
	}
	if len(forms) == 0 {
		return nil
	}
	return forms
}
