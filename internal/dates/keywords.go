package dates

import (
	"regexp"
	"strings"
)

// Keyword order matters: at a given position the first keyword that
// completes a match wins
var (
	// MFGKeywords label a manufacturing date
	MFGKeywords = []string{"MFG", "MANUFACTURE", "MADE ON", "PRODUCTION", "MFD", "PRO", "PRO:"}

	// EXPKeywords label an expiry date
	EXPKeywords = []string{"EXP", "EXPIRY", "EXP.", "BEST BEFORE", "USE BY", "BBE"}
)

// Vocabulary is the keyword configuration of a Resolver
type Vocabulary struct {
	MFG []string
	EXP []string
}

// DefaultVocabulary returns the retail-label keywords
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		MFG: append([]string(nil), MFGKeywords...),
		EXP: append([]string(nil), EXPKeywords...),
	}
}

// keywordRegexp builds "(?:K1|K2|...)\s*[:.]?\s*(DATE)". With optionalDate a
// bare keyword still matches. No keywords yields nil
func keywordRegexp(keywords []string, optionalDate bool) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(k))
	}
	if len(quoted) == 0 {
		return nil
	}

	pattern := `(?:` + strings.Join(quoted, "|") + `)\s*[:\.]?\s*(` + datePattern + `)`
	if optionalDate {
		pattern += "?"
	}
	return regexp.MustCompile(pattern)
}
