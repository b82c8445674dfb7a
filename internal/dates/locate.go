package dates

import (
	"iter"
	"regexp"
)

// datePattern alternatives are tried leftmost-first. Calendar validity is left to Parse
const datePattern = `\d{4}/\d{2}/\d{2}|\d{1,2}[./-]\d{1,2}[./-]\d{2,4}|\d{1,2}\s+[A-Z]{3}\s+\d{2,4}`

var dateRegexp = regexp.MustCompile(datePattern)

// Candidates lazily yields non-overlapping date-shaped substrings, left to right
func Candidates(text string) iter.Seq[Candidate] {
	return candidatesFrom(text, 0)
}

// candidatesFrom yields candidates in text[from:] with offsets into text
func candidatesFrom(text string, from int) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for offset := from; offset <= len(text); {
			loc := dateRegexp.FindStringIndex(text[offset:])
			if loc == nil {
				return
			}
			c := Candidate{
				Text:  text[offset+loc[0] : offset+loc[1]],
				Start: offset + loc[0],
				End:   offset + loc[1],
			}
			if !yield(c) {
				return
			}
			offset = c.End
		}
	}
}

// firstN collects at most n candidates
func firstN(seq iter.Seq[Candidate], n int) []Candidate {
	out := make([]Candidate, 0, n)
	for c := range seq {
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out
}

// last returns the rightmost candidate
func last(seq iter.Seq[Candidate]) (Candidate, bool) {
	var (
		found Candidate
		ok    bool
	)
	for c := range seq {
		found, ok = c, true
	}
	return found, ok
}
