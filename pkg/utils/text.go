package utils

import (
	"unicode"

	"github.com/aryann/difflib"
)

// TokenizeWords splits s into runs of spaces, words and punctuation, keeping every rune.
func TokenizeWords(s string) []string {
	var out []string
	var cur []rune
	kind := -1 // 0=space,1=word,2=punct
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, string(cur))
		cur = cur[:0]
	}
	for _, r := range s {
		k := 2
		switch {
		case unicode.IsSpace(r):
			k = 0
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
			k = 1
		}
		if kind == -1 {
			kind = k
		}
		if k != kind {
			flush()
			kind = k
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// WordDelta is one run of a word diff: Op is 0 for common text, -1 for removed, +1 for added.
type WordDelta struct {
	Op   int    `json:"op"`
	Text string `json:"text"`
}

// DiffWords diffs a and b word by word and merges adjacent runs with the same op.
func DiffWords(a, b string) []WordDelta {
	recs := difflib.Diff(TokenizeWords(a), TokenizeWords(b))
	out := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		var op int
		switch r.Delta {
		case difflib.LeftOnly:
			op = -1
		case difflib.RightOnly:
			op = +1
		}
		if n := len(out); n > 0 && out[n-1].Op == op {
			out[n-1].Text += r.Payload
			continue
		}
		out = append(out, WordDelta{Op: op, Text: r.Payload})
	}
	return out
}

// Changed reports whether a diff contains any insertion or removal.
func Changed(deltas []WordDelta) bool {
	for _, d := range deltas {
		if d.Op != 0 {
			return true
		}
	}
	return false
}
