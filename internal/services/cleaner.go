package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinTranscriptChars       = 100
	MaxTranscriptChars       = 500000
	MinManualTranscriptChars = 50
)

// ws matches the same characters as a JavaScript \s, which RE2's \s does not.
const ws = `[\s\v\p{Z}\x{FEFF}]`

var (
	whitespaceRe       = regexp.MustCompile(ws + `+`)
	fillerRe           = regexp.MustCompile(`(?i)\b(um|uh|like|you` + ws + `+know|basically|actually|literally)\b`)
	disallowedCharRe   = regexp.MustCompile(`[^\w\s\v\p{Z}\x{FEFF}.,!?'-]`)
	spaceBeforePunctRe = regexp.MustCompile(ws + `+([.,!?])`)
	punctBeforeWordRe  = regexp.MustCompile(`([.,!?])(\w)`)
	wordRe             = regexp.MustCompile(`\w+`)
)

// maxCleanPasses bounds the fixed-point loop. Every pass after the first
// only removes characters, so real input settles in two or three passes.
const maxCleanPasses = 16

// CleanTranscript normalises raw caption text: whitespace is collapsed,
// filler words are dropped, unsupported characters are stripped,
// punctuation spacing is fixed and stutters ("the the the") are collapsed.
// The result is a fixed point: CleanTranscript(CleanTranscript(x)) equals
// CleanTranscript(x).
func CleanTranscript(raw string) string {
	out := raw
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanPass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func cleanPass(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = fillerRe.ReplaceAllString(s, "")
	s = disallowedCharRe.ReplaceAllString(s, "")
	s = spaceBeforePunctRe.ReplaceAllString(s, "$1")
	s = punctBeforeWordRe.ReplaceAllString(s, "$1 $2")
	s = collapseRepeatedWords(s)
	s = strings.TrimSpace(s)
	return whitespaceRe.ReplaceAllString(s, " ")
}

// collapseRepeatedWords replaces runs of three or more identical words
// (case-insensitive, separated only by whitespace) with the first one.
func collapseRepeatedWords(s string) string {
	locs := wordRe.FindAllStringIndex(s, -1)
	if len(locs) < 3 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for i := 0; i < len(locs); {
		word := s[locs[i][0]:locs[i][1]]
		j := i
		for j+1 < len(locs) &&
			isWhitespaceGap(s[locs[j][1]:locs[j+1][0]]) &&
			strings.EqualFold(word, s[locs[j+1][0]:locs[j+1][1]]) {
			j++
		}
		if j-i >= 2 {
			b.WriteString(s[last:locs[i][1]])
			last = locs[j][1]
		}
		i = j + 1
	}
	b.WriteString(s[last:])
	return b.String()
}

func isWhitespaceGap(gap string) bool {
	return gap != "" && whitespaceRe.FindString(gap) == gap
}

// ValidateTranscriptLength checks text against inclusive character bounds.
func ValidateTranscriptLength(text string, min, max int) error {
	n := utf8.RuneCountInString(text)
	if n < min {
		return &TranscriptTooShortError{Length: n, Min: min}
	}
	if max > 0 && n > max {
		return &TranscriptTooLongError{Length: n, Max: max}
	}
	return nil
}
