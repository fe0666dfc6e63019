package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// typographicQuotes maps curly quotes to straight ones. It is only applied to
// copies used for matching; the reply keeps the model's own quotes.
var typographicQuotes = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)

func normalizeQuotes(s string) string {
	return typographicQuotes.Replace(s)
}

// quoteTolerant lets the quotes of an already escaped pattern match their
// typographic variants as well.
func quoteTolerant(pattern string) string {
	pattern = strings.ReplaceAll(pattern, "'", "['‘’]")
	return strings.ReplaceAll(pattern, `"`, `["“”]`)
}

// literalPattern is the case-insensitive, quote-tolerant pattern of phrase.
func literalPattern(phrase string) string {
	return `(?i)` + quoteTolerant(regexp.QuoteMeta(normalizeQuotes(phrase)))
}

// foldPatterns compiles one case-insensitive literal pattern per phrase.
func foldPatterns(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		patterns = append(patterns, regexp.MustCompile(literalPattern(p)))
	}
	return patterns
}

// sentencePatterns compiles, per phrase, a pattern matching the whole sentence
// around the phrase together with its terminator and trailing blanks.
func sentencePatterns(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		phrase := quoteTolerant(regexp.QuoteMeta(normalizeQuotes(p)))
		patterns = append(patterns, regexp.MustCompile(`(?i)[^.!?…\n]*`+phrase+`[^.!?…\n]*[.!?…]*[ \t]*`))
	}
	return patterns
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

// leadingSentences returns the first n sentences of text. A run of
// terminators ("...", "?!") closes one sentence, and a terminator with no
// text before it does not count.
func leadingSentences(text string, n int) string {
	count := 0
	hasContent := false
	for i, r := range text {
		switch {
		case isTerminator(r):
			if !hasContent {
				continue
			}
			count++
			hasContent = false
			if count == n {
				end := i + utf8.RuneLen(r)
				for end < len(text) {
					next, size := utf8.DecodeRuneInString(text[end:])
					if !isTerminator(next) {
						break
					}
					end += size
				}
				return text[:end]
			}
		case !unicode.IsSpace(r):
			hasContent = true
		}
	}
	return text
}
