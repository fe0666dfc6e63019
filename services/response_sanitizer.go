package services

import (
	"log"
	"math/rand"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"reframe/models"
)

const (
	maxResponseRunes = 1000
	hardCutRunes     = 990
	minResponseRunes = 100
)

var (
	roleLabelPattern = regexp.MustCompile(`(?im)^[ \t]*(?:therapist|ai|assistant|counselor|response|message)[ \t]*:[ \t]*`)
	greetingPattern  = regexp.MustCompile(`(?i)^(?:hello|hi|hey)[,.][ \t]*`)
	spacesPattern    = regexp.MustCompile(`[ \t]{2,}`)

	onsetPatterns    = foldPatterns(therapeuticOnsets)
	leakPatterns     = foldPatterns(instructionLeaks)
	fragmentPatterns = foldPatterns(instructionFragments)
	fillerPatterns   = sentencePatterns(fillerPhrases)

	ivebeenPattern = regexp.MustCompile(`(?i)\bI've been\b`)
	inMyPattern    = regexp.MustCompile(`(?i)\bin my\b`)
	myPattern      = regexp.MustCompile(`(?i)\bmy\b`)
	familyPattern  = regexp.MustCompile(`(?i)\bfamily\b`)
)

// markdownRules run in order; list markers must go before emphasis so a
// leading "* " is not read as an opening asterisk.
var markdownRules = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile("(?m)^[ \t]*```[^\n]*\n?"), ""},
	{regexp.MustCompile("```"), ""},
	{regexp.MustCompile("`([^`\n]*)`"), "$1"},
	{regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`), "$1"},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`), "$1"},
	{regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*(?:[-*_][ \t]*){3,}$`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`), ""},
	{regexp.MustCompile(`\*\*([^*\n]+)\*\*`), "$1"},
	{regexp.MustCompile(`__([^_\n]+)__`), "$1"},
	{regexp.MustCompile(`\*([^*\n]+)\*`), "$1"},
	{regexp.MustCompile(`\b_([^_\n]+)_\b`), "$1"},
}

// ResponseSanitizer turns a raw model completion into a reply that is safe
// to show. It never fails: unusable output is replaced by a canned reply.
type ResponseSanitizer struct {
	fallback   *FallbackGenerator
	pickOpener func(n int) int
}

// SanitizerOption customizes a ResponseSanitizer.
type SanitizerOption func(*ResponseSanitizer)

// WithOpenerPicker replaces the random choice of conversational opener.
func WithOpenerPicker(pick func(n int) int) SanitizerOption {
	return func(s *ResponseSanitizer) {
		s.pickOpener = pick
	}
}

// NewResponseSanitizer creates a sanitizer falling back to fallback.
func NewResponseSanitizer(fallback *FallbackGenerator, opts ...SanitizerOption) *ResponseSanitizer {
	s := &ResponseSanitizer{fallback: fallback, pickOpener: rand.Intn}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sanitize runs the cleanup passes over rawText in order. The returned text
// is never empty and at most 1000 characters long. UsedFallback is set when
// the reply narrates first-person experience or comes out too short.
func (s *ResponseSanitizer) Sanitize(rawText, originalUserInput string) models.SanitizationResult {
	input := strings.TrimSpace(normalizeQuotes(originalUserInput))
	echo := echoPattern(input)
	text := rawText

	// Drop the echoed thought, role labels and anything before the reply proper.
	text = stripEcho(text, echo)
	text = roleLabelPattern.ReplaceAllString(text, "")
	if idx := findTherapeuticOnset(text); idx > 0 {
		text = text[idx:]
	}

	// A reply that opens by telling its own life story is unusable unless a
	// proper reply starts later on.
	if narratesFirstPerson(leadingSentences(text, 2)) {
		idx := findTherapeuticOnset(text)
		if idx < 0 {
			return s.fallbackResult(originalUserInput, "first-person narrative with no therapeutic onset")
		}
		text = text[idx:]
	}

	// Prompt leakage, formatting and instruction residue.
	text = removeAll(text, leakPatterns)
	if echo != nil {
		text = echo.ReplaceAllString(text, "")
	}
	text = stripMarkdown(text)
	text = removeAll(text, fragmentPatterns)

	if stillFirstPerson(text) {
		return s.fallbackResult(originalUserInput, "first-person narrative after cleanup")
	}

	// Filler, meta commentary and greetings.
	text = removeAll(text, fillerPatterns)
	text = trimLeadingPunct(dropMetaLines(text))
	text = capitalizeFirst(greetingPattern.ReplaceAllString(text, ""))
	text = trimLeadingPunct(spacesPattern.ReplaceAllString(text, " "))
	text = s.withOpener(text)

	// Final shape: never empty, never longer than the cap, never too short.
	text = strings.TrimSpace(text)
	if text == "" {
		text = safeDefaultReply
	}
	text = capLength(text)

	if utf8.RuneCountInString(text) < minResponseRunes {
		return s.fallbackResult(originalUserInput, "reply too short")
	}
	return models.SanitizationResult{Text: text}
}

func (s *ResponseSanitizer) fallbackResult(userInput, reason string) models.SanitizationResult {
	log.Printf("WARN: [ResponseSanitizer] Using fallback reply: %s.", reason)
	return models.SanitizationResult{Text: s.fallback.Fallback(userInput), UsedFallback: true}
}

// withOpener prepends a conversational opener unless the reply already has one.
func (s *ResponseSanitizer) withOpener(text string) string {
	if text == "" {
		return text
	}
	lower := strings.ToLower(normalizeQuotes(text))
	for _, marker := range openerMarkers {
		if strings.HasPrefix(lower, marker) {
			return text
		}
	}
	for _, marker := range openerAnywhereMarkers {
		if strings.Contains(lower, marker) {
			return text
		}
	}
	return conversationalOpeners[s.pickOpener(len(conversationalOpeners))] + " " + text
}

// echoPattern matches the user's input inside a reply, whatever quotes the
// model used. It is nil for empty input.
func echoPattern(input string) *regexp.Regexp {
	if input == "" {
		return nil
	}
	return regexp.MustCompile(quoteTolerant(regexp.QuoteMeta(input)))
}

// stripEcho keeps only what follows the first copy of the user's input.
func stripEcho(text string, echo *regexp.Regexp) string {
	if echo == nil {
		return text
	}
	if loc := echo.FindStringIndex(text); loc != nil {
		return text[loc[1]:]
	}
	return text
}

// findTherapeuticOnset returns the byte offset of the earliest onset phrase, or -1.
func findTherapeuticOnset(text string) int {
	best := -1
	for _, p := range onsetPatterns {
		if loc := p.FindStringIndex(text); loc != nil && (best < 0 || loc[0] < best) {
			best = loc[0]
		}
	}
	return best
}

func narratesFirstPerson(opening string) bool {
	lowered := strings.ToLower(normalizeQuotes(opening))
	for _, indicator := range firstPersonIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}

func stillFirstPerson(text string) bool {
	text = normalizeQuotes(text)
	return ivebeenPattern.MatchString(text) ||
		inMyPattern.MatchString(text) ||
		(myPattern.MatchString(text) && familyPattern.MatchString(text))
}

func removeAll(text string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		text = p.ReplaceAllString(text, "")
	}
	return text
}

func stripMarkdown(text string) string {
	for _, rule := range markdownRules {
		text = rule.pattern.ReplaceAllString(text, rule.repl)
	}
	return text
}

// dropMetaLines removes meta-commentary lines and joins the rest into one paragraph.
func dropMetaLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || hasAnyPrefix(strings.ToLower(normalizeQuotes(trimmed)), metaLinePrefixes) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, " ")
}

// trimLeadingPunct drops separators left at the start by earlier removals.
func trimLeadingPunct(text string) string {
	return strings.TrimLeft(text, " \t,;:")
}

func capitalizeFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || !unicode.IsLower(r) {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// capLength cuts text after the last sentence end that fits in
// maxResponseRunes, or hard-cuts it with an ellipsis when none does.
func capLength(text string) string {
	runes := []rune(text)
	if len(runes) <= maxResponseRunes {
		return text
	}
	for i := maxResponseRunes - 1; i >= 0; i-- {
		if r := runes[i]; r == '.' || r == '!' || r == '?' {
			return string(runes[:i+1])
		}
	}
	return string(runes[:hardCutRunes]) + "..."
}
