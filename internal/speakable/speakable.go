// Package speakable prepares response text for speech synthesis.
//
// LLM answers arrive as markdown with code blocks, URLs, and symbols
// that sound wrong when read aloud. [Clean] is a deterministic regex
// pass that strips or verbalizes them; [Rewriter] asks the LLM for a
// natural-speech rewrite and falls back to Clean, so the output is
// always speakable no matter what fails.
package speakable

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// codeBlockPhrase replaces fenced code blocks. Reading code aloud
// character by character is worse than acknowledging it exists.
const codeBlockPhrase = "Here's a code example you can check on screen."

// fallbackPhrase is spoken when cleaning strips everything away.
const fallbackPhrase = "I have an answer for you on screen."

var (
	codeBlockRe  = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	urlRe        = regexp.MustCompile(`https?://\S+`)
	headingRe    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	boldRe       = regexp.MustCompile(`\*\*([^*]*)\*\*|__([^_]*)__`)
	italicRe     = regexp.MustCompile(`\*([^*]*)\*|\b_([^_]*)_\b`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	extensionRe  = regexp.MustCompile(`\.(jsx?|tsx?|json|ya?ml|css|html|md|go|py|rs|sh|env)\b`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// symbolWords verbalizes symbols that speech engines skip or mangle.
var symbolWords = strings.NewReplacer(
	"&", " and ",
	"@", " at ",
	"#", " hash ",
	"$", " dollar ",
	"%", " percent ",
	"~", " about ",
)

// Clean converts markdown response text into plain speakable prose.
// Total and deterministic: non-empty input always yields non-empty
// output free of markdown control characters.
func Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	s := codeBlockRe.ReplaceAllString(text, " "+codeBlockPhrase+" ")
	s = inlineCodeRe.ReplaceAllString(s, "$1")
	s = urlRe.ReplaceAllString(s, "link")
	s = headingRe.ReplaceAllString(s, "")
	s = boldRe.ReplaceAllString(s, "$1$2")
	s = italicRe.ReplaceAllString(s, "$1$2")
	s = bulletRe.ReplaceAllString(s, "")
	s = extensionRe.ReplaceAllString(s, " dot $1")
	s = symbolWords.Replace(s)
	s = spaceRe.ReplaceAllString(s, " ")

	s = strings.TrimSpace(s)
	if s == "" {
		return fallbackPhrase
	}
	return s
}

// Truncate cuts s to at most max bytes without splitting a UTF-8
// sequence: the cut point backs up to the nearest rune boundary.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
