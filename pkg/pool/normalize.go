package pool

import (
	"regexp"
	"strings"
)

var (
	headingRe       = regexp.MustCompile(`== (.+?) ==`)
	parenRe         = regexp.MustCompile(`\(.+?\)`)
	fullwidthParens = regexp.MustCompile(`（.+?）`)
	bracketRe       = regexp.MustCompile(`【.+?】`)
	trailingText    = regexp.MustCompile(`。.*$`)
	leadingLabel    = regexp.MustCompile(`^.+? -`)
	trailingCopula  = regexp.MustCompile(`(のこと|をいう|である)+$`)
)

// NormalizeMeaning strips dictionary markup from a meaning text: section
// headings, parenthesized asides, leading entry labels, everything after the
// first full stop and trailing copula phrases.
func NormalizeMeaning(input string) string {
	meaning := headingRe.ReplaceAllString(input, "$1")
	meaning = parenRe.ReplaceAllString(meaning, "")
	meaning = fullwidthParens.ReplaceAllString(meaning, "")
	meaning = bracketRe.ReplaceAllString(meaning, "")
	meaning = trailingText.ReplaceAllString(meaning, "")
	meaning = leadingLabel.ReplaceAllString(meaning, "")
	meaning = trailingCopula.ReplaceAllString(meaning, "")
	meaning = strings.ReplaceAll(meaning, "，", "、")
	meaning = strings.ReplaceAll(meaning, "．", "。")
	return strings.TrimSpace(meaning)
}
