// Package sanitize prepares untrusted text for placement inside an LLM prompt
//
// Character stripping is the guarantee: the returned value never contains
// any of " ' ` \ < > { }. Injection phrase detection is advisory and feeds
// security events. It is a fixed regex list over the stripped text, so
// homoglyph look-alikes and zero-width characters placed inside a phrase
// slip past it.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"trackergen/internal/core/normalize"
)

const (
	// DefaultMaxLength applies when Options.MaxLength is zero or negative
	DefaultMaxLength = 100

	// Placeholder replaces a matched injection phrase
	Placeholder = "[filtered]"

	// backtrackShare is the tail of the budget a word boundary may be searched in
	backtrackShare = 0.3
)

// Options tune a single ForPrompt call
type Options struct {
	MaxLength      int
	AllowNewlines  bool
	CheckInjection bool
}

// DefaultOptions is 100 characters, single line, injection check on
func DefaultOptions() Options {
	return Options{MaxLength: DefaultMaxLength, CheckInjection: true}
}

// Result is one sanitized value; lengths count characters (runes)
type Result struct {
	Value             string `json:"value"`
	InjectionDetected bool   `json:"injectionDetected"`
	WasTruncated      bool   `json:"wasTruncated"`
	OriginalLength    int    `json:"originalLength"`
}

// stripped is the character class that never survives sanitization
const stripped = "\"'`\\<>{}"

var stripper = strings.NewReplacer(
	`"`, " ", `'`, " ", "`", " ", `\`, " ",
	"<", " ", ">", " ", "{", " ", "}", " ",
)

// rawPatterns need the characters stripping removes, so they run on the input
var rawPatterns = []*regexp.Regexp{
	// <<SYS>> and <</SYS>>
	regexp.MustCompile(`(?i)<<\s*/?\s*SYS\s*>>`),
}

// injectionPatterns run in order over the stripped text
var injectionPatterns = []*regexp.Regexp{
	// instruction override
	regexp.MustCompile(`(?i)\b(?:ignore|forget|disregard)\s+(?:all\s+)?(?:of\s+)?(?:the\s+|your\s+)?(?:previous|above|prior|earlier)\s+(?:instructions?|prompts?|rules?)\b`),
	// role markers
	regexp.MustCompile(`(?i)\b(?:system|assistant|user)\s*:`),
	// chat template delimiters, bracket forms survive stripping
	regexp.MustCompile(`(?i)\[\s*/?\s*INST\s*\]`),
	// SYS markers that survive stripping; a bare "sys" is systolic
	regexp.MustCompile(`(?i)\[\s*/?\s*SYS\s*\]|\|\s*/?\s*SYS\s*\||#+\s*SYS\b|(?:^|\s)/\s*SYS\b`),
	// <|im_start|> style tokens after < > became spaces
	regexp.MustCompile(`(?i)\|\s*/?\s*im_(?:start|end|sep)\s*\|`),
	regexp.MustCompile(`(?i)#{2,}\s*(?:instruction|system|response)s?\b`),
}

// ForPrompt strips, collapses, checks and truncates input in that order
func ForPrompt(input string, opts Options) Result {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	res := Result{OriginalLength: utf8.RuneCountInString(input)}
	if input == "" {
		return res
	}

	s := input
	if opts.CheckInjection {
		for _, re := range rawPatterns {
			if re.MatchString(s) {
				res.InjectionDetected = true
				s = re.ReplaceAllString(s, " "+Placeholder+" ")
			}
		}
	}
	s = clean(s, opts.AllowNewlines)
	// truncation is judged on the stripped input, before placeholders grow it
	res.WasTruncated = utf8.RuneCountInString(clean(input, opts.AllowNewlines)) > opts.MaxLength

	if opts.CheckInjection {
		for _, re := range injectionPatterns {
			if re.MatchString(s) {
				res.InjectionDetected = true
				s = re.ReplaceAllString(s, " "+Placeholder+" ")
			}
		}
		if res.InjectionDetected {
			s = normalize.CollapseSpaces(s, opts.AllowNewlines)
		}
	}

	res.Value, _ = truncate(s, opts.MaxLength)
	if res.InjectionDetected {
		res.Value = dropPartialPlaceholder(res.Value)
	}
	return res
}

// dropPartialPlaceholder removes a placeholder the cut split in two
func dropPartialPlaceholder(s string) string {
	i := strings.LastIndex(s, "[")
	if i < 0 {
		return s
	}
	if tail := s[i:]; tail != Placeholder && strings.HasPrefix(Placeholder, tail) {
		return strings.TrimRightFunc(s[:i], unicode.IsSpace)
	}
	return s
}

// ExternalResponse cleans text fetched from a lookup source; no injection pass
func ExternalResponse(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	out, _ := truncate(clean(text, false), maxLength)
	return out
}

// ForPromptAll sanitizes each item with the same options
func ForPromptAll(items []string, opts Options) []Result {
	out := make([]Result, len(items))
	for i, it := range items {
		out[i] = ForPrompt(it, opts)
	}
	return out
}

// Values returns the non-empty values of rs in order
func Values(rs []Result) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		if r.Value != "" {
			out = append(out, r.Value)
		}
	}
	return out
}

// AnyInjection reports whether any result flagged an injection phrase
func AnyInjection(rs []Result) bool {
	for _, r := range rs {
		if r.InjectionDetected {
			return true
		}
	}
	return false
}

// Contains reports whether s still holds a character from the stripped class
func Contains(s string) bool { return strings.ContainsAny(s, stripped) }

func clean(s string, allowNewlines bool) string {
	s = normalize.StripControls(s)
	s = stripper.Replace(s)
	if !allowNewlines {
		s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	}
	return normalize.CollapseSpaces(s, allowNewlines)
}

// truncate cuts s to max runes, preferring the last space inside the tail 30% of the budget
func truncate(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	rs := []rune(s)
	cut := rs[:max]
	if unicode.IsSpace(rs[max]) || unicode.IsSpace(cut[max-1]) {
		return strings.TrimRightFunc(string(cut), unicode.IsSpace), true
	}
	floor := int(float64(max) * (1 - backtrackShare))
	for i := max - 1; i >= floor && i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			return strings.TrimRightFunc(string(cut[:i]), unicode.IsSpace), true
		}
	}
	return string(cut), true
}
