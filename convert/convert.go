// Package convert rewrites Python brace-style format strings into
// percent-style named formatting.
//
// Conversion works on the raw source text between the quotes of a string
// literal, so escape sequences pass through untouched. A string is only
// converted when the mapping to percent style is unambiguous; anything
// else is reported with a reason code and left exactly as it was.
package convert

import (
	"strings"
	"unicode"

	"github.com/Samk13/i18n-invenio-formatter/report"
)

// Result is the outcome of converting one format string.
type Result struct {
	// Out is the converted text. When Changed is false it equals the input.
	Out string
	// Changed reports whether any placeholder was converted.
	Changed bool
	// Reason is non-empty when the string was flagged instead of converted.
	Reason report.Reason
}

// placeholder field kinds
const (
	fieldAnon = iota
	fieldNamed
	fieldBad
)

// Convert translates brace placeholders in body to percent style.
//
// Rules:
//   - {name} with a valid identifier becomes %(name)s.
//   - a single anonymous {} (and nothing else) becomes %s; two or more
//     anonymous placeholders, numbered placeholders, or anonymous mixed
//     with named are AMBIGUOUS_POSITIONAL.
//   - {{ and }} become literal { and }.
//   - conversion/format-spec suffixes ({x!s}, {x:>10}, {x.attr}) are
//     AMBIGUOUS_POSITIONAL.
//   - a pre-existing percent placeholder next to brace placeholders is
//     MIXED_FORMAT_STYLES; a literal % is escaped to %% on conversion.
//   - a body with no placeholders, or with unmatched single braces, is
//     returned unchanged with no reason.
func Convert(body string) Result {
	named, anon := 0, 0
	percentPlaceholder := false

	// Classification pass. Nothing is emitted until the whole string is
	// known to be convertible.
	for i := 0; i < len(body); {
		switch body[i] {
		case '{':
			if i+1 < len(body) && body[i+1] == '{' {
				i += 2
				continue
			}
			end := strings.IndexByte(body[i+1:], '}')
			if end < 0 {
				// Unmatched brace: not a format string.
				return Result{Out: body}
			}
			switch classify(body[i+1 : i+1+end]) {
			case fieldAnon:
				anon++
			case fieldNamed:
				named++
			default:
				return Result{Out: body, Reason: report.ReasonAmbiguousPositional}
			}
			i += end + 2
		case '}':
			if i+1 < len(body) && body[i+1] == '}' {
				i += 2
				continue
			}
			return Result{Out: body}
		case '%':
			if i+1 < len(body) {
				switch c := body[i+1]; {
				case c == '%':
					i += 2
					continue
				case c == '(' || isASCIILetter(c):
					percentPlaceholder = true
				}
			}
			i++
		default:
			i++
		}
	}

	if named == 0 && anon == 0 {
		return Result{Out: body}
	}
	if anon > 1 || (anon == 1 && named > 0) {
		return Result{Out: body, Reason: report.ReasonAmbiguousPositional}
	}
	if percentPlaceholder {
		return Result{Out: body, Reason: report.ReasonMixedFormatStyles}
	}

	// Rewrite pass.
	var b strings.Builder
	b.Grow(len(body) + 8)
	for i := 0; i < len(body); {
		switch body[i] {
		case '{':
			if body[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(body[i+1:], '}')
			if field := body[i+1 : i+1+end]; field == "" {
				b.WriteString("%s")
			} else {
				b.WriteString("%(" + field + ")s")
			}
			i += end + 2
		case '}':
			// Guaranteed to be the first half of }} by the first pass.
			b.WriteByte('}')
			i += 2
		case '%':
			b.WriteString("%%")
			i++
		default:
			b.WriteByte(body[i])
			i++
		}
	}

	return Result{Out: b.String(), Changed: true}
}

// classify decides what kind of placeholder a brace field is.
func classify(field string) int {
	if field == "" {
		return fieldAnon
	}

	digitsOnly := true
	for _, r := range field {
		if r < '0' || r > '9' {
			digitsOnly = false
			break
		}
	}
	if digitsOnly {
		// {0}, {1}: explicit positional indices.
		return fieldBad
	}

	for i, r := range field {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		// !conversion, :spec, attribute/index access, or anything else.
		return fieldBad
	}
	return fieldNamed
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
