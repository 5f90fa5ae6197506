// Package report collects the error records and statistics produced by a
// rewrite run and renders the final summary.
//
// Errors are never fatal: the rewriter records them and keeps going, and
// the summary lists everything needing manual attention at the end. The
// process exit code reflects whether any records were collected.
package report

import (
	"fmt"
	"io"

	"github.com/Samk13/i18n-invenio-formatter/i18n"
)

// Reason identifies why a translation call could not be converted.
type Reason string

const (
	// ReasonFString marks an f-string passed to a translation call.
	// F-strings interpolate before the translation function ever sees the
	// pattern, so they must be rewritten by hand.
	ReasonFString Reason = "FSTRING_IN_TRANSLATION_CALL"

	// ReasonAmbiguousPositional marks a format string whose placeholder
	// ordering or form cannot be safely mapped to percent style.
	ReasonAmbiguousPositional Reason = "AMBIGUOUS_POSITIONAL"

	// ReasonUnparseableCall marks a call whose boundaries could not be
	// determined (unbalanced quotes, unclosed parentheses, implicit
	// string concatenation).
	ReasonUnparseableCall Reason = "UNPARSEABLE_CALL"

	// ReasonMixedFormatStyles marks a string that already contains
	// percent-style placeholders alongside brace placeholders.
	ReasonMixedFormatStyles Reason = "MIXED_FORMAT_STYLES"
)

// Record is a single flagged call that was left unmodified.
type Record struct {
	// File is the path of the source file containing the call.
	File string
	// Line is the 1-based line number of the call.
	Line int
	// Snippet is the trimmed source line, for context in the report.
	Snippet string
	// Reason is the code explaining why the call was not converted.
	Reason Reason
}

// Summary aggregates results across an entire run.
type Summary struct {
	// FilesScanned is the number of source files examined.
	FilesScanned int
	// FilesChanged is the number of files rewritten in place.
	FilesChanged int
	// CallsConverted is the number of calls rewritten to percent style.
	CallsConverted int
	// Records lists every flagged call, in traversal order.
	Records []Record
}

// Add appends a record to the summary.
func (s *Summary) Add(r Record) {
	s.Records = append(s.Records, r)
}

// Ambiguous returns the number of calls left unmodified because their
// placeholder form was ambiguous or mixed with percent style.
func (s *Summary) Ambiguous() int {
	n := 0
	for _, r := range s.Records {
		if r.Reason == ReasonAmbiguousPositional || r.Reason == ReasonMixedFormatStyles {
			n++
		}
	}
	return n
}

// ExitCode returns the process exit code for this run: 0 when every call
// was either converted or needed no conversion, 1 when any record was
// collected and manual review is required.
func (s *Summary) ExitCode() int {
	if len(s.Records) > 0 {
		return 1
	}
	return 0
}

// Write renders the human-readable summary.
func (s *Summary) Write(w io.Writer) {
	fmt.Fprintf(w, i18n.T("Scanned %d files, rewrote %d.")+"\n", s.FilesScanned, s.FilesChanged)
	fmt.Fprintf(w, i18n.N("Converted %d call.", "Converted %d calls.", s.CallsConverted)+"\n", s.CallsConverted)

	if ambiguous := s.Ambiguous(); ambiguous > 0 {
		fmt.Fprintf(w, i18n.N(
			"%d call left unmodified (ambiguous placeholders).",
			"%d calls left unmodified (ambiguous placeholders).",
			ambiguous)+"\n", ambiguous)
	}

	if len(s.Records) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, i18n.T("Errors requiring manual fixes:"))
	for _, r := range s.Records {
		fmt.Fprintf(w, "  %s:%d: %s: %s\n", r.File, r.Line, r.Reason, r.Snippet)
	}
}
