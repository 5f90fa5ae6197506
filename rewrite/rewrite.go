// Package rewrite applies placeholder conversions to Python source files
// in place.
//
// For each file the pipeline is scan → convert → edit: translation calls
// are located, their format strings converted where unambiguous, and the
// resulting (span, replacement) pairs applied in reverse offset order so
// untouched regions survive byte-for-byte. A file is only written back
// when at least one call was converted; files that produced nothing but
// error records are left exactly as they were.
package rewrite

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Samk13/i18n-invenio-formatter/convert"
	"github.com/Samk13/i18n-invenio-formatter/report"
	"github.com/Samk13/i18n-invenio-formatter/scan"
)

// Edit replaces the byte span [Start, End) with Text.
type Edit struct {
	Start, End int
	Text       string
}

// Apply applies non-overlapping edits to src in reverse offset order, so
// applying one edit never invalidates the spans of the others.
func Apply(src string, edits []Edit) string {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	for _, e := range sorted {
		src = src[:e.Start] + e.Text + src[e.End:]
	}
	return src
}

// FileResult is the outcome of processing a single file.
type FileResult struct {
	Path string
	// Rewritten reports whether the file content changed.
	Rewritten bool
	// Converted is the number of calls rewritten to percent style.
	Converted int
	// Records lists the calls that were flagged instead of converted.
	Records []report.Record
}

// Source scans one file's text and returns the rewritten text plus the
// outcome. The text comes back unchanged when no call was convertible.
// Keywords found in the file's own invenio_i18n imports are added to the
// configured set.
func Source(src, path string, keywords map[string]bool) (string, FileResult) {
	res := FileResult{Path: path}

	kws := make(map[string]bool, len(keywords)+2)
	for k := range keywords {
		kws[k] = true
	}
	for _, alias := range scan.Aliases(src) {
		kws[alias] = true
	}

	calls, problems := scan.Calls(src, kws)
	for _, p := range problems {
		res.Records = append(res.Records, report.Record{
			File:    path,
			Line:    p.Line,
			Snippet: p.Snippet,
			Reason:  report.ReasonUnparseableCall,
		})
	}

	flag := func(c scan.Call, reason report.Reason) {
		res.Records = append(res.Records, report.Record{
			File:    path,
			Line:    c.Line,
			Snippet: c.Snippet,
			Reason:  reason,
		})
	}

	var edits []Edit
	for _, call := range calls {
		if call.Lit.IsFString() {
			flag(call, report.ReasonFString)
			continue
		}

		conv := convert.Convert(call.Lit.Body)
		if conv.Reason != "" {
			flag(call, conv.Reason)
			continue
		}
		if !conv.Changed {
			continue
		}

		lit := call.Lit.Prefix + call.Lit.Quote + conv.Out + call.Lit.Quote

		if call.HasFormat {
			// Converting the literal while leaving .format() in place
			// would stop the placeholders from ever being filled, so the
			// whole chain either collapses into one call or stays as is.
			if !collapsible(src, call) {
				flag(call, report.ReasonAmbiguousPositional)
				continue
			}
			args := strings.TrimSpace(call.FormatArgs)
			text := call.Keyword + "(" + lit
			if args != "" {
				text += ", " + args
			}
			text += ")"
			edits = append(edits, Edit{Start: call.Start, End: call.FormatEnd, Text: text})
		} else {
			edits = append(edits, Edit{Start: call.Lit.Start, End: call.Lit.End, Text: lit})
		}
		res.Converted++
	}

	if len(edits) == 0 {
		return src, res
	}
	res.Rewritten = true
	return Apply(src, edits), res
}

// collapsible reports whether a call chained with .format(...) can be
// collapsed into a single translation call: the string literal must be
// the call's only argument and every .format argument must be a plain
// name=value keyword.
func collapsible(src string, call scan.Call) bool {
	between := strings.TrimSpace(src[call.Lit.End : call.End-1])
	if between != "" && between != "," {
		return false
	}
	return keywordOnlyArgs(call.FormatArgs)
}

// keywordOnlyArgs reports whether every top-level .format argument has
// the form name=value. Positional arguments and star expansion make the
// substitution order ambiguous.
func keywordOnlyArgs(args string) bool {
	parts, ok := splitTopLevel(args)
	if !ok {
		return false
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p[0] == '*' {
			return false
		}
		eq := strings.IndexByte(p, '=')
		if eq <= 0 || (eq+1 < len(p) && p[eq+1] == '=') {
			return false
		}
		if !isPyIdent(strings.TrimSpace(p[:eq])) {
			return false
		}
	}
	return true
}

// splitTopLevel splits an argument list on commas outside brackets and
// strings. Returns ok=false on unbalanced input.
func splitTopLevel(args string) ([]string, bool) {
	var parts []string
	depth := 0
	start := 0

	for i := 0; i < len(args); i++ {
		switch c := args[i]; c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, false
			}
		case '"', '\'':
			j := i + 1
			for j < len(args) {
				if args[j] == '\\' {
					j += 2
					continue
				}
				if args[j] == c {
					break
				}
				j++
			}
			if j >= len(args) {
				return nil, false
			}
			i = j
		case ',':
			if depth == 0 {
				parts = append(parts, args[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, false
	}
	parts = append(parts, args[start:])
	return parts, true
}

func isPyIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}

// File reads path, rewrites its content and, when anything changed,
// writes it back in place with the original permissions.
func File(path string, keywords map[string]bool) (FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path}, fmt.Errorf("reading %s: %w", path, err)
	}

	out, res := Source(string(data), path, keywords)
	if !res.Rewritten {
		return res, nil
	}

	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(out), mode); err != nil {
		return res, fmt.Errorf("writing %s: %w", path, err)
	}
	return res, nil
}

// Options configures a tree run.
type Options struct {
	// Keywords are the translation function names to scan for.
	Keywords []string
	// Extensions are the file extensions to process (".py").
	Extensions []string
	// ExcludeDirs are directory names skipped during traversal.
	ExcludeDirs []string
}

// Tree processes every matching source file under root sequentially, in
// traversal order, rewriting files in place. root may also be a single
// file. Per-file failures are logged and skipped; the only returned
// error is an inaccessible root path.
func Tree(root string, opts Options) (*report.Summary, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("inaccessible path %s: %w", root, err)
	}

	keywords := toSet(opts.Keywords)
	exts := toSet(opts.Extensions)
	skip := toSet(opts.ExcludeDirs)

	summary := &report.Summary{}

	processOne := func(path string) {
		res, err := File(path, keywords)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping file")
			return
		}
		summary.FilesScanned++
		summary.CallsConverted += res.Converted
		summary.Records = append(summary.Records, res.Records...)
		if res.Rewritten {
			summary.FilesChanged++
			log.Info().Str("file", path).Int("calls", res.Converted).Msg("Rewrote translation calls")
		}
	}

	if !info.IsDir() {
		processOne(root)
		return summary, nil
	}

	filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if fi.IsDir() {
			if skip[fi.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !exts[filepath.Ext(path)] {
			return nil
		}
		processOne(path)
		return nil
	})

	return summary, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
