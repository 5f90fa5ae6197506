package rewrite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Samk13/i18n-invenio-formatter/report"
)

var testKeywords = map[string]bool{"_": true, "lazy_gettext": true}

func TestApply(t *testing.T) {
	t.Parallel()

	src := "aaa bbb ccc"
	edits := []Edit{
		{Start: 0, End: 3, Text: "XX"},
		{Start: 8, End: 11, Text: "YYYY"},
	}

	if got := Apply(src, edits); got != "XX bbb YYYY" {
		t.Fatalf("Apply() = %q, want %q", got, "XX bbb YYYY")
	}
	if got := Apply(src, nil); got != src {
		t.Fatalf("Apply(no edits) = %q, want unchanged", got)
	}
}

func TestSourceConvertsNamedFields(t *testing.T) {
	t.Parallel()

	src := `msg = _("Hello {name}, you have {count} messages")` + "\n"
	want := `msg = _("Hello %(name)s, you have %(count)s messages")` + "\n"

	out, res := Source(src, "app.py", testKeywords)
	if out != want {
		t.Fatalf("Source() = %q, want %q", out, want)
	}
	if !res.Rewritten || res.Converted != 1 || len(res.Records) != 0 {
		t.Fatalf("result = %+v, want one clean conversion", res)
	}
}

func TestSourceFlagsFString(t *testing.T) {
	t.Parallel()

	src := "x = 1\nmsg = _(f\"Hello {name}\")\n"
	out, res := Source(src, "app.py", testKeywords)

	if out != src {
		t.Fatalf("f-string source was modified:\n%q", out)
	}
	if res.Rewritten {
		t.Fatalf("Rewritten = true, want false")
	}
	if len(res.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1", len(res.Records))
	}

	r := res.Records[0]
	if r.Reason != report.ReasonFString {
		t.Fatalf("Reason = %q, want %q", r.Reason, report.ReasonFString)
	}
	if r.File != "app.py" || r.Line != 2 {
		t.Fatalf("record = %+v, want app.py:2", r)
	}
}

func TestSourceFlagsAmbiguousPositional(t *testing.T) {
	t.Parallel()

	src := `msg = _("Item {} of {}")` + "\n"
	out, res := Source(src, "app.py", testKeywords)

	if out != src {
		t.Fatalf("ambiguous source was modified:\n%q", out)
	}
	if len(res.Records) != 1 || res.Records[0].Reason != report.ReasonAmbiguousPositional {
		t.Fatalf("records = %#v, want one AMBIGUOUS_POSITIONAL", res.Records)
	}
}

func TestSourceMixedResults(t *testing.T) {
	t.Parallel()

	// One convertible call, one f-string: the convertible edit still lands.
	src := `a = _("ok {x}")` + "\n" + `b = _(f"bad {y}")` + "\n"
	out, res := Source(src, "app.py", testKeywords)

	if !strings.Contains(out, `_("ok %(x)s")`) {
		t.Fatalf("convertible call not rewritten:\n%q", out)
	}
	if !strings.Contains(out, `_(f"bad {y}")`) {
		t.Fatalf("f-string call was touched:\n%q", out)
	}
	if res.Converted != 1 || len(res.Records) != 1 {
		t.Fatalf("result = %+v, want 1 conversion and 1 record", res)
	}
}

func TestSourceIdempotent(t *testing.T) {
	t.Parallel()

	src := `msg = _("Hello {name}")` + "\n" + `n = _("Item {} of {}")` + "\n"
	first, res1 := Source(src, "app.py", testKeywords)
	if !res1.Rewritten {
		t.Fatalf("first pass did not rewrite")
	}

	second, res2 := Source(first, "app.py", testKeywords)
	if second != first {
		t.Fatalf("second pass changed output:\n%q\n%q", first, second)
	}
	if res2.Rewritten || res2.Converted != 0 {
		t.Fatalf("second pass = %+v, want no conversions", res2)
	}
}

func TestSourceCollapsesFormatCall(t *testing.T) {
	t.Parallel()

	src := `msg = _("Hello {name}").format(name=user.name)` + "\n"
	want := `msg = _("Hello %(name)s", name=user.name)` + "\n"

	out, res := Source(src, "app.py", testKeywords)
	if out != want {
		t.Fatalf("Source() = %q, want %q", out, want)
	}
	if res.Converted != 1 {
		t.Fatalf("Converted = %d, want 1", res.Converted)
	}
}

func TestSourceFormatCallEdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		want   string
		reason report.Reason
	}{
		{
			name: "multiple keywords",
			src:  `_("{a} and {b}").format(a=1, b=f(x, y))`,
			want: `_("%(a)s and %(b)s", a=1, b=f(x, y))`,
		},
		{
			name: "empty format args",
			src:  `_("{a}").format()`,
			want: `_("%(a)s")`,
		},
		{
			name:   "positional format argument",
			src:    `_("{a}").format(value)`,
			reason: report.ReasonAmbiguousPositional,
		},
		{
			name:   "star expansion",
			src:    `_("{a}").format(**kwargs)`,
			reason: report.ReasonAmbiguousPositional,
		},
		{
			name:   "extra translation argument",
			src:    `_("{a}", extra).format(a=1)`,
			reason: report.ReasonAmbiguousPositional,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, res := Source(tc.src, "app.py", testKeywords)
			if tc.reason != "" {
				if out != tc.src {
					t.Fatalf("flagged source was modified:\n%q", out)
				}
				if len(res.Records) != 1 || res.Records[0].Reason != tc.reason {
					t.Fatalf("records = %#v, want one %s", res.Records, tc.reason)
				}
				return
			}
			if out != tc.want {
				t.Fatalf("Source() = %q, want %q", out, tc.want)
			}
		})
	}
}

func TestSourceUsesImportAliases(t *testing.T) {
	t.Parallel()

	src := "from invenio_i18n import lazy_gettext as _l\n\nmsg = _l(\"Hi {x}\")\n"
	out, res := Source(src, "app.py", testKeywords)

	if !strings.Contains(out, `_l("Hi %(x)s")`) {
		t.Fatalf("aliased call not rewritten:\n%q", out)
	}
	if res.Converted != 1 {
		t.Fatalf("Converted = %d, want 1", res.Converted)
	}
}

func TestSourceRecordsUnparseable(t *testing.T) {
	t.Parallel()

	src := `msg = _("never closed` + "\n"
	out, res := Source(src, "app.py", testKeywords)

	if out != src {
		t.Fatalf("unparseable source was modified")
	}
	if len(res.Records) != 1 || res.Records[0].Reason != report.ReasonUnparseableCall {
		t.Fatalf("records = %#v, want one UNPARSEABLE_CALL", res.Records)
	}
}

func TestKeywordOnlyArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args string
		want bool
	}{
		{args: "", want: true},
		{args: "a=1", want: true},
		{args: "a=1, b=call(x, y)", want: true},
		{args: `a="text, with comma"`, want: true},
		{args: "value", want: false},
		{args: "a=1, value", want: false},
		{args: "*args", want: false},
		{args: "**kwargs", want: false},
		{args: "a==b", want: false},
		{args: "a=1, (unbalanced", want: false},
	}

	for _, tc := range tests {
		if got := keywordOnlyArgs(tc.args); got != tc.want {
			t.Fatalf("keywordOnlyArgs(%q) = %v, want %v", tc.args, got, tc.want)
		}
	}
}

func TestFileRewritesInPlace(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	src := `msg = _("Hello {name}")` + "\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := File(path, testKeywords)
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}
	if !res.Rewritten {
		t.Fatalf("Rewritten = false, want true")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `msg = _("Hello %(name)s")`+"\n" {
		t.Fatalf("file content = %q", data)
	}
}

func TestFileLeavesErrorOnlyFilesUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.py")
	src := `msg = _(f"Hello {name}")` + "\n"
	if err := os.WriteFile(path, []byte(src), 0600); err != nil {
		t.Fatal(err)
	}

	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	res, err := File(path, testKeywords)
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}
	if res.Rewritten || len(res.Records) != 1 {
		t.Fatalf("result = %+v, want untouched with 1 record", res)
	}

	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if after.ModTime() != before.ModTime() || after.Size() != before.Size() {
		t.Fatalf("error-only file was rewritten")
	}
}

func TestTree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write("good.py", `m = _("Hi {x}")`+"\n")
	write("sub/bad.py", `m = _(f"Hi {x}")`+"\n")
	write("plain.py", "print('nothing to do')\n")
	write("notes.txt", `_("not python {x}")`+"\n")
	write("__pycache__/cached.py", `m = _("skip {x}")`+"\n")

	opts := Options{
		Keywords:    []string{"_"},
		Extensions:  []string{".py"},
		ExcludeDirs: []string{"__pycache__"},
	}
	summary, err := Tree(dir, opts)
	if err != nil {
		t.Fatalf("Tree() error: %v", err)
	}

	if summary.FilesScanned != 3 {
		t.Fatalf("FilesScanned = %d, want 3", summary.FilesScanned)
	}
	if summary.FilesChanged != 1 {
		t.Fatalf("FilesChanged = %d, want 1", summary.FilesChanged)
	}
	if summary.CallsConverted != 1 {
		t.Fatalf("CallsConverted = %d, want 1", summary.CallsConverted)
	}
	if len(summary.Records) != 1 || summary.Records[0].Reason != report.ReasonFString {
		t.Fatalf("Records = %#v, want one f-string record", summary.Records)
	}
	if summary.ExitCode() != 1 {
		t.Fatalf("ExitCode() = %d, want 1", summary.ExitCode())
	}

	// Excluded and non-Python files stay untouched.
	data, _ := os.ReadFile(filepath.Join(dir, "__pycache__/cached.py"))
	if string(data) != `m = _("skip {x}")`+"\n" {
		t.Fatalf("excluded file was modified: %q", data)
	}
	data, _ = os.ReadFile(filepath.Join(dir, "notes.txt"))
	if string(data) != `_("not python {x}")`+"\n" {
		t.Fatalf("non-python file was modified: %q", data)
	}
}

func TestTreeSingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "one.py")
	if err := os.WriteFile(path, []byte(`m = _("Hi {x}")`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	summary, err := Tree(path, Options{Keywords: []string{"_"}, Extensions: []string{".py"}})
	if err != nil {
		t.Fatalf("Tree() error: %v", err)
	}
	if summary.FilesChanged != 1 || summary.ExitCode() != 0 {
		t.Fatalf("summary = %+v, want 1 changed file and exit 0", summary)
	}
}

func TestTreeInaccessibleRoot(t *testing.T) {
	t.Parallel()

	if _, err := Tree(filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Fatalf("Tree(missing) error = nil, want error")
	}
}
