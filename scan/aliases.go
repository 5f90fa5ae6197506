package scan

import "strings"

// translationNames are the invenio_i18n exports that wrap translatable
// strings.
var translationNames = map[string]bool{
	"gettext":      true,
	"lazy_gettext": true,
}

// Aliases returns the local names under which gettext or lazy_gettext are
// imported from invenio_i18n in src, in source order. Both plain imports
// and "as" aliases are recognized, including parenthesized and
// backslash-continued import lists:
//
//	from invenio_i18n import gettext as _
//	from invenio_i18n import (gettext as _, lazy_gettext)
func Aliases(src string) []string {
	var out []string
	seen := make(map[string]bool)

	lines := strings.Split(src, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			i++
			line = strings.TrimSuffix(line, "\\") + " " + strings.TrimSpace(lines[i])
		}

		rest, ok := strings.CutPrefix(line, "from invenio_i18n import")
		if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t' && rest[0] != '(') {
			continue
		}
		rest = strings.TrimSpace(rest)

		if idx := strings.IndexByte(rest, '#'); idx >= 0 {
			rest = rest[:idx]
		}

		if strings.HasPrefix(rest, "(") {
			for !strings.Contains(rest, ")") && i+1 < len(lines) {
				i++
				next := strings.TrimSpace(lines[i])
				if idx := strings.IndexByte(next, '#'); idx >= 0 {
					next = next[:idx]
				}
				rest += " " + next
			}
			rest = strings.TrimPrefix(rest, "(")
			rest = strings.ReplaceAll(rest, ")", "")
		}

		for _, item := range strings.Split(rest, ",") {
			fields := strings.Fields(item)
			var alias string
			switch {
			case len(fields) == 1 && translationNames[fields[0]]:
				alias = fields[0]
			case len(fields) == 3 && fields[1] == "as" && translationNames[fields[0]]:
				alias = fields[2]
			default:
				continue
			}
			if !seen[alias] {
				seen[alias] = true
				out = append(out, alias)
			}
		}
	}

	return out
}
