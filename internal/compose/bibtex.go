package compose

import (
	"fmt"
	"strings"
	"time"

	"docfront/internal/model"
)

var bibtexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// EscapeBibTeX escapes the characters BibTeX treats specially.
func EscapeBibTeX(s string) string {
	return bibtexEscaper.Replace(s)
}

// CitationKey derives the entry key from the paper label and creation year in loc.
// Only ASCII letters, digits, '-' and '_' of the label are kept; when nothing
// remains the key falls back to the first 8 characters of the uuid.
func CitationKey(v model.PaperView, loc *time.Location) string {
	var b strings.Builder
	for _, r := range v.Label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	key := b.String()
	if key == "" {
		id := strings.ReplaceAll(v.UUID, "-", "")
		if len(id) > 8 {
			id = id[:8]
		}
		key = "paper" + id
	}
	if !v.Created.IsZero() {
		key += fmt.Sprint(v.Created.In(loc).Year())
	}
	return key
}

// RenderBibTeX renders v as a @misc entry. The year is taken in loc so it
// agrees with the displayed creation date.
func RenderBibTeX(v model.PaperView, loc *time.Location) string {
	authors := make([]string, len(v.AuthorNames))
	for i, n := range v.AuthorNames {
		authors[i] = EscapeBibTeX(n)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@misc{%s,\n", CitationKey(v, loc))
	fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(authors, " and "))
	fmt.Fprintf(&b, "  title = {{%s}},\n", EscapeBibTeX(v.Title))
	if !v.Created.IsZero() {
		fmt.Fprintf(&b, "  year = {%d},\n", v.Created.In(loc).Year())
	}
	if v.Label != "" {
		fmt.Fprintf(&b, "  note = {%s},\n", EscapeBibTeX(v.Label))
	}
	b.WriteString("}\n")
	return b.String()
}
