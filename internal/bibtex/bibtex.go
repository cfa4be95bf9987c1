// Package bibtex reads and writes the bibliography store, a single .bib
// file that is the system's source of truth.
package bibtex

import (
	"fmt"
	"strings"

	"github.com/westendlab/pubbib/internal/reference"
)

// Entry is one BibTeX entry. Field names are lowercase; values are
// stored as they appear between the braces, already LaTeX-escaped.
type Entry struct {
	Type   string            // article, inproceedings, phdthesis, ...
	Key    string            // citation key
	Fields map[string]string // field name -> value
}

// fieldOrder is the canonical serialization order. Fields not listed
// here are appended alphabetically so output stays deterministic.
var fieldOrder = []string{
	"author",
	"title",
	"journal",
	"booktitle",
	"year",
	"volume",
	"number",
	"pages",
	"month",
	"doi",
	"pmid",
	"pmcid",
	"abstract",
	"optnote",
}

// FromReference builds a BibTeX entry from a reference draft. The entry
// key is taken from ref.ID and may still be empty for unmerged drafts.
func FromReference(ref reference.Reference) *Entry {
	fields := make(map[string]string)

	if len(ref.Authors) > 0 {
		fields["author"] = FormatAuthors(ref.Authors)
	}
	if ref.Title != "" {
		fields["title"] = EscapeLatex(ref.Title)
	}
	if ref.Journal != "" {
		fields["journal"] = EscapeLatex(ref.Journal)
	}
	if ref.Published.Year > 0 {
		fields["year"] = fmt.Sprintf("%d", ref.Published.Year)
	}
	if ref.Volume != "" {
		fields["volume"] = ref.Volume
	}
	if ref.Issue != "" {
		fields["number"] = ref.Issue
	}
	if ref.Pages != "" {
		fields["pages"] = ref.Pages
	}
	if ref.Published.Month > 0 {
		fields["month"] = fmt.Sprintf("%d", ref.Published.Month)
	}
	if ref.DOI != "" {
		fields["doi"] = ref.DOI
	}
	if ref.PMID != "" {
		fields["pmid"] = ref.PMID
	}
	if ref.PMCID != "" {
		fields["pmcid"] = ref.PMCID
	}
	if ref.Abstract != "" {
		fields["abstract"] = EscapeLatex(ref.Abstract)
	}
	if ref.Tag != "" {
		fields["optnote"] = ref.Tag
	}

	return &Entry{
		Type:   "article",
		Key:    ref.ID,
		Fields: fields,
	}
}

// Field returns a field value with surrounding whitespace removed.
func (e *Entry) Field(name string) string {
	return strings.TrimSpace(e.Fields[name])
}

// PMID returns the entry's PubMed identifier, or "".
func (e *Entry) PMID() string {
	return e.Field("pmid")
}

// FormatAuthors formats authors in BibTeX style: "Last, First and Last, First".
func FormatAuthors(authors []reference.Author) string {
	formatted := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.First != "" {
			formatted = append(formatted, fmt.Sprintf("%s, %s", a.Last, a.First))
		} else {
			formatted = append(formatted, a.Last)
		}
	}
	return strings.Join(formatted, " and ")
}

// EscapeLatex escapes special LaTeX characters in free-text fields.
func EscapeLatex(s string) string {
	// & must come first so later escapes cannot produce a bare &
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
