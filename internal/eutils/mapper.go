package eutils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/westendlab/pubbib/internal/reference"
)

// monthNumbers maps English month names and abbreviations to 1-12.
var monthNumbers = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// yearPattern extracts a year from free-form MedlineDate strings
// such as "2020 Spring" or "1998 Dec-1999 Jan".
var yearPattern = regexp.MustCompile(`\d{4}`)

// MapArticle converts one PubmedArticle into a Reference draft.
// The citation key (ID) is left unassigned; key generation belongs to
// the merge step, which knows the current bibliography state.
func MapArticle(a Article) reference.Reference {
	detail := a.Citation.Article

	ref := reference.Reference{
		PMID:     strings.TrimSpace(a.Citation.PMID),
		Title:    normalizeTitle(detail.Title),
		Authors:  mapAuthors(detail.AuthorList),
		Journal:  journalName(detail.Journal),
		Abstract: joinAbstract(detail.Abstract),
		Volume:   strings.TrimSpace(detail.Journal.Issue.Volume),
		Issue:    strings.TrimSpace(detail.Journal.Issue.Issue),
		Pages:    strings.TrimSpace(detail.Pagination.MedlinePgn),
		DOI:      strings.TrimSpace(a.DOI()),
		PMCID:    strings.TrimSpace(a.PMCID()),
	}

	ref.Published = mapPubDate(detail.Journal.Issue.PubDate)

	return ref
}

// normalizeTitle trims whitespace and the trailing period PubMed adds
// to article titles.
func normalizeTitle(title string) string {
	return strings.TrimSuffix(strings.TrimSpace(title), ".")
}

// journalName prefers the ISO abbreviation over the full journal title.
func journalName(j Journal) string {
	if iso := strings.TrimSpace(j.ISOAbbr); iso != "" {
		return iso
	}
	return strings.TrimSpace(j.Title)
}

// mapAuthors converts the XML author list, preserving document order.
// Entries with neither a personal nor a collective name are dropped.
func mapAuthors(list []XMLAuthor) []reference.Author {
	authors := make([]reference.Author, 0, len(list))
	for _, a := range list {
		switch {
		case a.CollectiveName != "":
			authors = append(authors, reference.Author{Last: strings.TrimSpace(a.CollectiveName)})
		case a.LastName != "":
			first := strings.TrimSpace(a.ForeName)
			if first == "" {
				first = strings.TrimSpace(a.Initials)
			}
			authors = append(authors, reference.Author{
				First: first,
				Last:  strings.TrimSpace(a.LastName),
			})
		}
	}
	return authors
}

// joinAbstract concatenates the sections of a structured abstract with
// single spaces, keeping the section text verbatim.
func joinAbstract(sections []AbstractText) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if text := strings.TrimSpace(s.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// mapPubDate parses the partial PubDate. Year-only and year+month dates
// are both valid; a missing year falls back to the MedlineDate string.
func mapPubDate(d PubDate) reference.PublicationDate {
	var pub reference.PublicationDate

	if y, err := strconv.Atoi(strings.TrimSpace(d.Year)); err == nil {
		pub.Year = y
	} else if match := yearPattern.FindString(d.MedlineDate); match != "" {
		pub.Year, _ = strconv.Atoi(match)
	}

	pub.Month = monthNumber(d.Month)

	return pub
}

// monthNumber converts a month element value (name, abbreviation, or
// number) to 1-12, or 0 when unknown.
func monthNumber(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return n
	}
	return monthNumbers[s]
}
