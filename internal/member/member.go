// Package member loads research-group member records from a directory of
// markdown pages with metadata headers.
package member

import (
	"regexp"
	"strings"
)

// Member represents a group member with their publication identifiers.
type Member struct {
	Name    string `json:"name"`
	ORCID   string `json:"orcid,omitempty"`    // As written in the page, may be a full URL
	PubName string `json:"pub_name,omitempty"` // Name the member publishes under, if different
	Active  bool   `json:"active"`
	Path    string `json:"path,omitempty"` // Source file, for diagnostics
}

// SearchName returns the name to use for a PubMed author query:
// the publication alias when set, the full name otherwise.
func (m Member) SearchName() string {
	if m.PubName != "" {
		return m.PubName
	}
	return m.Name
}

// orcidPattern matches the bare ORCID identifier inside any surrounding
// text (members often record the full https://orcid.org/... URL).
var orcidPattern = regexp.MustCompile(`\d{4}-\d{4}-\d{4}-\d{3}[0-9X]`)

// ORCIDID extracts the bare ORCID identifier, or "" if none is present.
func (m Member) ORCIDID() string {
	return orcidPattern.FindString(m.ORCID)
}

// MatchesName reports whether the member matches a name filter.
// Matching is a case-insensitive substring test so that "ginneken"
// finds "Bram van Ginneken".
func (m Member) MatchesName(filter string) bool {
	return strings.Contains(strings.ToLower(m.Name), strings.ToLower(filter))
}
