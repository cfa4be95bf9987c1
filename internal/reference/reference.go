// Package reference defines the core domain types for bibliographic records.
package reference

// Reference represents one publication as imported from PubMed.
type Reference struct {
	// Identity
	ID   string `json:"id"`   // Citation key in the bibliography (stable once assigned)
	PMID string `json:"pmid"` // PubMed identifier (primary deduplication key)

	// Metadata
	Title    string   `json:"title"`
	Authors  []Author `json:"authors"`
	Journal  string   `json:"journal"` // ISO abbreviation when available
	Abstract string   `json:"abstract"`

	// Publication Date
	Published PublicationDate `json:"published"`

	// Issue details
	Volume string `json:"volume,omitempty"`
	Issue  string `json:"issue,omitempty"`
	Pages  string `json:"pages,omitempty"`

	// External Identifiers
	DOI   string `json:"doi,omitempty"`
	PMCID string `json:"pmcid,omitempty"`

	// Tag is the group annotation written to the optnote field on insert.
	Tag string `json:"tag,omitempty"`
}

// PublicationDate represents a publication date with optional month.
// PubMed frequently reports year-only or year+month dates.
type PublicationDate struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"` // 1-12, 0 if unknown
}
