// Package importer merges normalized PubMed records into the
// bibliography store, deciding insert, update, or no-op per record.
package importer

import (
	"fmt"
	"unicode"

	"github.com/westendlab/pubbib/internal/bibtex"
	"github.com/westendlab/pubbib/internal/reference"
)

// Action classifies what a draft record means for the store.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionNone   Action = "unchanged"
)

// significantFields are compared to decide update vs no-op. Exact string
// equality after trimming; no fuzzy matching, so whitespace noise never
// causes churn but the normalizer must stay consistent run to run.
var significantFields = []string{
	"title",
	"author",
	"journal",
	"year",
	"volume",
	"pages",
	"doi",
	"abstract",
}

// remoteFields are the fields PubMed is authoritative for. An update
// replaces exactly these; locally maintained fields (optnote, url, ...)
// survive untouched.
var remoteFields = []string{
	"author",
	"title",
	"journal",
	"year",
	"volume",
	"number",
	"pages",
	"month",
	"doi",
	"pmid",
	"pmcid",
	"abstract",
}

// Classify decides the outcome for a draft record against the current
// store. The returned entry is the existing one for update/unchanged,
// nil for insert.
func Classify(lib *bibtex.Library, draft reference.Reference) (Action, *bibtex.Entry) {
	existing := lib.ByPMID(draft.PMID)
	if existing == nil {
		return ActionInsert, nil
	}

	draftEntry := bibtex.FromReference(draft)
	for _, field := range significantFields {
		if existing.Field(field) != draftEntry.Field(field) {
			return ActionUpdate, existing
		}
	}
	return ActionNone, existing
}

// Insert adds a draft to the library under a freshly generated key and
// returns that key.
func Insert(lib *bibtex.Library, draft reference.Reference) (string, error) {
	key, err := GenerateKey(lib, draft)
	if err != nil {
		return "", err
	}
	draft.ID = key
	if err := lib.Add(bibtex.FromReference(draft)); err != nil {
		return "", err
	}
	return key, nil
}

// Update refreshes an existing entry from a draft. The citation key is
// never touched; fields PubMed does not carry are preserved.
func Update(existing *bibtex.Entry, draft reference.Reference) {
	draftEntry := bibtex.FromReference(draft)
	for _, field := range remoteFields {
		if value, ok := draftEntry.Fields[field]; ok {
			existing.Fields[field] = value
		} else {
			delete(existing.Fields, field)
		}
	}
}

// GenerateKey builds a citation key "{surname}{yy}{letter}": the first
// author's surname (letters only), the two-digit year, and the lowest
// unused letter among keys sharing that prefix. Deterministic given the
// current store state.
func GenerateKey(lib *bibtex.Library, draft reference.Reference) (string, error) {
	surname := "Unknown"
	if len(draft.Authors) > 0 {
		if s := sanitizeSurname(draft.Authors[0].Last); s != "" {
			surname = s
		}
	}

	prefix := fmt.Sprintf("%s%02d", surname, draft.Published.Year%100)
	for letter := 'a'; letter <= 'z'; letter++ {
		key := fmt.Sprintf("%s%c", prefix, letter)
		if !lib.HasKey(key) {
			return key, nil
		}
	}
	return "", fmt.Errorf("no free citation key for prefix %s", prefix)
}

// sanitizeSurname keeps letters only, dropping spaces, hyphens and
// diacritic-free punctuation from compound surnames.
func sanitizeSurname(s string) string {
	var out []rune
	for _, r := range s {
		if unicode.IsLetter(r) {
			out = append(out, r)
		}
	}
	return string(out)
}
