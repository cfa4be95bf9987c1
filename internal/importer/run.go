package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/westendlab/pubbib/internal/bibtex"
	"github.com/westendlab/pubbib/internal/eutils"
	"github.com/westendlab/pubbib/internal/member"
	"github.com/westendlab/pubbib/internal/reference"
)

// Searcher is the remote lookup surface the run loop needs. *eutils.Client
// satisfies it; tests substitute a fake.
type Searcher interface {
	SearchByORCID(ctx context.Context, orcid string, opts eutils.SearchOptions) ([]string, error)
	SearchByAuthor(ctx context.Context, name string, opts eutils.SearchOptions) ([]string, error)
	Fetch(ctx context.Context, pmids []string) ([]eutils.Article, error)
}

// Options configure a run.
type Options struct {
	SinceYear  int             // Only publications from this year onwards
	MaxResults int             // Result cap per member query
	Tag        string          // optnote value stamped on inserts
	Exclude    map[string]bool // PMIDs that must never be imported
	Log        io.Writer       // Progress diagnostics; nil silences them
}

// Detail describes one insert or update decided during a run.
type Detail struct {
	Action Action `json:"action"`
	Key    string `json:"key"`
	PMID   string `json:"pmid"`
	Title  string `json:"title"`
	Member string `json:"member"`
}

// MemberError records a member whose lookup failed.
type MemberError struct {
	Member string `json:"member"`
	Err    string `json:"error"`
}

// Summary is the outcome of a run.
type Summary struct {
	Members   int           `json:"members"`
	Inserted  int           `json:"inserted"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Excluded  int           `json:"excluded"`
	Details   []Detail      `json:"details,omitempty"`
	Errors    []MemberError `json:"errors,omitempty"`
}

// Changed reports whether the run altered the library.
func (s *Summary) Changed() bool {
	return s.Inserted > 0 || s.Updated > 0
}

// Persist writes the library to path after a run, unless nothing changed
// or dryRun is set. It reports whether the file was written. An
// unchanged store is never rewritten, so its existing byte content
// (legacy formatting included) survives until a real change lands; a
// failed write never leaves a half-written store because Save replaces
// the file atomically or not at all.
func Persist(lib *bibtex.Library, path string, summary *Summary, dryRun bool) (bool, error) {
	if dryRun || !summary.Changed() {
		return false, nil
	}
	if err := lib.Save(path); err != nil {
		return false, err
	}
	return true, nil
}

// Run processes members sequentially, merging their PubMed records into
// the library. The library is mutated in memory only; persisting it is
// Persist's job, so a dry run simply skips that call. A failure for one
// member is recorded and never aborts the batch.
func Run(ctx context.Context, client Searcher, lib *bibtex.Library, members []member.Member, opts Options) (*Summary, error) {
	log := opts.Log
	if log == nil {
		log = io.Discard
	}

	summary := &Summary{Members: len(members)}
	seen := make(map[string]bool) // PMIDs already handled this run (co-authored papers)

	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		fmt.Fprintf(log, "Processing: %s\n", m.Name)

		pmids, err := lookupMember(ctx, client, m, opts, log)
		if err != nil {
			fmt.Fprintf(log, "  error: %v\n", err)
			summary.Errors = append(summary.Errors, MemberError{Member: m.Name, Err: err.Error()})
			continue
		}
		if len(pmids) == 0 {
			fmt.Fprintf(log, "  no publications found\n")
			continue
		}
		fmt.Fprintf(log, "  found %d publications\n", len(pmids))

		var fetchable []string
		for _, pmid := range pmids {
			if opts.Exclude[pmid] {
				summary.Excluded++
				continue
			}
			if seen[pmid] {
				continue
			}
			fetchable = append(fetchable, pmid)
		}
		if len(fetchable) == 0 {
			continue
		}

		articles, err := client.Fetch(ctx, fetchable)
		if err != nil {
			fmt.Fprintf(log, "  error: %v\n", err)
			summary.Errors = append(summary.Errors, MemberError{Member: m.Name, Err: err.Error()})
			continue
		}

		for _, article := range articles {
			draft := eutils.MapArticle(article)
			draft.Tag = opts.Tag
			if draft.PMID == "" {
				continue
			}
			seen[draft.PMID] = true

			if err := mergeDraft(summary, lib, draft, m.Name); err != nil {
				summary.Errors = append(summary.Errors, MemberError{Member: m.Name, Err: err.Error()})
			}
		}
	}

	return summary, nil
}

// lookupMember resolves the member's PMID list: ORCID lookup first when
// one is on file, author-name lookup (publication alias preferred) as
// the fallback when there is no ORCID or the ORCID search finds nothing.
func lookupMember(ctx context.Context, client Searcher, m member.Member, opts Options, log io.Writer) ([]string, error) {
	searchOpts := eutils.SearchOptions{
		SinceYear:  opts.SinceYear,
		MaxResults: opts.MaxResults,
	}

	if orcid := m.ORCIDID(); orcid != "" {
		fmt.Fprintf(log, "  searching by ORCID %s\n", orcid)
		pmids, err := client.SearchByORCID(ctx, orcid, searchOpts)
		if err != nil {
			return nil, err
		}
		if len(pmids) > 0 {
			return pmids, nil
		}
	}

	name := m.SearchName()
	fmt.Fprintf(log, "  searching by name %q\n", name)
	return client.SearchByAuthor(ctx, name, searchOpts)
}

// mergeDraft applies one draft record to the library and tallies it.
func mergeDraft(summary *Summary, lib *bibtex.Library, draft reference.Reference, memberName string) error {
	action, existing := Classify(lib, draft)
	switch action {
	case ActionInsert:
		key, err := Insert(lib, draft)
		if err != nil {
			return fmt.Errorf("inserting PMID %s: %w", draft.PMID, err)
		}
		summary.Inserted++
		summary.Details = append(summary.Details, Detail{
			Action: ActionInsert, Key: key, PMID: draft.PMID, Title: draft.Title, Member: memberName,
		})
	case ActionUpdate:
		Update(existing, draft)
		summary.Updated++
		summary.Details = append(summary.Details, Detail{
			Action: ActionUpdate, Key: existing.Key, PMID: draft.PMID, Title: draft.Title, Member: memberName,
		})
	case ActionNone:
		summary.Unchanged++
	}
	return nil
}
