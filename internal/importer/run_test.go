package importer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/westendlab/pubbib/internal/bibtex"
	"github.com/westendlab/pubbib/internal/eutils"
	"github.com/westendlab/pubbib/internal/member"
)

// fakeSearcher serves canned PMID lists and articles, recording the
// lookups it saw.
type fakeSearcher struct {
	byORCID  map[string][]string
	byName   map[string][]string
	articles map[string]eutils.Article
	failName string // member name whose lookups error

	orcidCalls []string
	nameCalls  []string
	fetched    [][]string
}

func (f *fakeSearcher) SearchByORCID(ctx context.Context, orcid string, opts eutils.SearchOptions) ([]string, error) {
	f.orcidCalls = append(f.orcidCalls, orcid)
	return f.byORCID[orcid], nil
}

func (f *fakeSearcher) SearchByAuthor(ctx context.Context, name string, opts eutils.SearchOptions) ([]string, error) {
	f.nameCalls = append(f.nameCalls, name)
	if name == f.failName {
		return nil, errors.New("service unavailable")
	}
	return f.byName[name], nil
}

func (f *fakeSearcher) Fetch(ctx context.Context, pmids []string) ([]eutils.Article, error) {
	f.fetched = append(f.fetched, pmids)
	var out []eutils.Article
	for _, pmid := range pmids {
		if a, ok := f.articles[pmid]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// fakeArticle builds a minimal article record.
func fakeArticle(pmid, surname, title string, year string) eutils.Article {
	return eutils.Article{
		Citation: eutils.MedlineCitation{
			PMID: pmid,
			Article: eutils.ArticleDetail{
				Title: title,
				Journal: eutils.Journal{
					ISOAbbr: "Syst Biol",
					Issue: eutils.JournalIssue{
						PubDate: eutils.PubDate{Year: year},
					},
				},
				AuthorList: []eutils.XMLAuthor{
					{LastName: surname, ForeName: "Jane"},
				},
			},
		},
	}
}

func TestRunInserts(t *testing.T) {
	fake := &fakeSearcher{
		byORCID: map[string][]string{"0000-0002-1825-0097": {"1", "2"}},
		articles: map[string]eutils.Article{
			"1": fakeArticle("1", "Harmon", "First paper.", "2024"),
			"2": fakeArticle("2", "Harmon", "Second paper.", "2024"),
		},
	}
	lib := bibtex.NewLibrary()
	members := []member.Member{{Name: "Alice Harmon", ORCID: "0000-0002-1825-0097"}}

	summary, err := Run(context.Background(), fake, lib, members, Options{Tag: "westendlab"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Inserted != 2 || summary.Updated != 0 || summary.Unchanged != 0 {
		t.Errorf("summary = %+v, want 2 inserts", summary)
	}
	if lib.Len() != 2 {
		t.Fatalf("library has %d entries, want 2", lib.Len())
	}
	// Same surname and year: keys disambiguate a, b.
	if !lib.HasKey("Harmon24a") || !lib.HasKey("Harmon24b") {
		t.Errorf("keys missing: want Harmon24a and Harmon24b")
	}
	if got := lib.ByPMID("1").Field("optnote"); got != "westendlab" {
		t.Errorf("optnote = %q, want tag applied", got)
	}
	// ORCID result was non-empty, so no name search happened.
	if len(fake.nameCalls) != 0 {
		t.Errorf("name lookups = %v, want none", fake.nameCalls)
	}
}

func TestRunNameFallback(t *testing.T) {
	fake := &fakeSearcher{
		byORCID: map[string][]string{}, // ORCID search finds nothing
		byName:  map[string][]string{"J. X. Chen": {"3"}},
		articles: map[string]eutils.Article{
			"3": fakeArticle("3", "Chen", "Repertoires.", "2023"),
		},
	}
	lib := bibtex.NewLibrary()
	members := []member.Member{{
		Name:    "Jane Chen",
		ORCID:   "0000-0001-2345-6789",
		PubName: "J. X. Chen",
	}}

	summary, err := Run(context.Background(), fake, lib, members, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1", summary.Inserted)
	}
	if len(fake.orcidCalls) != 1 {
		t.Errorf("orcid lookups = %v, want one attempt first", fake.orcidCalls)
	}
	if len(fake.nameCalls) != 1 || fake.nameCalls[0] != "J. X. Chen" {
		t.Errorf("name lookups = %v, want publication alias", fake.nameCalls)
	}
}

func TestRunMemberErrorContinues(t *testing.T) {
	fake := &fakeSearcher{
		byName:   map[string][]string{"Will Baker": {"4"}},
		failName: "Ada Ames",
		articles: map[string]eutils.Article{
			"4": fakeArticle("4", "Baker", "Fine paper.", "2024"),
		},
	}
	lib := bibtex.NewLibrary()
	members := []member.Member{
		{Name: "Ada Ames"},
		{Name: "Will Baker"},
	}

	summary, err := Run(context.Background(), fake, lib, members, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Member != "Ada Ames" {
		t.Errorf("Errors = %v, want one for Ada Ames", summary.Errors)
	}
	if summary.Inserted != 1 {
		t.Errorf("Inserted = %d, want the second member still processed", summary.Inserted)
	}
}

func TestRunExcludeAndDedupe(t *testing.T) {
	fake := &fakeSearcher{
		byName: map[string][]string{
			"Ada Ames":   {"5", "6"},
			"Will Baker": {"5", "7"}, // 5 is co-authored
		},
		articles: map[string]eutils.Article{
			"5": fakeArticle("5", "Ames", "Shared paper.", "2024"),
			"6": fakeArticle("6", "Ames", "Excluded paper.", "2024"),
			"7": fakeArticle("7", "Baker", "Solo paper.", "2024"),
		},
	}
	lib := bibtex.NewLibrary()
	members := []member.Member{
		{Name: "Ada Ames"},
		{Name: "Will Baker"},
	}

	summary, err := Run(context.Background(), fake, lib, members, Options{
		Exclude: map[string]bool{"6": true},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Excluded != 1 {
		t.Errorf("Excluded = %d, want 1", summary.Excluded)
	}
	if summary.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2 (5 once, 7 once)", summary.Inserted)
	}
	if lib.ByPMID("6") != nil {
		t.Error("excluded PMID 6 must not be imported")
	}
	// Second member's fetch must not re-request the co-authored PMID.
	if len(fake.fetched) != 2 {
		t.Fatalf("fetch batches = %d, want 2", len(fake.fetched))
	}
	for _, pmid := range fake.fetched[1] {
		if pmid == "5" {
			t.Error("PMID 5 fetched twice")
		}
	}
}

func TestPersistDryRunLeavesStoreUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	// Legacy hand-formatted content that canonical serialization would
	// rewrite if anything ever saved it.
	original := []byte("@article{legacy99a,\n    title={Kept exactly as written},\n    pmid={9},\n}\n")
	if err := os.WriteFile(path, original, 0644); err != nil {
		t.Fatal(err)
	}

	lib, err := bibtex.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	fake := &fakeSearcher{
		byName: map[string][]string{"Ada Ames": {"1"}},
		articles: map[string]eutils.Article{
			"1": fakeArticle("1", "Ames", "New paper.", "2024"),
		},
	}
	summary, err := Run(context.Background(), fake, lib, []member.Member{{Name: "Ada Ames"}}, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Inserted != 1 {
		t.Fatalf("Inserted = %d, want 1 so the dry run has something to skip", summary.Inserted)
	}

	written, err := Persist(lib, path, summary, true)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if written {
		t.Error("Persist reported a write during a dry run")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(after, original) {
		t.Errorf("store bytes changed during dry run:\nbefore:\n%s\nafter:\n%s", original, after)
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	members := []member.Member{{Name: "Ada Ames"}}
	newFake := func() *fakeSearcher {
		return &fakeSearcher{
			byName: map[string][]string{"Ada Ames": {"1", "2"}},
			articles: map[string]eutils.Article{
				"1": fakeArticle("1", "Ames", "First paper.", "2024"),
				"2": fakeArticle("2", "Ames", "Second paper.", "2024"),
			},
		}
	}

	lib := bibtex.NewLibrary()
	summary, err := Run(context.Background(), newFake(), lib, members, Options{Tag: "westendlab"})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	written, err := Persist(lib, path, summary, false)
	if err != nil {
		t.Fatalf("first Persist: %v", err)
	}
	if !written || summary.Inserted != 2 {
		t.Fatalf("first run: written=%v inserted=%d, want a 2-insert write", written, summary.Inserted)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Same remote state, fresh load: everything classifies as no-op and
	// the store is not rewritten.
	lib2, err := bibtex.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	summary2, err := Run(context.Background(), newFake(), lib2, members, Options{Tag: "westendlab"})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if summary2.Inserted != 0 || summary2.Updated != 0 || summary2.Unchanged != 2 {
		t.Errorf("second run summary = %+v, want all unchanged", summary2)
	}
	written2, err := Persist(lib2, path, summary2, false)
	if err != nil {
		t.Fatalf("second Persist: %v", err)
	}
	if written2 {
		t.Error("second run rewrote an unchanged store")
	}

	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("store bytes changed across identical runs:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeSearcher{}
	_, err := Run(ctx, fake, bibtex.NewLibrary(), []member.Member{{Name: "X"}}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
