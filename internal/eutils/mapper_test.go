package eutils

import (
	"testing"

	"github.com/westendlab/pubbib/internal/reference"
)

func TestMapArticle(t *testing.T) {
	a := Article{
		Citation: MedlineCitation{
			PMID: "39000001",
			Article: ArticleDetail{
				Title: "A phylogenetic method.",
				Journal: Journal{
					Title:   "Systematic Biology",
					ISOAbbr: "Syst Biol",
					Issue: JournalIssue{
						Volume:  "73",
						Issue:   "2",
						PubDate: PubDate{Year: "2024", Month: "Apr"},
					},
				},
				AuthorList: []XMLAuthor{
					{LastName: "Harmon", ForeName: "Alice J"},
					{LastName: "Chen", Initials: "JX"},
				},
				Abstract: []AbstractText{
					{Label: "BACKGROUND", Text: "Trees are hard."},
					{Label: "RESULTS", Text: "We describe a method."},
				},
				Pagination: Pagination{MedlinePgn: "101-115"},
			},
		},
		Data: PubmedData{ArticleIDs: []ArticleID{
			{IDType: "doi", Value: "10.1093/sysbio/syae001"},
			{IDType: "pmc", Value: "PMC11000000"},
		}},
	}

	ref := MapArticle(a)

	if ref.PMID != "39000001" {
		t.Errorf("PMID = %q, want 39000001", ref.PMID)
	}
	if ref.Title != "A phylogenetic method" {
		t.Errorf("Title = %q, want trailing period stripped", ref.Title)
	}
	if ref.Journal != "Syst Biol" {
		t.Errorf("Journal = %q, want ISO abbreviation", ref.Journal)
	}
	if ref.Abstract != "Trees are hard. We describe a method." {
		t.Errorf("Abstract = %q, want sections joined", ref.Abstract)
	}
	if ref.Published.Year != 2024 || ref.Published.Month != 4 {
		t.Errorf("Published = %+v, want 2024-04", ref.Published)
	}
	if ref.Volume != "73" || ref.Issue != "2" || ref.Pages != "101-115" {
		t.Errorf("issue fields = %q/%q/%q", ref.Volume, ref.Issue, ref.Pages)
	}
	if ref.DOI != "10.1093/sysbio/syae001" {
		t.Errorf("DOI = %q", ref.DOI)
	}
	if ref.ID != "" {
		t.Errorf("ID = %q, want unassigned", ref.ID)
	}

	wantAuthors := []reference.Author{
		{First: "Alice J", Last: "Harmon"},
		{First: "JX", Last: "Chen"}, // Initials fallback when ForeName is absent
	}
	if len(ref.Authors) != len(wantAuthors) {
		t.Fatalf("got %d authors, want %d", len(ref.Authors), len(wantAuthors))
	}
	for i, want := range wantAuthors {
		if ref.Authors[i] != want {
			t.Errorf("Authors[%d] = %+v, want %+v", i, ref.Authors[i], want)
		}
	}
}

func TestMapAuthorsCollective(t *testing.T) {
	authors := mapAuthors([]XMLAuthor{
		{CollectiveName: "The COVID Consortium"},
		{Initials: "JX"}, // No last name or collective: dropped
	})
	if len(authors) != 1 {
		t.Fatalf("got %d authors, want 1", len(authors))
	}
	if authors[0].Last != "The COVID Consortium" || authors[0].First != "" {
		t.Errorf("collective author = %+v", authors[0])
	}
}

func TestMapPubDate(t *testing.T) {
	tests := []struct {
		name      string
		date      PubDate
		wantYear  int
		wantMonth int
	}{
		{"year and month name", PubDate{Year: "2024", Month: "Apr"}, 2024, 4},
		{"full month name", PubDate{Year: "2023", Month: "December"}, 2023, 12},
		{"numeric month", PubDate{Year: "2022", Month: "07"}, 2022, 7},
		{"year only", PubDate{Year: "2021"}, 2021, 0},
		{"medline season", PubDate{MedlineDate: "2020 Spring"}, 2020, 0},
		{"medline range", PubDate{MedlineDate: "1998 Dec-1999 Jan"}, 1998, 0},
		{"empty", PubDate{}, 0, 0},
		{"bad month", PubDate{Year: "2024", Month: "Smarch"}, 2024, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPubDate(tt.date)
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("mapPubDate(%+v) = %+v, want %d-%d", tt.date, got, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A method.", "A method"},
		{"  Spaced out.  ", "Spaced out"},
		{"No period", "No period"},
		{"Ends with Ph.D.", "Ends with Ph.D"},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
