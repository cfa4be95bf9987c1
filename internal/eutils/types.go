// Package eutils provides a rate-limited client for the NCBI E-utilities
// API (ESearch and EFetch against the pubmed database).
package eutils

import "encoding/xml"

// esearchEnvelope is the JSON response of an ESearch request.
type esearchEnvelope struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}

// ArticleSet is the root element of an EFetch XML response.
type ArticleSet struct {
	XMLName  xml.Name  `xml:"PubmedArticleSet"`
	Articles []Article `xml:"PubmedArticle"`
}

// Article is one PubmedArticle record. Only the fields the importer
// consumes are mapped; everything else in the (large) DTD is ignored.
type Article struct {
	Citation MedlineCitation `xml:"MedlineCitation"`
	Data     PubmedData      `xml:"PubmedData"`
}

// MedlineCitation carries the article metadata.
type MedlineCitation struct {
	PMID    string        `xml:"PMID"`
	Article ArticleDetail `xml:"Article"`
}

// ArticleDetail holds title, authors, journal and abstract.
type ArticleDetail struct {
	Title      string         `xml:"ArticleTitle"`
	Journal    Journal        `xml:"Journal"`
	AuthorList []XMLAuthor    `xml:"AuthorList>Author"`
	Abstract   []AbstractText `xml:"Abstract>AbstractText"`
	Pagination Pagination     `xml:"Pagination"`
}

// Journal describes the publication venue and issue.
type Journal struct {
	Title   string       `xml:"Title"`
	ISOAbbr string       `xml:"ISOAbbreviation"`
	Issue   JournalIssue `xml:"JournalIssue"`
}

// JournalIssue carries volume, issue and the publication date.
type JournalIssue struct {
	Volume  string  `xml:"Volume"`
	Issue   string  `xml:"Issue"`
	PubDate PubDate `xml:"PubDate"`
}

// PubDate is a partial date: Year/Month elements, or a free-form
// MedlineDate string like "2020 Spring" when the issue has no exact date.
type PubDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"` // Number or English month name/abbreviation
	MedlineDate string `xml:"MedlineDate"`
}

// XMLAuthor is one entry of the AuthorList. Consortia appear with only
// a CollectiveName.
type XMLAuthor struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	Initials       string `xml:"Initials"`
	CollectiveName string `xml:"CollectiveName"`
}

// AbstractText is one (possibly labeled) section of a structured abstract.
type AbstractText struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",chardata"`
}

// Pagination carries the Medline page range.
type Pagination struct {
	MedlinePgn string `xml:"MedlinePgn"`
}

// PubmedData carries the article identifier list.
type PubmedData struct {
	ArticleIDs []ArticleID `xml:"ArticleIdList>ArticleId"`
}

// ArticleID is one external identifier (doi, pmc, pii, ...).
type ArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// DOI returns the article's DOI, or "" if PubMed has none on record.
func (a Article) DOI() string {
	for _, id := range a.Data.ArticleIDs {
		if id.IDType == "doi" {
			return id.Value
		}
	}
	return ""
}

// PMCID returns the article's PubMed Central identifier, or "".
func (a Article) PMCID() string {
	for _, id := range a.Data.ArticleIDs {
		if id.IDType == "pmc" {
			return id.Value
		}
	}
	return ""
}
