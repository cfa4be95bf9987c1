package eutils

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the NCBI E-utilities base URL.
	BaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultTimeout is the default HTTP request timeout. EFetch responses
	// for a full author history can run to several megabytes of XML.
	DefaultTimeout = 60 * time.Second

	// KeyedInterval is the minimum delay between requests with an API key.
	// NCBI allows 10 req/s per key; one per second keeps a wide margin.
	KeyedInterval = 1 * time.Second

	// AnonInterval is the minimum delay between anonymous requests.
	// NCBI allows 3 req/s without a key.
	AnonInterval = 1500 * time.Millisecond

	// DefaultMaxResults caps ESearch result lists per query.
	DefaultMaxResults = 100
)

// orcidIDPattern extracts a bare ORCID identifier.
var orcidIDPattern = regexp.MustCompile(`\d{4}-\d{4}-\d{4}-\d{3}[0-9X]`)

// Client is a rate-limited HTTP client for the E-utilities API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	email      string
	apiKey     string
	baseURL    string
	interval   time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the NCBI API key, which unlocks a higher remote-side
// rate ceiling.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithEmail sets the contact address sent with every request, as asked
// by NCBI's usage policy.
func WithEmail(email string) ClientOption {
	return func(c *Client) {
		c.email = email
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithInterval overrides the minimum delay between requests.
func WithInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.interval = d
	}
}

// NewClient creates a new E-utilities client. Without WithInterval the
// request interval is chosen from the credential tier: KeyedInterval when
// an API key is set, AnonInterval otherwise.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.interval <= 0 {
		if c.apiKey != "" {
			c.interval = KeyedInterval
		} else {
			c.interval = AnonInterval
		}
	}
	c.limiter = rate.NewLimiter(rate.Every(c.interval), 1)

	return c
}

// Interval reports the effective minimum delay between requests.
func (c *Client) Interval() time.Duration {
	return c.interval
}

// SearchOptions constrain an ESearch query.
type SearchOptions struct {
	SinceYear  int // Only publications from this year onwards (0 = no limit)
	MaxResults int // Result cap (0 = DefaultMaxResults)
}

// SearchByORCID searches for publications by ORCID using the author
// identifier index. Returns the matching PMIDs, newest first.
func (c *Client) SearchByORCID(ctx context.Context, orcid string, opts SearchOptions) ([]string, error) {
	id := orcidIDPattern.FindString(orcid)
	if id == "" {
		return nil, fmt.Errorf("no valid ORCID in %q", orcid)
	}
	return c.search(ctx, fmt.Sprintf("%s[auid]", id), opts)
}

// SearchByAuthor searches for publications by author name.
func (c *Client) SearchByAuthor(ctx context.Context, name string, opts SearchOptions) ([]string, error) {
	return c.search(ctx, fmt.Sprintf("%q[Author]", name), opts)
}

// search runs an ESearch request and returns the PMID list.
func (c *Client) search(ctx context.Context, term string, opts SearchOptions) ([]string, error) {
	max := opts.MaxResults
	if max <= 0 {
		max = DefaultMaxResults
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(max))
	if opts.SinceYear > 0 {
		params.Set("mindate", fmt.Sprintf("%d/01/01", opts.SinceYear))
		params.Set("datetype", "pdat")
	}

	body, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.Query = term
		}
		return nil, err
	}

	var envelope esearchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: parsing search result: %v", ErrInvalidResponse, err)
	}

	return envelope.Result.IDList, nil
}

// Fetch retrieves full records for the given PMIDs in one EFetch request.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]Article, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")

	body, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var set ArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("%w: parsing article XML: %v", ErrInvalidResponse, err)
	}

	return set.Articles, nil
}

// Ping issues one minimal ESearch request to verify the API is reachable
// with the configured credentials. It fetches no records.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", "all[sb]")
	params.Set("retmode", "json")
	params.Set("retmax", "0")

	_, err := c.get(ctx, "esearch.fcgi", params)
	return err
}

// get performs one throttled GET against an E-utilities endpoint.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if c.email != "" {
		params.Set("email", c.email)
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	return body, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	}
	if resp.StatusCode == 429 {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}
