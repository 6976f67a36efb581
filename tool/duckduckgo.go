package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmc/langchaingo/tools"
)

const duckDuckGoUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DuckDuckGoSearch scrapes the keyless DuckDuckGo HTML endpoint.
type DuckDuckGoSearch struct {
	BaseURL    string
	MaxResults int
	Region     string
	HTTPClient *http.Client
}

var _ tools.Tool = (*DuckDuckGoSearch)(nil)

// DuckDuckGoOption configures a DuckDuckGoSearch.
type DuckDuckGoOption func(*DuckDuckGoSearch)

// WithDuckDuckGoBaseURL overrides the HTML endpoint.
func WithDuckDuckGoBaseURL(baseURL string) DuckDuckGoOption {
	return func(d *DuckDuckGoSearch) {
		d.BaseURL = baseURL
	}
}

// WithDuckDuckGoMaxResults limits the number of hits kept.
func WithDuckDuckGoMaxResults(n int) DuckDuckGoOption {
	return func(d *DuckDuckGoSearch) {
		if n > 0 {
			d.MaxResults = n
		}
	}
}

// WithDuckDuckGoRegion sets the kl region parameter, e.g. "cn-zh".
func WithDuckDuckGoRegion(region string) DuckDuckGoOption {
	return func(d *DuckDuckGoSearch) {
		d.Region = region
	}
}

// WithDuckDuckGoHTTPClient replaces the default HTTP client.
func WithDuckDuckGoHTTPClient(c *http.Client) DuckDuckGoOption {
	return func(d *DuckDuckGoSearch) {
		d.HTTPClient = c
	}
}

// NewDuckDuckGoSearch creates a DuckDuckGo search tool.
func NewDuckDuckGoSearch(opts ...DuckDuckGoOption) *DuckDuckGoSearch {
	d := &DuckDuckGoSearch{
		BaseURL:    "https://html.duckduckgo.com/html/",
		MaxResults: 5,
		Region:     "cn-zh",
		HTTPClient: defaultHTTPClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the name of the tool.
func (d *DuckDuckGoSearch) Name() string {
	return "DuckDuckGo_Search"
}

// Description returns the description of the tool.
func (d *DuckDuckGoSearch) Description() string {
	return "A web search engine that needs no API key. " +
		"Useful for background facts the knowledge graph may not hold. " +
		"Input should be a search query."
}

// Call executes the search.
func (d *DuckDuckGoSearch) Call(ctx context.Context, input string) (string, error) {
	form := url.Values{}
	form.Set("q", input)
	if d.Region != "" {
		form.Set("kl", d.Region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrSearch, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", duckDuckGoUserAgent)

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: duckduckgo returned status: %d", ErrSearch, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", ErrSearch, err)
	}

	var hits []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}
		href, _ := link.Attr("href")
		hits = append(hits, Result{
			Title:       title,
			URL:         resolveDuckDuckGoLink(href),
			Description: strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
		return len(hits) < d.MaxResults
	})

	return FormatResults(hits), nil
}

// resolveDuckDuckGoLink unwraps //duckduckgo.com/l/?uddg=<target> redirects.
func resolveDuckDuckGoLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
