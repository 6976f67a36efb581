package tool

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// NoResults is returned by Call when the engine found nothing.
const NoResults = "No results found"

// ErrSearch wraps transport and decoding failures of a search engine.
var ErrSearch = errors.New("search request failed")

var defaultHTTPClient = &http.Client{Timeout: 20 * time.Second}

// Result is a single web search hit.
type Result struct {
	Title       string
	URL         string
	Description string
}

// FormatResults renders hits as a numbered plain-text list for LLM prompts.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return NoResults
	}
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. Title: %s\nURL: %s\nDescription: %s\n\n", i+1, r.Title, r.URL, r.Description)
	}
	return sb.String()
}
