package stays

import (
	"encoding/json"
	"fmt"

	"github.com/jmylchreest/staysearch/pkg/nested"
)

// Response envelope paths.
const (
	ResultsPath       = "data.presentation.staysSearch.results"
	searchResultsKey  = "searchResults"
	paginationInfoKey = "paginationInfo"
	nextCursorKey     = "nextPageCursor"
)

// Record is one result item, raw or standardized.
type Record = map[string]any

// Page is one decoded page of results.
type Page struct {
	Results []Record

	// NextCursor is the server's next-page token. HasNext is false when the
	// token is absent or null.
	NextCursor string
	HasNext    bool
}

// ParsePage decodes a raw response body and extracts its page.
func ParsePage(raw []byte) (Page, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return Page{}, fmt.Errorf("decode page: %w", err)
	}
	return ExtractPage(body), nil
}

// ExtractPage pulls the results and next cursor out of a decoded response.
// Missing fields at any depth yield an empty page with no cursor.
func ExtractPage(body map[string]any) Page {
	results := nested.Lookup(body, ResultsPath, map[string]any{})

	var page Page
	items, _ := results[searchResultsKey].([]any)
	page.Results = make([]Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			page.Results = append(page.Results, m)
		}
	}

	info := nested.Lookup(results, paginationInfoKey, map[string]any{})
	if cursor, ok := info[nextCursorKey].(string); ok {
		page.NextCursor = cursor
		page.HasNext = true
	}
	return page
}
