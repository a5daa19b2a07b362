package request

import (
	"sort"
	"strconv"
)

// searchTreatmentFlags are sent with structured and flexible-date requests.
var searchTreatmentFlags = []string{
	"feed_map_decouple_m11_treatment",
	"stays_search_rehydration_treatment_desktop",
	"stays_search_rehydration_treatment_moweb",
	"m1_2024_monthly_stays_dial_treatment_flag",
	"recommended_amenities_2024_treatment_b",
	"filter_redesign_2024_treatment",
	"filter_reordering_2024_roomtype_treatment",
}

// StructuredQuery is a text/location search with guests and dates.
type StructuredQuery struct {
	Location string `json:"location" validate:"required_without=PlaceID"`
	PlaceID  string `json:"place_id,omitempty"`
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`

	// Guest counts are passed through as strings. Adults defaults to "1".
	Adults   string `json:"adults,omitempty"`
	Children string `json:"children,omitempty"`
	Infants  string `json:"infants,omitempty"`
	Pets     string `json:"pets,omitempty"`

	// ItemsPerGrid defaults to 18.
	ItemsPerGrid int `json:"items_per_grid,omitempty" validate:"gte=0"`

	// Extra filters are appended verbatim, ordered by name. A name that
	// matches a built-in filter replaces its values instead.
	Extra map[string][]string `json:"extra,omitempty"`
}

// StructuredBuilder builds structured text/location search requests.
type StructuredBuilder struct {
	query StructuredQuery
	cfg   config
}

// NewStructured creates a builder for a structured query.
func NewStructured(q StructuredQuery, opts ...Option) *StructuredBuilder {
	return &StructuredBuilder{query: q, cfg: newConfig(HashStructured, opts)}
}

// Variant returns VariantStructured.
func (b *StructuredBuilder) Variant() Variant {
	return VariantStructured
}

// Build assembles the request for one page.
func (b *StructuredBuilder) Build(cursor, currency string) (Request, error) {
	return Request{
		Variant: VariantStructured,
		URL:     b.cfg.pageURL(currency),
		Headers: BrowserHeaders(),
		Payload: b.cfg.envelope(Variables{
			StaysSearchRequest: SearchRequest{
				Cursor:            cursor,
				MaxMapItems:       9999,
				RequestedPageType: "STAYS_SEARCH",
				Source:            "structured_search_input_header",
				SearchType:        "autocomplete_click",
				TreatmentFlags:    searchTreatmentFlags,
				RawParams:         b.Filters(),
			},
		}),
	}, nil
}

// Filters returns the ordered filter list for the query.
func (b *StructuredBuilder) Filters() []FilterEntry {
	q := b.query
	perGrid := q.ItemsPerGrid
	if perGrid <= 0 {
		perGrid = 18
	}

	filters := []FilterEntry{
		Filter("cdnCacheSafe", "false"),
		Filter("channel", "EXPLORE"),
		Filter("adults", coalesce(q.Adults, "1")),
	}
	if q.Children != "" {
		filters = append(filters, Filter("children", q.Children))
	}
	if q.Infants != "" {
		filters = append(filters, Filter("infants", q.Infants))
	}
	if q.Pets != "" {
		filters = append(filters, Filter("pets", q.Pets))
	}
	if q.CheckIn != "" {
		filters = append(filters, Filter("checkin", q.CheckIn))
	}
	if q.CheckOut != "" {
		filters = append(filters, Filter("checkout", q.CheckOut))
	}
	filters = append(filters,
		Filter("datePickerType", "calendar"),
		Filter("itemsPerGrid", strconv.Itoa(perGrid)),
	)
	if q.PlaceID != "" {
		filters = append(filters, Filter("placeId", q.PlaceID))
	}
	filters = append(filters,
		Filter("priceFilterInputType", "0"),
		Filter("query", q.Location),
		Filter("refinementPaths", "/homes"),
		Filter("screenSize", "large"),
		Filter("tabId", "home_tab"),
		Filter("version", clientVersion),
	)

	names := make([]string, 0, len(q.Extra))
	for name := range q.Extra {
		names = append(names, name)
	}
	sort.Strings(names)

	index := make(map[string]int, len(filters))
	for i, f := range filters {
		index[f.FilterName] = i
	}
	for _, name := range names {
		entry := Filter(name, q.Extra[name]...)
		if i, ok := index[name]; ok {
			filters[i] = entry
			continue
		}
		filters = append(filters, entry)
	}
	return filters
}

// CacheKey identifies a page by dates, currency, location and cursor.
func (b *StructuredBuilder) CacheKey(currency, cursor string) string {
	q := b.query
	return joinKey(q.CheckIn, q.CheckOut, currency, keyLocation(coalesce(q.Location, q.PlaceID)), cursor)
}
