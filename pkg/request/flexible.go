package request

// FlexibleQuery is a flexible-date search: instead of fixed check-in and
// check-out it names candidate trip lengths, trip months or a monthly
// stay window. Field names follow the marketplace's search URL parameters.
type FlexibleQuery struct {
	Location             string   `json:"query,omitempty" mapstructure:"query"`
	PlaceID              string   `json:"place_id,omitempty" mapstructure:"place_id"`
	Channel              string   `json:"channel,omitempty" mapstructure:"channel"`
	DatePickerType       string   `json:"date_picker_type,omitempty" mapstructure:"date_picker_type"`
	FlexibleTripDates    []string `json:"flexible_trip_dates,omitempty" mapstructure:"flexible_trip_dates"`
	FlexibleTripLengths  []string `json:"flexible_trip_lengths,omitempty" mapstructure:"flexible_trip_lengths"`
	MonthlyStartDate     string   `json:"monthly_start_date,omitempty" mapstructure:"monthly_start_date"`
	MonthlyEndDate       string   `json:"monthly_end_date,omitempty" mapstructure:"monthly_end_date"`
	MonthlyLength        string   `json:"monthly_length,omitempty" mapstructure:"monthly_length"`
	PriceFilterInputType string   `json:"price_filter_input_type,omitempty" mapstructure:"price_filter_input_type"`
	RefinementPaths      []string `json:"refinement_paths,omitempty" mapstructure:"refinement_paths"`
	TabID                string   `json:"tab_id,omitempty" mapstructure:"tab_id"`

	// Sent only when set.
	Adults     string `json:"adults,omitempty" mapstructure:"adults"`
	LocationBB string `json:"location_bb,omitempty" mapstructure:"location_bb"`
	Source     string `json:"source,omitempty" mapstructure:"source"`
	SearchType string `json:"search_type,omitempty" mapstructure:"search_type"`
}

// FlexibleBuilder builds flexible-date search requests.
type FlexibleBuilder struct {
	query FlexibleQuery
	cfg   config
}

// NewFlexible creates a builder for a flexible-date query.
func NewFlexible(q FlexibleQuery, opts ...Option) *FlexibleBuilder {
	return &FlexibleBuilder{query: q, cfg: newConfig(HashFlexibleDates, opts)}
}

// Variant returns VariantFlexibleDates.
func (b *FlexibleBuilder) Variant() Variant {
	return VariantFlexibleDates
}

// Build assembles the request for one page.
func (b *FlexibleBuilder) Build(cursor, currency string) (Request, error) {
	return Request{
		Variant: VariantFlexibleDates,
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
func (b *FlexibleBuilder) Filters() []FilterEntry {
	q := b.query
	refinements := q.RefinementPaths
	if len(refinements) == 0 {
		refinements = []string{"/homes"}
	}

	filters := []FilterEntry{
		Filter("cdnCacheSafe", "false"),
		Filter("channel", coalesce(q.Channel, "EXPLORE")),
		Filter("datePickerType", coalesce(q.DatePickerType, "flexible_dates")),
		Filter("flexibleTripDates", q.FlexibleTripDates...),
		Filter("flexibleTripLengths", q.FlexibleTripLengths...),
		Filter("itemsPerGrid", "18"),
		Filter("monthlyEndDate", q.MonthlyEndDate),
		Filter("monthlyLength", coalesce(q.MonthlyLength, "3")),
		Filter("monthlyStartDate", q.MonthlyStartDate),
		Filter("placeId", q.PlaceID),
		Filter("priceFilterInputType", coalesce(q.PriceFilterInputType, "2")),
		Filter("query", q.Location),
		Filter("refinementPaths", refinements...),
		Filter("screenSize", "large"),
		Filter("tabId", coalesce(q.TabID, "home_tab")),
		Filter("version", clientVersion),
	}
	if q.Adults != "" {
		filters = append(filters, Filter("adults", q.Adults))
	}
	if q.LocationBB != "" {
		filters = append(filters, Filter("locationBB", q.LocationBB))
	}
	if q.Source != "" {
		filters = append(filters, Filter("source", q.Source))
	}
	if q.SearchType != "" {
		filters = append(filters, Filter("searchType", q.SearchType))
	}
	return filters
}

// CacheKey identifies a page by monthly window, currency, query and cursor.
func (b *FlexibleBuilder) CacheKey(currency, cursor string) string {
	q := b.query
	return joinKey(q.MonthlyStartDate, q.MonthlyEndDate, currency, keyLocation(q.Location), cursor)
}
