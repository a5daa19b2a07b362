package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// mapTreatmentFlags are sent with every bounding-box request.
var mapTreatmentFlags = []string{
	"feed_map_decouple_m11_treatment",
	"m1_2024_monthly_stays_dial_treatment_flag",
	"recommended_amenities_2024_treatment_a",
	"filter_redesign_2024_treatment",
	"filter_reordering_2024_roomtype_treatment",
}

// BoundsQuery is a map search over a geographic rectangle.
type BoundsQuery struct {
	CheckIn  string  `json:"check_in" validate:"required"`
	CheckOut string  `json:"check_out" validate:"required"`
	NELat    float64 `json:"ne_lat" validate:"gte=-90,lte=90"`
	NELng    float64 `json:"ne_lng" validate:"gte=-180,lte=180"`
	SWLat    float64 `json:"sw_lat" validate:"gte=-90,lte=90"`
	SWLng    float64 `json:"sw_lng" validate:"gte=-180,lte=180"`
	Zoom     int     `json:"zoom" validate:"gte=0,lte=22"`

	// Optional hints; sent only when set.
	PlaceID  string `json:"place_id,omitempty"`
	Location string `json:"location,omitempty"`
}

// Nights returns the stay length in nights.
func (q BoundsQuery) Nights() (int, error) {
	in, err := time.Parse(dateLayout, q.CheckIn)
	if err != nil {
		return 0, fmt.Errorf("%w: check-in %q: %v", ErrInvalidDate, q.CheckIn, err)
	}
	out, err := time.Parse(dateLayout, q.CheckOut)
	if err != nil {
		return 0, fmt.Errorf("%w: check-out %q: %v", ErrInvalidDate, q.CheckOut, err)
	}
	return int(out.Sub(in).Hours() / 24), nil
}

// BoundsBuilder builds bounding-box map search requests.
type BoundsBuilder struct {
	query BoundsQuery
	cfg   config
}

// NewBounds creates a builder for a bounding-box query.
func NewBounds(q BoundsQuery, opts ...Option) *BoundsBuilder {
	return &BoundsBuilder{query: q, cfg: newConfig(HashMapBounds, opts)}
}

// Variant returns VariantMapBounds.
func (b *BoundsBuilder) Variant() Variant {
	return VariantMapBounds
}

// Build assembles the request for one page. Unparseable dates are fatal.
func (b *BoundsBuilder) Build(cursor, currency string) (Request, error) {
	filters, err := b.Filters()
	if err != nil {
		return Request{}, err
	}

	inner := SearchRequest{
		Cursor:            cursor,
		RequestedPageType: "STAYS_SEARCH",
		Source:            "structured_search_input_header",
		SearchType:        "user_map_move",
		TreatmentFlags:    mapTreatmentFlags,
		RawParams:         filters,
	}
	mapInner := inner
	inner.MaxMapItems = 9999

	return Request{
		Variant: VariantMapBounds,
		URL:     b.cfg.pageURL(currency),
		Headers: BrowserHeaders(),
		Payload: b.cfg.envelope(Variables{
			IncludeMapResults:       true,
			StaysMapSearchRequestV2: &mapInner,
			StaysSearchRequest:      inner,
		}),
	}, nil
}

// Filters returns the ordered filter list for the query.
func (b *BoundsBuilder) Filters() ([]FilterEntry, error) {
	q := b.query
	nights, err := q.Nights()
	if err != nil {
		return nil, err
	}
	checkIn, _ := time.Parse(dateLayout, q.CheckIn)
	monthStart := time.Date(checkIn.Year(), checkIn.Month(), 1, 0, 0, 0, 0, time.UTC)

	filters := []FilterEntry{
		Filter("cdnCacheSafe", "false"),
		Filter("channel", "EXPLORE"),
		Filter("checkin", q.CheckIn),
		Filter("checkout", q.CheckOut),
		Filter("datePickerType", "calendar"),
		Filter("flexibleTripLengths", "one_week"),
		Filter("itemsPerGrid", "50"),
		Filter("monthlyLength", "3"),
		Filter("monthlyStartDate", monthStart.Format(dateLayout)),
		Filter("neLat", formatCoord(q.NELat)),
		Filter("neLng", formatCoord(q.NELng)),
	}
	if q.PlaceID != "" {
		filters = append(filters, Filter("placeId", q.PlaceID))
	}
	filters = append(filters,
		Filter("priceFilterInputType", "0"),
		Filter("priceFilterNumNights", strconv.Itoa(nights)),
	)
	if q.Location != "" {
		filters = append(filters, Filter("query", q.Location))
	}
	filters = append(filters,
		Filter("screenSize", "large"),
		Filter("refinementPaths", "/homes"),
		Filter("searchByMap", "true"),
		Filter("swLat", formatCoord(q.SWLat)),
		Filter("swLng", formatCoord(q.SWLng)),
		Filter("tabId", "home_tab"),
		Filter("version", clientVersion),
		Filter("zoomLevel", strconv.Itoa(q.Zoom)),
	)
	return filters, nil
}

// CacheKey identifies a page by dates, currency, the rectangle and cursor.
func (b *BoundsBuilder) CacheKey(currency, cursor string) string {
	q := b.query
	area := strings.Join([]string{
		formatCoord(q.NELat), formatCoord(q.NELng),
		formatCoord(q.SWLat), formatCoord(q.SWLng),
		"z" + strconv.Itoa(q.Zoom),
	}, ",")
	return joinKey(q.CheckIn, q.CheckOut, currency, area, cursor)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
