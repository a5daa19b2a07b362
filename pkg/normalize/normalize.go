// Package normalize flattens raw search result items into standardized
// records.
package normalize

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Normalizer maps raw result items to standardized records. Implementations
// must be pure: no I/O and no mutation of the input.
type Normalizer interface {
	Standardize(items []map[string]any) []map[string]any
}

// Func adapts a function to the Normalizer interface.
type Func func(items []map[string]any) []map[string]any

// Standardize calls f.
func (f Func) Standardize(items []map[string]any) []map[string]any {
	return f(items)
}

// Standard is the default normalizer. It understands both the legacy
// "listing"/"pricingQuote" item shape and the newer "demandStayListing"
// shape, reading whichever is present.
type Standard struct{}

// Record keys produced by Standard.
const (
	KeyRoomID          = "room_id"
	KeyName            = "name"
	KeyTitle           = "title"
	KeyCategory        = "category"
	KeyKind            = "kind"
	KeyType            = "type"
	KeyLatitude        = "latitude"
	KeyLongitude       = "longitude"
	KeyRating          = "rating"
	KeyReviewCount     = "review_count"
	KeyPriceLabel      = "price_label"
	KeyPriceQualifier  = "price_qualifier"
	KeyPriceAmount     = "price_amount"
	KeyTotalPriceLabel = "total_price_label"
	KeyImages          = "images"
	KeyBadges          = "badges"
)

var (
	ratingPattern = regexp.MustCompile(`^\s*([0-9]+(?:[.,][0-9]+)?)\s*\(([0-9,.]+)\)`)
	amountPattern = regexp.MustCompile(`[0-9][0-9,.]*`)
)

// Standardize maps each item to a flat record. Items that cannot be
// serialized are skipped. The result is never nil.
func (Standard) Standardize(items []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			continue
		}
		out = append(out, standardizeItem(raw))
	}
	return out
}

func standardizeItem(raw []byte) map[string]any {
	doc := gjson.ParseBytes(raw)

	rec := map[string]any{
		KeyRoomID:    roomID(doc),
		KeyName:      first(doc, "listing.name", "demandStayListing.description.name.localizedStringWithTranslationPreference", "nameLocalized.localizedStringWithTranslationPreference").String(),
		KeyTitle:     first(doc, "listing.title", "title").String(),
		KeyCategory:  first(doc, "listing.roomTypeCategory", "listing.category").String(),
		KeyKind:      first(doc, "listing.listingObjType", "__typename").String(),
		KeyType:      first(doc, "listing.roomType", "listing.pdpType", "demandStayListing.__typename").String(),
		KeyLatitude:  first(doc, "listing.coordinate.latitude", "demandStayListing.location.coordinate.latitude").Float(),
		KeyLongitude: first(doc, "listing.coordinate.longitude", "demandStayListing.location.coordinate.longitude").Float(),
		KeyImages:    images(doc),
		KeyBadges:    badges(doc),
	}

	rating, reviews := ratingAndReviews(first(doc, "avgRatingLocalized", "listing.avgRatingLocalized").String())
	rec[KeyRating] = rating
	rec[KeyReviewCount] = reviews

	price := first(doc, "structuredDisplayPrice.primaryLine", "pricingQuote.structuredStayDisplayPrice.primaryLine")
	label := first(price, "discountedPrice", "price", "originalPrice").String()
	rec[KeyPriceLabel] = label
	rec[KeyPriceQualifier] = price.Get("qualifier").String()
	rec[KeyPriceAmount] = amount(label)
	rec[KeyTotalPriceLabel] = first(doc,
		"structuredDisplayPrice.secondaryLine.price",
		"pricingQuote.structuredStayDisplayPrice.secondaryLine.price",
	).String()

	return rec
}

// first returns the first path that exists in doc.
func first(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := doc.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

// roomID prefers the plain listing id and falls back to decoding the opaque
// "DemandStayListing:<id>" token.
func roomID(doc gjson.Result) string {
	if id := first(doc, "listing.id", "listingId").String(); id != "" {
		return id
	}
	token := doc.Get("demandStayListing.id").String()
	if token == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return token
	}
	if _, id, ok := strings.Cut(string(decoded), ":"); ok {
		return id
	}
	return string(decoded)
}

func images(doc gjson.Result) []string {
	out := []string{}
	first(doc, "contextualPictures", "listing.contextualPictures").ForEach(func(_, pic gjson.Result) bool {
		if u := pic.Get("picture").String(); u != "" {
			out = append(out, u)
		}
		return true
	})
	return out
}

func badges(doc gjson.Result) []string {
	out := []string{}
	first(doc, "badges", "listing.formattedBadges").ForEach(func(_, b gjson.Result) bool {
		text := first(b, "text", "loggingContext.badgeType").String()
		if text != "" {
			out = append(out, text)
		}
		return true
	})
	return out
}

// ratingAndReviews parses labels like "4.92 (118)". "New" and empty labels
// yield zeros.
func ratingAndReviews(label string) (float64, int) {
	m := ratingPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0
	}
	rating, _ := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	reviews, _ := strconv.Atoi(strings.NewReplacer(",", "", ".", "").Replace(m[2]))
	return rating, reviews
}

// amount extracts the numeric part of a price label such as "$1,234".
func amount(label string) float64 {
	digits := amountPattern.FindString(label)
	if digits == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
