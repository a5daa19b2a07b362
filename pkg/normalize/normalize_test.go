package normalize

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func mustItem(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	return m
}

// --- Legacy Shape ---

const legacyItem = `{
	"__typename": "StaySearchResult",
	"listing": {
		"id": "53788210",
		"name": "Casa Luna",
		"title": "Home in Tulum",
		"roomTypeCategory": "entire_home",
		"roomType": "Entire home",
		"listingObjType": "REPRESENTATIVE",
		"avgRatingLocalized": "4.92 (118)",
		"coordinate": {"latitude": 20.2114, "longitude": -87.4654},
		"contextualPictures": [{"picture": "https://img.example/1.jpg"}, {"picture": "https://img.example/2.jpg"}],
		"formattedBadges": [{"text": "Superhost"}]
	},
	"pricingQuote": {
		"structuredStayDisplayPrice": {
			"primaryLine": {"price": "$1,234", "qualifier": "night"},
			"secondaryLine": {"price": "$8,638 total"}
		}
	}
}`

func TestStandardize_LegacyShape(t *testing.T) {
	got := Standard{}.Standardize([]map[string]any{mustItem(t, legacyItem)})
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	rec := got[0]

	checks := map[string]any{
		KeyRoomID:          "53788210",
		KeyName:            "Casa Luna",
		KeyTitle:           "Home in Tulum",
		KeyCategory:        "entire_home",
		KeyKind:            "REPRESENTATIVE",
		KeyType:            "Entire home",
		KeyLatitude:        20.2114,
		KeyLongitude:       -87.4654,
		KeyRating:          4.92,
		KeyReviewCount:     118,
		KeyPriceLabel:      "$1,234",
		KeyPriceQualifier:  "night",
		KeyPriceAmount:     1234.0,
		KeyTotalPriceLabel: "$8,638 total",
	}
	for k, want := range checks {
		if rec[k] != want {
			t.Errorf("%s = %v (%T), want %v (%T)", k, rec[k], rec[k], want, want)
		}
	}

	imgs, _ := rec[KeyImages].([]string)
	if len(imgs) != 2 || imgs[0] != "https://img.example/1.jpg" {
		t.Errorf("unexpected images %v", rec[KeyImages])
	}
	badges, _ := rec[KeyBadges].([]string)
	if len(badges) != 1 || badges[0] != "Superhost" {
		t.Errorf("unexpected badges %v", rec[KeyBadges])
	}
}

// --- Demand Stay Shape ---

func TestStandardize_DemandStayShape(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("DemandStayListing:998877"))
	raw := `{
		"__typename": "StaySearchResult",
		"title": "Cabin in Bariloche",
		"avgRatingLocalized": "New",
		"demandStayListing": {
			"id": "` + token + `",
			"description": {"name": {"localizedStringWithTranslationPreference": "Lakeside cabin"}},
			"location": {"coordinate": {"latitude": -41.13, "longitude": -71.3}}
		},
		"structuredDisplayPrice": {
			"primaryLine": {"discountedPrice": "$95", "originalPrice": "$120", "qualifier": "night"}
		},
		"badges": [{"text": "Guest favorite"}],
		"contextualPictures": []
	}`

	rec := Standard{}.Standardize([]map[string]any{mustItem(t, raw)})[0]

	if rec[KeyRoomID] != "998877" {
		t.Errorf("room_id = %v", rec[KeyRoomID])
	}
	if rec[KeyName] != "Lakeside cabin" {
		t.Errorf("name = %v", rec[KeyName])
	}
	if rec[KeyTitle] != "Cabin in Bariloche" {
		t.Errorf("title = %v", rec[KeyTitle])
	}
	if rec[KeyPriceLabel] != "$95" || rec[KeyPriceAmount] != 95.0 {
		t.Errorf("price = %v / %v", rec[KeyPriceLabel], rec[KeyPriceAmount])
	}
	if rec[KeyRating] != 0.0 || rec[KeyReviewCount] != 0 {
		t.Errorf("new listing should have zero rating, got %v / %v", rec[KeyRating], rec[KeyReviewCount])
	}
	if rec[KeyLatitude] != -41.13 {
		t.Errorf("latitude = %v", rec[KeyLatitude])
	}
}

// --- Edge Cases ---

func TestStandardize_EmptyInput(t *testing.T) {
	got := Standard{}.Standardize(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestStandardize_SparseItem(t *testing.T) {
	rec := Standard{}.Standardize([]map[string]any{{"unexpected": true}})[0]

	if rec[KeyRoomID] != "" || rec[KeyName] != "" {
		t.Errorf("expected empty strings, got %v", rec)
	}
	if imgs, ok := rec[KeyImages].([]string); !ok || len(imgs) != 0 {
		t.Errorf("expected empty images, got %#v", rec[KeyImages])
	}
}

func TestStandardize_DoesNotMutateInput(t *testing.T) {
	item := mustItem(t, legacyItem)
	before, _ := json.Marshal(item)

	Standard{}.Standardize([]map[string]any{item})

	after, _ := json.Marshal(item)
	if string(before) != string(after) {
		t.Error("input item was mutated")
	}
}

func TestFunc(t *testing.T) {
	var n Normalizer = Func(func(items []map[string]any) []map[string]any {
		return append(items, map[string]any{"added": true})
	})
	if got := n.Standardize(nil); len(got) != 1 {
		t.Errorf("expected 1 record, got %d", len(got))
	}
}

// --- Parsers ---

func TestRatingAndReviews(t *testing.T) {
	tests := []struct {
		label   string
		rating  float64
		reviews int
	}{
		{"4.92 (118)", 4.92, 118},
		{"4,85 (1,204)", 4.85, 1204},
		{"New", 0, 0},
		{"", 0, 0},
	}
	for _, tt := range tests {
		r, n := ratingAndReviews(tt.label)
		if r != tt.rating || n != tt.reviews {
			t.Errorf("ratingAndReviews(%q) = %v, %v; want %v, %v", tt.label, r, n, tt.rating, tt.reviews)
		}
	}
}

func TestAmount(t *testing.T) {
	tests := map[string]float64{
		"$1,234":       1234,
		"€95":          95,
		"$1,234.50":    1234.5,
		"":             0,
		"Price varies": 0,
	}
	for label, want := range tests {
		if got := amount(label); got != want {
			t.Errorf("amount(%q) = %v, want %v", label, got, want)
		}
	}
}
