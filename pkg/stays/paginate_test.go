package stays

import (
	"context"
	"errors"
	"testing"
)

// scripted returns a FetchFunc serving pages by cursor and recording calls.
func scripted(pages map[string]Page, calls *[]string) FetchFunc {
	return func(_ context.Context, cursor string) (Page, error) {
		*calls = append(*calls, cursor)
		page, ok := pages[cursor]
		if !ok {
			return Page{}, errors.New("unexpected cursor " + cursor)
		}
		return page, nil
	}
}

func recs(ids ...string) []Record {
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = Record{"id": id}
	}
	return out
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r["id"].(string)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Stop Conditions ---

func TestPaginator_StopsOnEmptyPage(t *testing.T) {
	var calls []string
	p := &Paginator{Fetch: scripted(map[string]Page{
		"":   {Results: recs("1", "2"), NextCursor: "c1", HasNext: true},
		"c1": {Results: recs("3"), NextCursor: "c2", HasNext: true},
		"c2": {Results: recs(), NextCursor: "c3", HasNext: true},
	}, &calls)}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := ids(res.Records); !equal(got, []string{"1", "2", "3"}) {
		t.Errorf("records = %v", got)
	}
	if res.Stop != StopEmptyPage || res.Pages != 3 {
		t.Errorf("stop = %s after %d pages", res.Stop, res.Pages)
	}
	if !equal(calls, []string{"", "c1", "c2"}) {
		t.Errorf("calls = %v", calls)
	}
}

func TestPaginator_StopsWithoutCursor(t *testing.T) {
	var calls []string
	p := &Paginator{Fetch: scripted(map[string]Page{
		"":   {Results: recs("1"), NextCursor: "c1", HasNext: true},
		"c1": {Results: recs("2")},
	}, &calls)}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := ids(res.Records); !equal(got, []string{"1", "2"}) {
		t.Errorf("records = %v", got)
	}
	if res.Stop != StopNoCursor {
		t.Errorf("stop = %s", res.Stop)
	}
}

func TestPaginator_RepeatedCursor_NoExtraFetch(t *testing.T) {
	var calls []string
	p := &Paginator{Fetch: scripted(map[string]Page{
		"":   {Results: recs("1"), NextCursor: "c1", HasNext: true},
		"c1": {Results: recs("2"), NextCursor: "c1", HasNext: true},
	}, &calls)}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := ids(res.Records); !equal(got, []string{"1", "2"}) {
		t.Errorf("page producing the repeat should be kept, got %v", got)
	}
	if res.Stop != StopRepeatedCursor {
		t.Errorf("stop = %s", res.Stop)
	}
	if len(calls) != 2 {
		t.Errorf("expected 2 fetches, got %v", calls)
	}
}

func TestPaginator_EmptyCursorOnFirstPage(t *testing.T) {
	var calls []string
	p := &Paginator{Fetch: scripted(map[string]Page{
		"": {Results: recs("1"), NextCursor: "", HasNext: true},
	}, &calls)}

	res, _ := p.Run(context.Background())
	if res.Stop != StopRepeatedCursor || len(calls) != 1 {
		t.Errorf("stop = %s, calls = %v", res.Stop, calls)
	}
}

func TestPaginator_EmptyCursorOnLaterPage(t *testing.T) {
	var calls []string
	p := &Paginator{Fetch: scripted(map[string]Page{
		"":    {Results: recs("1"), NextCursor: "abc", HasNext: true},
		"abc": {Results: recs("2"), NextCursor: "", HasNext: true},
	}, &calls)}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stop != StopRepeatedCursor {
		t.Errorf("stop = %s", res.Stop)
	}
	if !equal(calls, []string{"", "abc"}) {
		t.Errorf("calls = %v", calls)
	}
	if got := ids(res.Records); !equal(got, []string{"1", "2"}) {
		t.Errorf("records = %v", got)
	}
}

func TestPaginator_CursorCycle(t *testing.T) {
	var calls []string
	p := &Paginator{Fetch: scripted(map[string]Page{
		"":   {Results: recs("1"), NextCursor: "c1", HasNext: true},
		"c1": {Results: recs("2"), NextCursor: "c2", HasNext: true},
		"c2": {Results: recs("3"), NextCursor: "c1", HasNext: true},
	}, &calls)}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stop != StopRepeatedCursor || len(calls) != 3 {
		t.Errorf("stop = %s, calls = %v", res.Stop, calls)
	}
}

func TestPaginator_EmptyFirstPage(t *testing.T) {
	var calls []string
	p := &Paginator{Fetch: scripted(map[string]Page{"": {Results: recs()}}, &calls)}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Records == nil || len(res.Records) != 0 {
		t.Errorf("expected empty non-nil records, got %#v", res.Records)
	}
}

func TestPaginator_MaxPages(t *testing.T) {
	var calls []string
	p := &Paginator{
		Fetch: scripted(map[string]Page{
			"": {Results: recs("1"), NextCursor: "c1", HasNext: true},
		}, &calls),
		MaxPages: 1,
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stop != StopPageLimit || len(calls) != 1 {
		t.Errorf("stop = %s, calls = %v", res.Stop, calls)
	}
}

// --- Transform ---

func TestPaginator_TransformPerPage(t *testing.T) {
	var calls []string
	batches := 0
	p := &Paginator{
		Fetch: scripted(map[string]Page{
			"":   {Results: recs("1"), NextCursor: "c1", HasNext: true},
			"c1": {Results: recs("2")},
		}, &calls),
		Transform: func(in []Record) []Record {
			batches++
			out := make([]Record, len(in))
			for i, r := range in {
				out[i] = Record{"id": "std-" + r["id"].(string)}
			}
			return out
		},
	}

	res, _ := p.Run(context.Background())
	if batches != 2 {
		t.Errorf("expected transform per page, got %d calls", batches)
	}
	if got := ids(res.Records); !equal(got, []string{"std-1", "std-2"}) {
		t.Errorf("records = %v", got)
	}
}

// --- Failures ---

func TestPaginator_FailureDiscardsAccumulator(t *testing.T) {
	boom := errors.New("boom")
	p := &Paginator{Fetch: func(_ context.Context, cursor string) (Page, error) {
		if cursor == "c1" {
			return Page{}, boom
		}
		return Page{Results: recs("1"), NextCursor: "c1", HasNext: true}, nil
	}}

	res, err := p.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if res.Records != nil {
		t.Errorf("expected no records on failure, got %v", res.Records)
	}
}

func TestPaginator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetches := 0
	p := &Paginator{Fetch: func(_ context.Context, cursor string) (Page, error) {
		fetches++
		cancel()
		return Page{Results: recs("1"), NextCursor: cursor + "x", HasNext: true}, nil
	}}

	_, err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if fetches != 1 {
		t.Errorf("expected 1 fetch, got %d", fetches)
	}
}
