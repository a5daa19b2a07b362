package stays

import (
	"context"
)

// StopReason records why pagination ended.
type StopReason string

const (
	StopEmptyPage      StopReason = "empty_page"
	StopNoCursor       StopReason = "no_cursor"
	StopRepeatedCursor StopReason = "repeated_cursor"
	StopPageLimit      StopReason = "page_limit"
)

// FetchFunc fetches the page for cursor. The first call receives "".
type FetchFunc func(ctx context.Context, cursor string) (Page, error)

// Paginator drives a fetch function until the server runs out of pages.
type Paginator struct {
	Fetch FetchFunc

	// Transform is applied to each page's results before accumulation.
	// Nil keeps raw results.
	Transform func([]Record) []Record

	// MaxPages stops after that many pages. Zero means no limit.
	MaxPages int
}

// Result is the outcome of a pagination run.
type Result struct {
	Records []Record
	Pages   int
	Stop    StopReason
}

// Run fetches pages sequentially starting from an empty cursor. It stops on
// an empty page, an absent or null next cursor, or a next cursor that was
// already fetched in this run, including the initial empty one. A fetch
// error discards everything accumulated so far.
func (p *Paginator) Run(ctx context.Context) (Result, error) {
	res := Result{Records: make([]Record, 0)}
	cursor := ""
	seen := map[string]struct{}{cursor: {}}

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		page, err := p.Fetch(ctx, cursor)
		if err != nil {
			return Result{}, err
		}
		res.Pages++

		if len(page.Results) == 0 {
			res.Stop = StopEmptyPage
			return res, nil
		}

		records := page.Results
		if p.Transform != nil {
			records = p.Transform(records)
		}
		res.Records = append(res.Records, records...)

		switch {
		case !page.HasNext:
			res.Stop = StopNoCursor
			return res, nil
		case isSeen(seen, page.NextCursor):
			res.Stop = StopRepeatedCursor
			return res, nil
		case p.MaxPages > 0 && res.Pages >= p.MaxPages:
			res.Stop = StopPageLimit
			return res, nil
		}
		cursor = page.NextCursor
		seen[cursor] = struct{}{}
	}
}

func isSeen(seen map[string]struct{}, cursor string) bool {
	_, ok := seen[cursor]
	return ok
}
