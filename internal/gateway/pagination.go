package gateway

import "context"

// pager fetches one page of items. It returns the page's items, the number
// of the next page to fetch (zero when the walk is done), and the fetch
// error, if any. The search endpoint derives the next page from the Link
// response header; the repository listing advances the page index itself and
// reports zero on the first empty page.
type pager[T any] func(ctx context.Context, page int) (items []T, next int, err error)

// collect walks pages starting at 1 until the pager reports no next page.
// A failed page ends the walk early; the items gathered before it are
// returned together with the error, so callers can tell a truncated walk
// from an exhausted one.
func collect[T any](ctx context.Context, fetch pager[T]) ([]T, error) {
	var out []T
	for page := 1; page > 0; {
		items, next, err := fetch(ctx, page)
		out = append(out, items...)
		if err != nil {
			return out, err
		}
		page = next
	}
	return out, nil
}

// collectCapped is collect with an upper bound on gathered items. A limit of
// zero or less collects nothing and performs no fetch. The walk stops as
// soon as the bound is reached, discarding the remainder of the final page.
func collectCapped[T any](ctx context.Context, limit int, fetch pager[T]) ([]T, error) {
	if limit <= 0 {
		return nil, nil
	}
	var out []T
	for page := 1; page > 0; {
		items, next, err := fetch(ctx, page)
		if len(out)+len(items) > limit {
			items = items[:limit-len(out)]
		}
		out = append(out, items...)
		if err != nil {
			return out, err
		}
		if len(out) == limit {
			return out, nil
		}
		page = next
	}
	return out, nil
}
