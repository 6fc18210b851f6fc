package transaction

import (
	"slices"
	"strings"
)

// Process applies the category filter, the date-descending sort and the page
// window to records. The input slice is never modified.
func Process(records []Record, q Query) *PagedResult {
	filtered := FilterByCategory(records, q.Category)
	SortByDateDesc(filtered)

	total := len(filtered)
	result := &PagedResult{
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: TotalPages(total, q.PageSize),
		Items:      Window(filtered, q.Page, q.PageSize),
	}
	return result
}

// FilterByCategory returns a copy of records whose category matches
// case-insensitively. An empty category keeps every record.
func FilterByCategory(records []Record, category string) []Record {
	category = strings.TrimSpace(category)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if category == "" || strings.EqualFold(r.Category, category) {
			out = append(out, r)
		}
	}
	return out
}

// SortByDateDesc sorts newest first. Equal dates keep their original order.
func SortByDateDesc(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return b.Date.Compare(a.Date)
	})
}

// Window returns the page-th slice of pageSize records (1-based), or an empty
// slice when the page is past the end.
func Window(records []Record, page, pageSize int) []Record {
	if page < 1 || pageSize < 1 {
		return []Record{}
	}
	skip := (page - 1) * pageSize
	if skip >= len(records) {
		return []Record{}
	}
	end := min(skip+pageSize, len(records))
	return slices.Clone(records[skip:end])
}
