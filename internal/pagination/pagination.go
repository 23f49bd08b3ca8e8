// Package pagination computes page windows for listing responses.
package pagination

import (
	"encoding/json"
	"strconv"
)

// DefaultMaxVisible is the page-number budget of the listing footer.
const DefaultMaxVisible = 7

// PageItem is a page number, or Ellipsis for a gap between numbers.
type PageItem int

const Ellipsis PageItem = -1

func (p PageItem) IsEllipsis() bool { return p == Ellipsis }

func (p PageItem) String() string {
	if p == Ellipsis {
		return "..."
	}
	return strconv.Itoa(int(p))
}

func (p PageItem) MarshalJSON() ([]byte, error) {
	if p == Ellipsis {
		return []byte(`"..."`), nil
	}
	return json.Marshal(int(p))
}

// PageWindow returns the page numbers to display around current.
// Page 1 and the last page are always present; a centered window of up to
// five pages sits between them with ellipses marking the gaps.
func PageWindow(current, totalPages, maxVisible int) []PageItem {
	if totalPages < 1 {
		return []PageItem{}
	}
	if maxVisible < 1 {
		maxVisible = DefaultMaxVisible
	}
	current = clamp(current, 1, totalPages)

	if totalPages <= maxVisible {
		out := make([]PageItem, 0, totalPages)
		for p := 1; p <= totalPages; p++ {
			out = append(out, PageItem(p))
		}
		return out
	}

	out := []PageItem{1}
	if current > 4 {
		out = append(out, Ellipsis)
	}
	start := max(2, current-2)
	end := min(totalPages-1, current+2)
	for p := start; p <= end; p++ {
		out = append(out, PageItem(p))
	}
	if current < totalPages-3 {
		out = append(out, Ellipsis)
	}
	return append(out, PageItem(totalPages))
}

// ItemWindow returns the half-open index range [start, end) of page current,
// clipped to [0, totalItems).
func ItemWindow(current, pageSize, totalItems int) (start, end int) {
	if current < 1 || pageSize < 1 || totalItems < 1 {
		return 0, 0
	}
	start = clamp((current-1)*pageSize, 0, totalItems)
	end = clamp(current*pageSize, start, totalItems)
	return start, end
}

// TotalPages is the number of pages needed for totalItems.
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// Meta describes one page of a listing response.
type Meta struct {
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int        `json:"total"`
	TotalPages int        `json:"totalPages"`
	HasNext    bool       `json:"hasNext"`
	HasPrev    bool       `json:"hasPrev"`
	Pages      []PageItem `json:"pages"`
}

func NewMeta(current, pageSize, total int) Meta {
	totalPages := TotalPages(total, pageSize)
	return Meta{
		Page:       current,
		Limit:      pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    current < totalPages,
		HasPrev:    current > 1,
		Pages:      PageWindow(current, totalPages, DefaultMaxVisible),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
