package models

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"time"
)

type CursorPage struct {
	Items      []Order `json:"items"`
	NextCursor string  `json:"next_cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

type OffsetPage struct {
	Items      []Product `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// OrderCursor points just past the last order of a page. The zero value
// means "start from the newest order".
type OrderCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

func (c OrderCursor) IsStart() bool {
	return c.CreatedAt.IsZero() && c.ID == ""
}

// After reports whether o sorts after the cursor in newest-first order.
func (c OrderCursor) After(o Order) bool {
	if c.IsStart() {
		return true
	}
	if o.PlacedAt.Equal(c.CreatedAt) {
		return o.ID < c.ID
	}
	return o.PlacedAt.Before(c.CreatedAt)
}

func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

func DecodeCursor(encoded string) (OrderCursor, error) {
	var cursor OrderCursor
	if encoded == "" {
		return cursor, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, err
	}

	err = json.Unmarshal(data, &cursor)
	return cursor, err
}

// PageOrders returns one newest-first page of orders. The input slice is not
// modified.
func PageOrders(orders []Order, cursor string, limit int) (*CursorPage, error) {
	c, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 20
	}

	sorted := make([]Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PlacedAt.Equal(sorted[j].PlacedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].PlacedAt.After(sorted[j].PlacedAt)
	})

	page := make([]Order, 0, limit)
	hasMore := false
	for _, o := range sorted {
		if !c.After(o) {
			continue
		}
		if len(page) == limit {
			hasMore = true
			break
		}
		page = append(page, o)
	}

	var next string
	if hasMore && len(page) > 0 {
		last := page[len(page)-1]
		next = EncodeCursor(OrderCursor{CreatedAt: last.PlacedAt, ID: last.ID})
	}

	return &CursorPage{
		Items:      page,
		NextCursor: next,
		HasMore:    hasMore,
	}, nil
}
