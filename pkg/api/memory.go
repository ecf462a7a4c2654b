package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"tableflip.dev/diary/pkg/entry"
)

// Patch is a partial update. Nil fields are left untouched by the server.
type Patch struct {
	Text     *string `json:"text,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// TextPatch is a Patch that only changes the text.
func TextPatch(text string) Patch {
	return Patch{Text: &text}
}

type createRequest struct {
	Text     string        `json:"text"`
	ImageURL string        `json:"imageUrl,omitempty"`
	Date     entry.DateKey `json:"date"`
}

// ListEntries returns the entries for a single day in server order.
func (c *Client) ListEntries(ctx context.Context, day entry.DateKey) ([]*entry.Entry, error) {
	q := url.Values{}
	q.Set("date", day.String())
	var out []*entry.Entry
	if err := c.do(ctx, http.MethodGet, "/memory", q, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*entry.Entry{}
	}
	return out, nil
}

// Counts returns the per-day entry counts of a month. Keys outside the month
// and negative counts are dropped.
func (c *Client) Counts(ctx context.Context, month entry.MonthKey) (entry.CountMap, error) {
	q := url.Values{}
	q.Set("month", month.String())
	raw := map[string]int{}
	if err := c.do(ctx, http.MethodGet, "/memory/counts", q, nil, &raw); err != nil {
		return nil, err
	}
	out := make(entry.CountMap, len(raw))
	for k, n := range raw {
		day, err := entry.ParseDateKey(k)
		if err != nil || !month.Contains(day) || n < 0 {
			c.log.Debug("dropping count",
				zap.String("month", month.String()),
				zap.String("key", k),
				zap.Int("count", n))
			continue
		}
		out[day] = n
	}
	return out, nil
}

// CreateEntry stores a new entry for day. The server assigns id and createdAt.
func (c *Client) CreateEntry(ctx context.Context, day entry.DateKey, text, imageURL string) (*entry.Entry, error) {
	in := createRequest{Text: text, ImageURL: imageURL, Date: day}
	out := &entry.Entry{}
	if err := c.do(ctx, http.MethodPost, "/memory", nil, in, out); err != nil {
		return nil, err
	}
	if out.Date == "" {
		out.Date = day
	}
	return out, nil
}

// UpdateEntry applies a partial update to the entry with id.
func (c *Client) UpdateEntry(ctx context.Context, id entry.ID, patch Patch) (*entry.Entry, error) {
	if id == "" {
		return nil, fmt.Errorf("api: update: empty id")
	}
	out := &entry.Entry{}
	if err := c.do(ctx, http.MethodPatch, "/memory/"+url.PathEscape(id.String()), nil, patch, out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

// DeleteEntry removes the entry with id.
func (c *Client) DeleteEntry(ctx context.Context, id entry.ID) error {
	if id == "" {
		return fmt.Errorf("api: delete: empty id")
	}
	return c.do(ctx, http.MethodDelete, "/memory/"+url.PathEscape(id.String()), nil, nil, nil)
}
