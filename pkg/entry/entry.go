// Package entry holds the diary entry ("memory") model and the calendar day
// keys used to join entries, counts and selection state.
package entry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is the opaque identifier the server assigns to an entry. The wire form
// may be a JSON number or a JSON string; both decode to the same ID.
type ID string

func (id ID) String() string {
	return string(id)
}

func (id ID) MarshalJSON() ([]byte, error) {
	// Only canonical integers go out bare; "007" or "+5" are not valid JSON numbers.
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("entry: id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Entry is one journal record tied to a single calendar day.
type Entry struct {
	ID        ID        `json:"id"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Date      DateKey   `json:"date"`
	CreatedAt Timestamp `json:"createdAt"`
}

// New returns an unsaved entry for the given day.
func New(day DateKey, text, imageURL string) *Entry {
	return &Entry{
		Date:     day,
		Text:     text,
		ImageURL: imageURL,
	}
}

// HasImage reports whether an image is attached.
func (e *Entry) HasImage() bool {
	return e.ImageURL != ""
}

// Clone returns a copy safe to hand to other goroutines.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

// Summary is a single line rendering of the entry text.
func (e *Entry) Summary() string {
	text := strings.Join(strings.Fields(e.Text), " ")
	if text == "" && e.HasImage() {
		return "[image]"
	}
	if e.HasImage() {
		return text + " [image]"
	}
	return text
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s %s  %s", e.Date, e.ID, e.Summary())
}

// IndexOf returns the position of the entry with id, or -1.
func IndexOf(entries []*Entry, id ID) int {
	for i, e := range entries {
		if e != nil && e.ID == id {
			return i
		}
	}
	return -1
}

// CloneAll deep copies a list of entries.
func CloneAll(entries []*Entry) []*Entry {
	if entries == nil {
		return nil
	}
	out := make([]*Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
