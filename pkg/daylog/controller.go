// Package daylog holds the entry list of the selected day and the compose,
// edit and delete flows that change it.
package daylog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"tableflip.dev/diary/pkg/api"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
)

var (
	// ErrValidationSkipped is returned when there is nothing to save.
	ErrValidationSkipped = errors.New("daylog: nothing to save")
	// ErrBusy is returned while another mutation is outstanding.
	ErrBusy = errors.New("daylog: operation in progress")
	// ErrNotLoaded is returned when the day's list is not loaded.
	ErrNotLoaded = errors.New("daylog: list not loaded")
	// ErrStale is returned when a response arrives for a day that is no
	// longer selected. The response is discarded.
	ErrStale = errors.New("daylog: stale response")
	// ErrUnknownEntry is returned for ids not in the current list.
	ErrUnknownEntry = errors.New("daylog: unknown entry")
	// ErrWrongMode is returned when an operation does not fit the mode.
	ErrWrongMode = errors.New("daylog: wrong mode")
)

// Client is the part of the remote API the controller needs.
type Client interface {
	ListEntries(ctx context.Context, day entry.DateKey) ([]*entry.Entry, error)
	CreateEntry(ctx context.Context, day entry.DateKey, text, imageURL string) (*entry.Entry, error)
	UpdateEntry(ctx context.Context, id entry.ID, patch api.Patch) (*entry.Entry, error)
	DeleteEntry(ctx context.Context, id entry.ID) error
}

// State is the load state of the selected day.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Errored
	NeedsLogin
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	case NeedsLogin:
		return "needs-login"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Mode is what the list is doing with one of its entries.
type Mode int

const (
	Browse Mode = iota
	Editing
	PendingDelete
)

func (m Mode) String() string {
	switch m {
	case Browse:
		return "browse"
	case Editing:
		return "editing"
	case PendingDelete:
		return "pending-delete"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	Day     entry.DateKey
	State   State
	Mode    Mode
	Entries []*entry.Entry

	// Target is the entry being edited or waiting for delete confirmation.
	Target entry.ID
	Draft  string

	ComposeText  string
	ComposeImage string

	Busy      bool
	LastError string
}

// Option configures a Controller.
type Option func(*Controller)

// WithPrinter sets the language of LastError.
func WithPrinter(p *i18n.Printer) Option {
	return func(c *Controller) {
		if p != nil {
			c.msgs = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller owns the entry list of the selected day. It is safe for
// concurrent use; remote calls happen without holding the lock.
type Controller struct {
	client Client
	msgs   *i18n.Printer
	log    *zap.Logger

	mu    sync.Mutex
	day   entry.DateKey
	gen   uint64
	state State
	days  map[entry.DateKey][]*entry.Entry

	mode   Mode
	target entry.ID
	draft  string

	composeText  string
	composeImage string

	busy    bool
	lastErr string

	subs   map[int]func(Snapshot)
	nextID int
}

// New returns an idle controller.
func New(client Client, opts ...Option) *Controller {
	c := &Controller{
		client: client,
		msgs:   i18n.New("en"),
		log:    zap.NewNop(),
		days:   map[entry.DateKey][]*entry.Entry{},
		subs:   map[int]func(Snapshot){},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OnChange registers fn to run after every state transition. The returned
// func removes it.
func (c *Controller) OnChange(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// update runs fn under the lock and then notifies subscribers.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()
	for _, s := range subs {
		s(snap)
	}
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Day:          c.day,
		State:        c.state,
		Mode:         c.mode,
		Entries:      entry.CloneAll(c.days[c.day]),
		Target:       c.target,
		Draft:        c.draft,
		ComposeText:  c.composeText,
		ComposeImage: c.composeImage,
		Busy:         c.busy,
		LastError:    c.lastErr,
	}
}

// Day returns the selected day.
func (c *Controller) Day() entry.DateKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

// Busy reports whether a mutation is outstanding.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// failLocked records err as the user-facing error. Unauthorized errors move the
// controller to NeedsLogin and drop every cached list.
func (c *Controller) failLocked(err error, fallback string) {
	c.lastErr = c.msgs.Error(err, fallback)
	if errors.Is(err, api.ErrUnauthorized) {
		c.state = NeedsLogin
		c.mode = Browse
		c.days = map[entry.DateKey][]*entry.Entry{}
	}
}

// Select makes day the selected day and fetches its entries. Switching days
// always refetches. If another Select happens before the response arrives
// the response is dropped and ErrStale returned.
func (c *Controller) Select(ctx context.Context, day entry.DateKey) error {
	if !day.Valid() {
		return fmt.Errorf("daylog: select %q: invalid day", day)
	}
	var gen uint64
	c.update(func() {
		c.gen++
		gen = c.gen
		c.day = day
		c.state = Loading
		c.mode = Browse
		c.target = ""
		c.draft = ""
		c.lastErr = ""
		delete(c.days, day)
	})

	list, err := c.client.ListEntries(ctx, day)

	stale := false
	c.update(func() {
		if c.day != day || c.gen != gen {
			stale = true
			return
		}
		if err != nil {
			c.state = Errored
			c.failLocked(err, i18n.MsgLoadFailed)
			return
		}
		c.days[day] = list
		c.state = Loaded
	})
	if stale {
		c.log.Debug("dropping stale list", zap.String("day", day.String()))
		return ErrStale
	}
	if err != nil {
		return fmt.Errorf("daylog: list %s: %w", day, err)
	}
	return nil
}

// Reload refetches the selected day.
func (c *Controller) Reload(ctx context.Context) error {
	return c.Select(ctx, c.Day())
}

// SetComposeText sets the text of the next entry.
func (c *Controller) SetComposeText(text string) {
	c.update(func() { c.composeText = text })
}

// AttachImage sets the image of the next entry as a data URL.
func (c *Controller) AttachImage(dataURL string) {
	c.update(func() { c.composeImage = dataURL })
}

// ClearImage removes the attached image.
func (c *Controller) ClearImage() {
	c.update(func() { c.composeImage = "" })
}

// beginLocked claims the list for one mutation on the loaded day.
func (c *Controller) beginLocked() error {
	if c.state != Loaded {
		return ErrNotLoaded
	}
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	c.lastErr = ""
	return nil
}

// Submit creates an entry from the compose fields on the selected day. On
// success the entry is put at the top of the list and the compose fields are
// cleared; on failure neither changes.
func (c *Controller) Submit(ctx context.Context) (*entry.Entry, error) {
	var (
		day         entry.DateKey
		text, image string
		err         error
	)
	c.update(func() {
		text, image = c.composeText, c.composeImage
		if strings.TrimSpace(text) == "" && image == "" {
			err = ErrValidationSkipped
			return
		}
		if err = c.beginLocked(); err != nil {
			return
		}
		day = c.day
	})
	if err != nil {
		return nil, err
	}

	created, err := c.client.CreateEntry(ctx, day, strings.TrimSpace(text), image)

	c.update(func() {
		c.busy = false
		if err != nil {
			c.failLocked(err, i18n.MsgCreateFailed)
			return
		}
		if list, ok := c.days[day]; ok && entry.IndexOf(list, created.ID) < 0 {
			c.days[day] = append([]*entry.Entry{created}, list...)
		}
		c.composeText = ""
		c.composeImage = ""
	})
	if err != nil {
		return nil, fmt.Errorf("daylog: create on %s: %w", day, err)
	}
	return created.Clone(), nil
}

// StartEdit puts the entry with id in edit mode with its text as the draft.
func (c *Controller) StartEdit(id entry.ID) error {
	var err error
	c.update(func() {
		if c.state != Loaded {
			err = ErrNotLoaded
			return
		}
		list := c.days[c.day]
		i := entry.IndexOf(list, id)
		if i < 0 {
			err = ErrUnknownEntry
			return
		}
		c.mode = Editing
		c.target = id
		c.draft = list[i].Text
		c.lastErr = ""
	})
	return err
}

// SetDraft replaces the edit draft.
func (c *Controller) SetDraft(text string) error {
	var err error
	c.update(func() {
		if c.mode != Editing {
			err = ErrWrongMode
			return
		}
		c.draft = text
	})
	return err
}

// CancelEdit leaves edit mode without saving.
func (c *Controller) CancelEdit() {
	c.update(func() {
		if c.mode == Editing {
			c.mode = Browse
			c.target = ""
			c.draft = ""
		}
	})
}

// SaveEdit sends the draft. On success the entry's text is replaced in place
// and edit mode ends; on failure edit mode and the draft are kept.
func (c *Controller) SaveEdit(ctx context.Context) (*entry.Entry, error) {
	var (
		day   entry.DateKey
		id    entry.ID
		draft string
		err   error
	)
	c.update(func() {
		if c.mode != Editing {
			err = ErrWrongMode
			return
		}
		draft = strings.TrimSpace(c.draft)
		if draft == "" {
			err = ErrValidationSkipped
			return
		}
		if err = c.beginLocked(); err != nil {
			return
		}
		day, id = c.day, c.target
	})
	if err != nil {
		return nil, err
	}

	updated, err := c.client.UpdateEntry(ctx, id, api.TextPatch(draft))

	c.update(func() {
		c.busy = false
		if err != nil {
			c.failLocked(err, i18n.MsgUpdateFailed)
			return
		}
		if list := c.days[day]; list != nil {
			if i := entry.IndexOf(list, id); i >= 0 {
				next := list[i].Clone()
				next.Text = draft
				if updated != nil && updated.Text != "" {
					next.Text = updated.Text
				}
				list[i] = next
			}
		}
		if c.mode == Editing && c.target == id {
			c.mode = Browse
			c.target = ""
			c.draft = ""
		}
	})
	if err != nil {
		return nil, fmt.Errorf("daylog: update %s: %w", id, err)
	}
	return updated, nil
}

// RequestDelete asks for confirmation before deleting the entry with id.
func (c *Controller) RequestDelete(id entry.ID) error {
	var err error
	c.update(func() {
		if c.state != Loaded {
			err = ErrNotLoaded
			return
		}
		if entry.IndexOf(c.days[c.day], id) < 0 {
			err = ErrUnknownEntry
			return
		}
		c.mode = PendingDelete
		c.target = id
		c.draft = ""
		c.lastErr = ""
	})
	return err
}

// CancelDelete drops a pending delete.
func (c *Controller) CancelDelete() {
	c.update(func() {
		if c.mode == PendingDelete {
			c.mode = Browse
			c.target = ""
		}
	})
}

// ConfirmDelete deletes the pending entry. On success it is removed from the
// list; on failure the list is unchanged.
func (c *Controller) ConfirmDelete(ctx context.Context) (entry.ID, error) {
	var (
		day entry.DateKey
		id  entry.ID
		err error
	)
	c.update(func() {
		if c.mode != PendingDelete {
			err = ErrWrongMode
			return
		}
		if err = c.beginLocked(); err != nil {
			return
		}
		day, id = c.day, c.target
	})
	if err != nil {
		return "", err
	}

	err = c.client.DeleteEntry(ctx, id)

	c.update(func() {
		c.busy = false
		if c.mode == PendingDelete && c.target == id {
			c.mode = Browse
			c.target = ""
		}
		if err != nil {
			c.failLocked(err, i18n.MsgDeleteFailed)
			return
		}
		if list := c.days[day]; list != nil {
			if i := entry.IndexOf(list, id); i >= 0 {
				c.days[day] = append(list[:i:i], list[i+1:]...)
			}
		}
	})
	if err != nil {
		return "", fmt.Errorf("daylog: delete %s: %w", id, err)
	}
	return id, nil
}
