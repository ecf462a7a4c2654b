package daylog

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"tableflip.dev/diary/pkg/api"
	"tableflip.dev/diary/pkg/api/apitest"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
)

const (
	email    = "diary@example.com"
	password = "secret123"
)

func newServerController(t *testing.T) (*apitest.Server, *Controller, *string) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser(email, password, "tester")
	token := srv.Token(email)
	client, err := api.New(srv.URL, api.WithTokenSource(api.TokenFunc(func() string { return token })))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return srv, New(client), &token
}

func texts(entries []*entry.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}

func TestSelectLoadsDay(t *testing.T) {
	srv, c, _ := newServerController(t)
	srv.Seed(email, "2024-03-05", "first")
	srv.Seed(email, "2024-03-05", "second")
	srv.Seed(email, "2024-03-06", "other day")

	if err := c.Select(context.Background(), "2024-03-05"); err != nil {
		t.Fatalf("select: %v", err)
	}
	snap := c.Snapshot()
	if snap.State != Loaded {
		t.Fatalf("expected loaded, got %s", snap.State)
	}
	got := texts(snap.Entries)
	if len(got) != 2 || got[0] != "second" || got[1] != "first" {
		t.Fatalf("expected server order newest first, got %v", got)
	}
}

func TestSubmitCreatesAndPrepends(t *testing.T) {
	_, c, _ := newServerController(t)
	ctx := context.Background()
	if err := c.Select(ctx, "2024-03-05"); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Submit(ctx); !errors.Is(err, ErrValidationSkipped) {
		t.Fatalf("empty compose should be skipped, got %v", err)
	}

	c.SetComposeText("test")
	created, err := c.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("created entry has no id")
	}
	snap := c.Snapshot()
	if snap.ComposeText != "" || snap.ComposeImage != "" {
		t.Fatalf("compose not cleared: %+v", snap)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].ID != created.ID {
		t.Fatalf("created entry not at the top: %v", snap.Entries)
	}

	// A refetch sees exactly one such entry.
	if err := c.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	snap = c.Snapshot()
	if len(snap.Entries) != 1 || snap.Entries[0].Text != "test" || snap.Entries[0].Date != "2024-03-05" {
		t.Fatalf("unexpected list after reload: %v", snap.Entries)
	}
}

func TestSubmitImageOnly(t *testing.T) {
	_, c, _ := newServerController(t)
	ctx := context.Background()
	if err := c.Select(ctx, "2024-03-05"); err != nil {
		t.Fatal(err)
	}
	c.AttachImage("data:image/png;base64,iVBORw0KGgo=")
	created, err := c.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !created.HasImage() {
		t.Fatalf("image not kept")
	}
	c.AttachImage("data:image/png;base64,iVBORw0KGgo=")
	c.ClearImage()
	if _, err := c.Submit(ctx); !errors.Is(err, ErrValidationSkipped) {
		t.Fatalf("cleared image should leave nothing to save, got %v", err)
	}
}

func TestSubmitFailureLeavesState(t *testing.T) {
	srv, c, _ := newServerController(t)
	ctx := context.Background()
	srv.Seed(email, "2024-03-05", "kept")
	if err := c.Select(ctx, "2024-03-05"); err != nil {
		t.Fatal(err)
	}
	srv.FailNext("POST /memory", http.StatusInternalServerError)

	c.SetComposeText("lost?")
	if _, err := c.Submit(ctx); !errors.Is(err, api.ErrRequestFailed) {
		t.Fatalf("expected request failure, got %v", err)
	}
	snap := c.Snapshot()
	if snap.ComposeText != "lost?" {
		t.Fatalf("compose text should survive a failure")
	}
	if got := texts(snap.Entries); len(got) != 1 || got[0] != "kept" {
		t.Fatalf("list mutated on failure: %v", got)
	}
	if snap.LastError != i18n.MsgCreateFailed {
		t.Fatalf("unexpected error message %q", snap.LastError)
	}
	if snap.Busy {
		t.Fatalf("busy flag left set")
	}
}

func TestUnauthorizedNeedsLogin(t *testing.T) {
	srv, c, token := newServerController(t)
	srv.Revoke(*token)

	err := c.Select(context.Background(), "2024-03-05")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	snap := c.Snapshot()
	if snap.State != NeedsLogin {
		t.Fatalf("expected needs-login, got %s", snap.State)
	}
	if snap.State == Loaded || snap.Entries != nil {
		t.Fatalf("a 401 must not load the list")
	}
	if snap.LastError != i18n.MsgLoginRequired {
		t.Fatalf("unexpected message %q", snap.LastError)
	}
}

func TestEditThenRefetch(t *testing.T) {
	srv, c, _ := newServerController(t)
	ctx := context.Background()
	seeded := srv.Seed(email, "2024-03-05", "before")
	if err := c.Select(ctx, "2024-03-05"); err != nil {
		t.Fatal(err)
	}

	if err := c.SetDraft("x"); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("draft outside edit mode should fail, got %v", err)
	}
	if err := c.StartEdit("nope"); !errors.Is(err, ErrUnknownEntry) {
		t.Fatalf("expected unknown entry, got %v", err)
	}
	if err := c.StartEdit(seeded.ID); err != nil {
		t.Fatal(err)
	}
	if snap := c.Snapshot(); snap.Mode != Editing || snap.Draft != "before" {
		t.Fatalf("edit did not start with the current text: %+v", snap)
	}

	_ = c.SetDraft("   ")
	if _, err := c.SaveEdit(ctx); !errors.Is(err, ErrValidationSkipped) {
		t.Fatalf("blank draft should be skipped, got %v", err)
	}

	_ = c.SetDraft("after")
	if _, err := c.SaveEdit(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap := c.Snapshot()
	if snap.Mode != Browse || snap.Entries[0].Text != "after" {
		t.Fatalf("edit not applied in place: %+v", snap)
	}

	if err := c.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().Entries[0].Text; got != "after" {
		t.Fatalf("refetch shows %q", got)
	}
}

func TestEditFailureKeepsDraft(t *testing.T) {
	srv, c, _ := newServerController(t)
	ctx := context.Background()
	seeded := srv.Seed(email, "2024-03-05", "before")
	if err := c.Select(ctx, "2024-03-05"); err != nil {
		t.Fatal(err)
	}
	_ = c.StartEdit(seeded.ID)
	_ = c.SetDraft("after")
	srv.FailNext("PATCH /memory/", http.StatusBadGateway)

	if _, err := c.SaveEdit(ctx); err == nil {
		t.Fatalf("expected failure")
	}
	snap := c.Snapshot()
	if snap.Mode != Editing || snap.Draft != "after" || snap.Target != seeded.ID {
		t.Fatalf("edit state lost: %+v", snap)
	}
	if snap.Entries[0].Text != "before" {
		t.Fatalf("text changed on failure")
	}

	c.CancelEdit()
	if snap := c.Snapshot(); snap.Mode != Browse || snap.Draft != "" {
		t.Fatalf("cancel did not leave edit mode")
	}
}

func TestDeleteOnlyAffectsItsDay(t *testing.T) {
	srv, c, _ := newServerController(t)
	ctx := context.Background()
	gone := srv.Seed(email, "2024-03-05", "gone")
	srv.Seed(email, "2024-03-05", "stays")
	srv.Seed(email, "2024-03-06", "next day")

	if err := c.Select(ctx, "2024-03-05"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ConfirmDelete(ctx); !errors.Is(err, ErrWrongMode) {
		t.Fatalf("confirm without request should fail, got %v", err)
	}
	if err := c.RequestDelete(gone.ID); err != nil {
		t.Fatal(err)
	}
	c.CancelDelete()
	if c.Snapshot().Mode != Browse {
		t.Fatalf("cancel should leave pending delete")
	}

	_ = c.RequestDelete(gone.ID)
	if _, err := c.ConfirmDelete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := texts(c.Snapshot().Entries); len(got) != 1 || got[0] != "stays" {
		t.Fatalf("unexpected list after delete: %v", got)
	}

	if err := c.Select(ctx, "2024-03-06"); err != nil {
		t.Fatal(err)
	}
	if got := texts(c.Snapshot().Entries); len(got) != 1 || got[0] != "next day" {
		t.Fatalf("other day changed: %v", got)
	}
}

func TestDeleteFailureLeavesList(t *testing.T) {
	srv, c, _ := newServerController(t)
	ctx := context.Background()
	e := srv.Seed(email, "2024-03-05", "stays")
	if err := c.Select(ctx, "2024-03-05"); err != nil {
		t.Fatal(err)
	}
	srv.FailNext("DELETE /memory/", http.StatusInternalServerError)
	_ = c.RequestDelete(e.ID)
	if _, err := c.ConfirmDelete(ctx); err == nil {
		t.Fatalf("expected failure")
	}
	snap := c.Snapshot()
	if len(snap.Entries) != 1 || snap.LastError != i18n.MsgDeleteFailed {
		t.Fatalf("unexpected state after failed delete: %+v", snap)
	}
}

// blockingClient answers ListEntries only when released.
type blockingClient struct {
	release map[entry.DateKey]chan struct{}
	entries map[entry.DateKey][]*entry.Entry
	create  chan struct{}
}

func (b *blockingClient) ListEntries(ctx context.Context, day entry.DateKey) ([]*entry.Entry, error) {
	if ch, ok := b.release[day]; ok {
		<-ch
	}
	return entry.CloneAll(b.entries[day]), nil
}

func (b *blockingClient) CreateEntry(ctx context.Context, day entry.DateKey, text, image string) (*entry.Entry, error) {
	if b.create != nil {
		<-b.create
	}
	e := entry.New(day, text, image)
	e.ID = "new"
	return e, nil
}

func (b *blockingClient) UpdateEntry(ctx context.Context, id entry.ID, patch api.Patch) (*entry.Entry, error) {
	return nil, errors.New("not implemented")
}

func (b *blockingClient) DeleteEntry(ctx context.Context, id entry.ID) error {
	return errors.New("not implemented")
}

func TestStaleResponseIsDropped(t *testing.T) {
	slow := make(chan struct{})
	client := &blockingClient{
		release: map[entry.DateKey]chan struct{}{"2024-03-05": slow},
		entries: map[entry.DateKey][]*entry.Entry{
			"2024-03-05": {{ID: "1", Text: "old day", Date: "2024-03-05"}},
			"2024-03-06": {{ID: "2", Text: "new day", Date: "2024-03-06"}},
		},
	}
	c := New(client)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Select(ctx, "2024-03-05") }()

	// Wait until the first select is in flight.
	for c.Day() != "2024-03-05" {
	}
	if err := c.Select(ctx, "2024-03-06"); err != nil {
		t.Fatal(err)
	}
	close(slow)
	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("expected stale, got %v", err)
	}

	snap := c.Snapshot()
	if snap.Day != "2024-03-06" || snap.State != Loaded {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if got := texts(snap.Entries); len(got) != 1 || got[0] != "new day" {
		t.Fatalf("stale response overwrote the list: %v", got)
	}
}

func TestSecondSubmitWhileBusy(t *testing.T) {
	client := &blockingClient{
		entries: map[entry.DateKey][]*entry.Entry{},
		create:  make(chan struct{}),
	}
	c := New(client)
	ctx := context.Background()
	if err := c.Select(ctx, "2024-03-05"); err != nil {
		t.Fatal(err)
	}
	c.SetComposeText("once")

	busy := make(chan struct{})
	cancel := c.OnChange(func(s Snapshot) {
		if s.Busy {
			select {
			case <-busy:
			default:
				close(busy)
			}
		}
	})
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx)
		done <- err
	}()
	<-busy
	if _, err := c.Submit(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
	close(client.create)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().Entries; len(got) != 1 {
		t.Fatalf("expected one created entry, got %d", len(got))
	}
}

func TestOnChangeNotifies(t *testing.T) {
	c := New(&blockingClient{entries: map[entry.DateKey][]*entry.Entry{}})
	var states []State
	cancel := c.OnChange(func(s Snapshot) { states = append(states, s.State) })
	if err := c.Select(context.Background(), "2024-03-05"); err != nil {
		t.Fatal(err)
	}
	cancel()
	c.SetComposeText("ignored")
	if len(states) != 2 || states[0] != Loading || states[1] != Loaded {
		t.Fatalf("unexpected transitions %v", states)
	}
}

func TestLocalizedErrors(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	c := New(client, WithPrinter(i18n.New("ko")))
	_ = c.Select(context.Background(), "2024-03-05")
	if got := c.Snapshot().LastError; got != "세션이 만료되었습니다. 다시 로그인해주세요." {
		t.Fatalf("unexpected message %q", got)
	}
}
