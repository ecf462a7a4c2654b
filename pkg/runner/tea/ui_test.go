package teaui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/diary/pkg/api"
	"tableflip.dev/diary/pkg/api/apitest"
	"tableflip.dev/diary/pkg/calendar"
	"tableflip.dev/diary/pkg/counts"
	"tableflip.dev/diary/pkg/daylog"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/session"
	"tableflip.dev/diary/pkg/store"
)

const (
	email    = "diary@example.com"
	password = "secret123"
)

type fixture struct {
	srv   *apitest.Server
	model Model
	cache *counts.Cache
}

func newFixture(t *testing.T, g calendar.Granularity) *fixture {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser(email, password, "tester")
	token := srv.Token(email)
	client, err := api.New(srv.URL, api.WithTokenSource(api.TokenFunc(func() string { return token })))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	cache := counts.New(client)
	m := New(context.Background(), Deps{
		Controller:  daylog.New(client),
		Counts:      cache,
		Msgs:        i18n.New("en"),
		Granularity: g,
		WeekStart:   time.Sunday,
		Today:       "2024-03-05",
	})
	return &fixture{srv: srv, model: m, cache: cache}
}

// drain runs cmd and every command it produces, feeding messages back into m.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, []tea.Cmd(msg)...)
		default:
			updated, nextCmd := m.Update(msg)
			m = assertModel(t, updated)
			queue = append(queue, nextCmd)
		}
	}
	return m
}

func assertModel(t *testing.T, model tea.Model) Model {
	t.Helper()
	m, ok := model.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}
	return m
}

func keyPress(key string) tea.KeyPressMsg {
	switch key {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	}
	r := []rune(key)[0]
	return tea.KeyPressMsg{Code: r, Text: key}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		updated, cmd := m.Update(keyPress(k))
		m = drain(t, assertModel(t, updated), cmd)
	}
	return m
}

func start(t *testing.T, m Model) Model {
	t.Helper()
	return drain(t, m, m.Init())
}

func TestInitLoadsDayAndCounts(t *testing.T) {
	f := newFixture(t, calendar.Month)
	f.srv.Seed(email, "2024-03-05", "first")
	f.srv.Seed(email, "2024-03-05", "second")
	f.srv.Seed(email, "2024-03-20", "later")

	m := start(t, f.model)
	if m.snap.State != daylog.Loaded || len(m.snap.Entries) != 2 {
		t.Fatalf("day not loaded: %+v", m.snap)
	}
	if f.cache.Count("2024-03-05") != 2 || f.cache.Count("2024-03-20") != 1 {
		t.Fatalf("unexpected counts %v", f.cache.Snapshot())
	}
	view := m.View()
	for _, want := range []string{"March 2024", "second", "first", "·2"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestNavigateDays(t *testing.T) {
	f := newFixture(t, calendar.Month)
	f.srv.Seed(email, "2024-03-06", "wednesday")
	m := start(t, f.model)

	m = press(t, m, "l")
	if m.view.Ref != "2024-03-06" || m.snap.Day != "2024-03-06" {
		t.Fatalf("expected next day selected, got %s / %s", m.view.Ref, m.snap.Day)
	}
	if len(m.snap.Entries) != 1 || m.snap.Entries[0].Text != "wednesday" {
		t.Fatalf("unexpected entries %+v", m.snap.Entries)
	}

	m = press(t, m, "j")
	if m.view.Ref != "2024-03-13" {
		t.Fatalf("down should move a week, got %s", m.view.Ref)
	}
	m = press(t, m, "]")
	if m.view.Ref != "2024-04-13" || m.view.Month() != "2024-04" {
		t.Fatalf("next period should move a month, got %s", m.view.Ref)
	}
	m = press(t, m, "t")
	if m.view.Ref != "2024-03-05" {
		t.Fatalf("today should return to 2024-03-05, got %s", m.view.Ref)
	}
	m = press(t, m, "w")
	if m.view.Granularity != calendar.Week {
		t.Fatalf("expected week view, got %s", m.view.Granularity)
	}
}

func TestComposeCreatesEntry(t *testing.T) {
	f := newFixture(t, calendar.Month)
	m := start(t, f.model)

	m = press(t, m, "a")
	if m.mode != modeCompose {
		t.Fatalf("expected compose mode, got %d", m.mode)
	}
	m = press(t, m, "enter")
	if m.mode != modeCompose || m.status != i18n.MsgEmptyCompose {
		t.Fatalf("empty compose should be refused, status %q", m.status)
	}

	m.input.SetValue("sunny walk")
	m = press(t, m, "enter")
	if m.mode != modeBrowse {
		t.Fatalf("expected browse mode after submit, got %d", m.mode)
	}
	if len(m.snap.Entries) != 1 || m.snap.Entries[0].Text != "sunny walk" {
		t.Fatalf("entry not shown: %+v", m.snap.Entries)
	}
	if f.cache.Count("2024-03-05") != 1 {
		t.Fatalf("badge not adjusted: %v", f.cache.Snapshot())
	}
	if m.status != i18n.MsgSaved {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestEditEntry(t *testing.T) {
	f := newFixture(t, calendar.Month)
	f.srv.Seed(email, "2024-03-05", "typo")
	m := start(t, f.model)

	m = press(t, m, "tab", "e")
	if m.mode != modeEdit || m.input.Value() != "typo" {
		t.Fatalf("edit should start from the entry text, got %d %q", m.mode, m.input.Value())
	}
	m.input.SetValue("fixed")
	m = press(t, m, "enter")
	if m.mode != modeBrowse || m.snap.Entries[0].Text != "fixed" {
		t.Fatalf("edit not saved: %+v", m.snap.Entries)
	}
}

func TestDeleteConfirmAndCancel(t *testing.T) {
	f := newFixture(t, calendar.Month)
	f.srv.Seed(email, "2024-03-05", "keep")
	f.srv.Seed(email, "2024-03-05", "drop")
	m := start(t, f.model)

	m = press(t, m, "tab", "d")
	if m.mode != modeConfirmDelete {
		t.Fatalf("expected confirm mode, got %d", m.mode)
	}
	m = press(t, m, "n")
	if m.mode != modeBrowse || len(m.snap.Entries) != 2 || m.snap.Mode != daylog.Browse {
		t.Fatalf("cancel should keep entries: %+v", m.snap)
	}

	m = press(t, m, "d", "y")
	if len(m.snap.Entries) != 1 || m.snap.Entries[0].Text != "keep" {
		t.Fatalf("newest entry should be deleted: %+v", m.snap.Entries)
	}
	if f.cache.Count("2024-03-05") != 1 {
		t.Fatalf("badge not adjusted: %v", f.cache.Snapshot())
	}
}

func TestLoginFlow(t *testing.T) {
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser(email, password, "tester")
	srv.Seed(email, "2024-03-05", "hello")

	creds, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	gate := session.New(creds)
	if err := gate.Init(); err != nil {
		t.Fatal(err)
	}
	client, err := api.New(srv.URL, api.WithTokenSource(gate), api.WithUnauthorizedHook(gate.Expire))
	if err != nil {
		t.Fatal(err)
	}
	m := New(context.Background(), Deps{
		Controller: daylog.New(client),
		Counts:     counts.New(client),
		Gate:       gate,
		Auth:       client,
		Msgs:       i18n.New("en"),
		Today:      entry.DateKey("2024-03-05"),
	})

	m = start(t, m)
	if m.mode != modeLoginEmail {
		t.Fatalf("expected login prompt, got %d", m.mode)
	}
	m.input.SetValue(email)
	m = press(t, m, "enter")
	if m.mode != modeLoginPassword {
		t.Fatalf("expected password prompt, got %d", m.mode)
	}
	m.input.SetValue(password)
	m = press(t, m, "enter")

	if !gate.Authenticated() {
		t.Fatalf("login did not store a token")
	}
	if m.mode != modeBrowse || len(m.snap.Entries) != 1 {
		t.Fatalf("day should load after login: mode %d %+v", m.mode, m.snap)
	}
}

func TestEmptyDayView(t *testing.T) {
	f := newFixture(t, calendar.Week)
	m := start(t, f.model)
	if !strings.Contains(m.View(), i18n.MsgNoMemories) {
		t.Fatalf("expected empty message:\n%s", m.View())
	}
}

func TestPasteIntoCompose(t *testing.T) {
	f := newFixture(t, calendar.Month)
	m := start(t, f.model)

	updated, _ := m.Update(tea.PasteMsg("pasted text"))
	m = assertModel(t, updated)
	if m.input.Value() != "" {
		t.Fatalf("paste while browsing should be ignored, got %q", m.input.Value())
	}

	m = press(t, m, "a")
	updated, _ = m.Update(tea.PasteMsg("pasted text"))
	m = assertModel(t, updated)
	if m.input.Value() != "pasted text" {
		t.Fatalf("paste not inserted, got %q", m.input.Value())
	}
	m = press(t, m, "enter")
	if len(m.snap.Entries) != 1 || m.snap.Entries[0].Text != "pasted text" {
		t.Fatalf("pasted entry not saved: %+v", m.snap.Entries)
	}
}

func TestLoginRejectsBadEmailInKorean(t *testing.T) {
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)

	creds, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	gate := session.New(creds)
	if err := gate.Init(); err != nil {
		t.Fatal(err)
	}
	client, err := api.New(srv.URL, api.WithTokenSource(gate))
	if err != nil {
		t.Fatal(err)
	}
	m := start(t, New(context.Background(), Deps{
		Controller: daylog.New(client),
		Gate:       gate,
		Auth:       client,
		Msgs:       i18n.New("ko"),
		Today:      entry.DateKey("2024-03-05"),
	}))

	m.input.SetValue("nope")
	m = press(t, m, "enter")
	m.input.SetValue(password)
	m = press(t, m, "enter")

	if want := "이메일 주소 형식이 올바르지 않습니다."; m.status != want {
		t.Fatalf("expected %q, got %q", want, m.status)
	}
	if m.mode != modeLoginEmail {
		t.Fatalf("expected to ask for the email again, got %d", m.mode)
	}
	if len(srv.Requests()) != 0 {
		t.Fatalf("nothing should be sent, saw %v", srv.Requests())
	}
}
