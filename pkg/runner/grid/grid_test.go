package grid

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/diary/pkg/api"
	"tableflip.dev/diary/pkg/api/apitest"
	"tableflip.dev/diary/pkg/calendar"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
)

func init() {
	color.NoColor = true
}

func newClient(t *testing.T) (*apitest.Server, *api.Client) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddUser("diary@example.com", "secret123", "tester")
	token := srv.Token("diary@example.com")
	client, err := api.New(srv.URL, api.WithTokenSource(api.TokenFunc(func() string { return token })))
	if err != nil {
		t.Fatal(err)
	}
	return srv, client
}

func TestCalendarMonth(t *testing.T) {
	srv, client := newClient(t)
	srv.Seed("diary@example.com", "2024-03-05", "a")
	srv.Seed("diary@example.com", "2024-03-05", "b")

	var buf bytes.Buffer
	c := &Calendar{
		View:    calendar.NewView("2024-03-13", calendar.Month, time.Sunday),
		Today:   "2024-03-13",
		Fetcher: client,
		Msgs:    i18n.New("en"),
		Out:     &buf,
	}
	if err := c.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "March 2024") || !strings.Contains(out, "·2") {
		t.Fatalf("unexpected grid:\n%s", out)
	}

	var fetched []string
	for _, r := range srv.Requests() {
		if strings.Contains(r, "count") {
			fetched = append(fetched, r)
		}
	}
	if len(fetched) != 1 {
		t.Fatalf("expected one counts request, got %v", fetched)
	}
}

func TestCalendarWeekJSON(t *testing.T) {
	srv, client := newClient(t)
	srv.Seed("diary@example.com", "2024-04-01", "april fool")

	var buf bytes.Buffer
	c := &Calendar{
		JSON:    true,
		View:    calendar.NewView("2024-03-31", calendar.Week, time.Sunday),
		Fetcher: client,
		Out:     &buf,
	}
	if err := c.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	var got calendarJSON
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("bad json %s: %v", buf.String(), err)
	}
	if len(got.Days) != 7 || got.Days[0] != "2024-03-31" || got.Days[6] != "2024-04-06" {
		t.Fatalf("unexpected days %v", got.Days)
	}
	if got.Counts.Get("2024-04-01") != 1 {
		t.Fatalf("week spanning months should include April counts: %v", got.Counts)
	}
}

func TestCounts(t *testing.T) {
	srv, client := newClient(t)
	srv.Seed("diary@example.com", "2024-03-05", "a")
	srv.Seed("diary@example.com", "2024-03-09", "b")

	var buf bytes.Buffer
	c := &Counts{JSON: true, Month: "2024-03", Fetcher: client, Out: &buf}
	if err := c.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	var got entry.CountMap
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Total() != 2 || got.Get("2024-03-09") != 1 {
		t.Fatalf("unexpected counts %v", got)
	}
}
