package edit

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"tableflip.dev/diary/pkg/api"
	"tableflip.dev/diary/pkg/api/apitest"
	"tableflip.dev/diary/pkg/daylog"
)

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

func TestEditReplacesText(t *testing.T) {
	srv, client := newClient(t)
	e := srv.Seed("diary@example.com", "2024-03-05", "tpyo")

	e2 := &Edit{Day: "2024-03-05", ID: e.ID, Text: "typo", Client: client, Out: &bytes.Buffer{}}
	if err := e2.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	got, err := client.ListEntries(context.Background(), "2024-03-05")
	if err != nil || len(got) != 1 || got[0].Text != "typo" {
		t.Fatalf("text not replaced: %+v %v", got, err)
	}
}

func TestEditUnknownEntry(t *testing.T) {
	srv, client := newClient(t)
	srv.Seed("diary@example.com", "2024-03-05", "kept")

	e := &Edit{Day: "2024-03-05", ID: "999", Text: "nope", Client: client, Out: &bytes.Buffer{}}
	if err := e.Do(context.Background()); !errors.Is(err, daylog.ErrUnknownEntry) {
		t.Fatalf("expected unknown entry, got %v", err)
	}
}
