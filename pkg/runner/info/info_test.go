package info

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/session"
	"tableflip.dev/diary/pkg/store"
)

type testConfig struct{ path string }

func (c testConfig) BasePath() string           { return c.path }
func (c testConfig) APIURL() string             { return "http://localhost:8000" }
func (c testConfig) WeekStart() string          { return "sunday" }
func (c testConfig) Lang() string               { return "en" }
func (c testConfig) HTTPTimeout() time.Duration { return 0 }

func newGate(t *testing.T, cfg store.Config) *session.Gate {
	t.Helper()
	creds, err := store.Load(cfg)
	if err != nil {
		t.Fatal(err)
	}
	g := session.New(creds)
	if err := g.Init(); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestInfoLoggedOut(t *testing.T) {
	t.Setenv("DIARY_CONFIG_PATH", "")
	cfg := testConfig{path: t.TempDir()}
	var buf bytes.Buffer
	i := &Info{Config: cfg, Gate: newGate(t, cfg), Msgs: i18n.New("en"), Out: &buf}
	if err := i.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"DIARY_CONFIG_PATH env var not set", "http://localhost:8000", i18n.MsgNotAuthenticated} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInfoOpaqueTokenJSON(t *testing.T) {
	cfg := testConfig{path: t.TempDir()}
	gate := newGate(t, cfg)
	if err := gate.Set("opaque-token"); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	i := &Info{JSON: true, Config: cfg, Gate: gate, Out: &buf}
	if err := i.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("bad json %s: %v", buf.String(), err)
	}
	if got["authenticated"] != true || got["opaque"] != true || got["path"] != cfg.path {
		t.Fatalf("unexpected info %v", got)
	}
}
