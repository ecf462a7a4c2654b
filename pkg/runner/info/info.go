package info

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/printers"
	"tableflip.dev/diary/pkg/session"
	"tableflip.dev/diary/pkg/store"
)

// Info reports where the diary keeps its configuration and whether a
// session is active.
type Info struct {
	JSON bool

	Config store.Config
	Gate   *session.Gate
	Msgs   *i18n.Printer
	Out    io.Writer
	Now    func() time.Time
}

type infoJSON struct {
	ConfigPath    string    `json:"config_path,omitempty"`
	Path          string    `json:"path"`
	APIURL        string    `json:"api_url"`
	Lang          string    `json:"lang"`
	WeekStart     string    `json:"week_start"`
	Authenticated bool      `json:"authenticated"`
	Opaque        bool      `json:"opaque,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Email         string    `json:"email,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
	Expired       bool      `json:"expired,omitempty"`
}

func (n *Info) Do(ctx context.Context) error {
	if n.Out == nil {
		n.Out = color.Output
	}
	if n.Now == nil {
		n.Now = time.Now
	}
	msgs := n.Msgs
	if msgs == nil {
		msgs = i18n.New("en")
	}

	if n.Config == nil {
		var err error
		n.Config, err = store.LoadConfig()
		if err != nil {
			return err
		}
	}
	if n.Gate == nil {
		return errors.New("failed to create session")
	}

	out := infoJSON{
		ConfigPath:    os.Getenv("DIARY_CONFIG_PATH"),
		Path:          n.Config.BasePath(),
		APIURL:        n.Config.APIURL(),
		Lang:          n.Config.Lang(),
		WeekStart:     n.Config.WeekStart(),
		Authenticated: n.Gate.Authenticated(),
	}
	if out.Authenticated {
		claims, err := n.Gate.Claims()
		if err != nil {
			return err
		}
		out.Opaque = claims.Opaque
		out.Subject = claims.Subject
		out.Email = claims.Email
		out.ExpiresAt = claims.ExpiresAt
		out.Expired = claims.Expired(n.Now())
	}

	if n.JSON {
		return printers.JSON(n.Out, out)
	}

	w := n.Out
	if out.ConfigPath != "" {
		_, _ = fmt.Fprintln(w, "DIARY_CONFIG_PATH found on env, using ", out.ConfigPath)
	} else {
		_, _ = fmt.Fprintln(w, "DIARY_CONFIG_PATH env var not set")
	}
	_, _ = fmt.Fprintln(w, "Config.path:      ", out.Path)
	_, _ = fmt.Fprintln(w, "Config.api_url:   ", out.APIURL)
	_, _ = fmt.Fprintln(w, "Config.lang:      ", out.Lang)
	_, _ = fmt.Fprintln(w, "Config.week_start:", out.WeekStart)

	if !out.Authenticated {
		_, _ = fmt.Fprintln(w, msgs.Sprintf(i18n.MsgNotAuthenticated))
		return nil
	}
	who := out.Email
	if who == "" {
		who = out.Subject
	}
	if out.Opaque || who == "" {
		who = "?"
	}
	_, _ = fmt.Fprintln(w, msgs.Sprintf(i18n.MsgAuthenticated, who))
	if !out.ExpiresAt.IsZero() {
		_, _ = fmt.Fprintln(w, msgs.Sprintf(i18n.MsgExpires, out.ExpiresAt.Local().Format(time.RFC1123)))
	}
	return nil
}
