package auth

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/session"
)

// Login exchanges credentials for a session token and stores it.
type Login struct {
	Email    string
	Password string

	Gate *session.Gate
	Auth session.Authenticator
	Msgs *i18n.Printer
	In   io.Reader
	Out  io.Writer
}

func (n *Login) Do(ctx context.Context) error {
	if n.Gate == nil || n.Auth == nil {
		return errors.New("can not log in, no session")
	}
	msgs := messages(n.Msgs)
	out := output(n.Out)
	p := &Prompter{In: n.In, Out: out}

	var err error
	if n.Email == "" {
		if n.Email, err = p.Line(msgs.Sprintf(i18n.MsgEmail)); err != nil {
			return err
		}
	}
	if n.Password == "" {
		if n.Password, err = p.Secret(msgs.Sprintf(i18n.MsgPassword)); err != nil {
			return err
		}
	}

	err = n.Gate.Login(ctx, n.Auth, session.Credentials{Email: n.Email, Password: n.Password})
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			return &localizedError{msg: msgs.Validation(verr), err: err}
		}
		return fmt.Errorf("%s: %w", msgs.Sprintf(i18n.MsgLoginFailed), err)
	}
	_, _ = fmt.Fprintln(out, msgs.Sprintf(i18n.MsgLoggedIn))
	return nil
}

// Signup registers a new account. It does not log in.
type Signup struct {
	Email    string
	Password string
	Nickname string

	Gate *session.Gate
	Auth session.Authenticator
	Msgs *i18n.Printer
	In   io.Reader
	Out  io.Writer
}

func (n *Signup) Do(ctx context.Context) error {
	if n.Gate == nil || n.Auth == nil {
		return errors.New("can not sign up, no session")
	}
	msgs := messages(n.Msgs)
	out := output(n.Out)
	p := &Prompter{In: n.In, Out: out}

	var err error
	if n.Email == "" {
		if n.Email, err = p.Line(msgs.Sprintf(i18n.MsgEmail)); err != nil {
			return err
		}
	}
	if n.Password == "" {
		if n.Password, err = p.Secret(msgs.Sprintf(i18n.MsgPassword)); err != nil {
			return err
		}
	}
	if n.Nickname == "" {
		if n.Nickname, err = p.Line(msgs.Sprintf(i18n.MsgNickname)); err != nil {
			return err
		}
	}

	err = n.Gate.Signup(ctx, n.Auth, session.Registration{Email: n.Email, Password: n.Password, Nickname: n.Nickname})
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			return &localizedError{msg: msgs.Validation(verr), err: err}
		}
		return fmt.Errorf("%s: %w", msgs.Sprintf(i18n.MsgSignupFailed), err)
	}
	_, _ = fmt.Fprintln(out, msgs.Sprintf(i18n.MsgSignedUp))
	return nil
}

// Logout forgets the stored token.
type Logout struct {
	Gate *session.Gate
	Msgs *i18n.Printer
	Out  io.Writer
}

func (n *Logout) Do(_ context.Context) error {
	if n.Gate == nil {
		return errors.New("can not log out, no session")
	}
	if err := n.Gate.Logout(); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(output(n.Out), messages(n.Msgs).Sprintf(i18n.MsgLoggedOut))
	return nil
}

func messages(p *i18n.Printer) *i18n.Printer {
	if p == nil {
		return i18n.New("en")
	}
	return p
}

func output(w io.Writer) io.Writer {
	if w == nil {
		return color.Output
	}
	return w
}

// localizedError shows msg to the user and keeps err for errors.Is.
type localizedError struct {
	msg string
	err error
}

func (e *localizedError) Error() string { return e.msg }

func (e *localizedError) Unwrap() error { return e.err }
