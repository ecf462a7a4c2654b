// Package i18n holds the user-facing messages of the diary in English and
// Korean.
package i18n

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tableflip.dev/diary/pkg/api"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/session"
)

// Message keys double as the English text.
const (
	MsgLoginFailed      = "Login failed. Check your email and password."
	MsgLoginRequired    = "Your session has ended. Please log in again."
	MsgLoggedIn         = "Logged in."
	MsgLoggedOut        = "Logged out."
	MsgSignedUp         = "Account created. You can log in now."
	MsgSignupFailed     = "Sign up failed."
	MsgLoadFailed       = "Could not load memories."
	MsgCountsFailed     = "Could not load memory counts."
	MsgCreateFailed     = "Could not save the memory."
	MsgUpdateFailed     = "Could not update the memory."
	MsgDeleteFailed     = "Could not delete the memory."
	MsgConfirmDelete    = "Really delete this memory?"
	MsgNoMemories       = "No memories recorded yet."
	MsgComposePrompt    = "What memories did you make today?"
	MsgEmptyCompose     = "Write something or attach a photo first."
	MsgSaved            = "Saved."
	MsgUpdated          = "Updated."
	MsgDeleted          = "Deleted."
	MsgCancelled        = "Cancelled."
	MsgLoading          = "Loading..."
	MsgEmail            = "Email"
	MsgPassword         = "Password"
	MsgNickname         = "Nickname"
	MsgImagePath        = "Image file"
	MsgDayTitle         = "Memories of %s"
	MsgEntryCount       = "%d memories"
	MsgNotAuthenticated = "Not logged in."
	MsgAuthenticated    = "Logged in as %s."
	MsgExpires          = "Session expires %s."
	MsgFieldRequired    = "%s is required."
	MsgFieldEmail       = "%s must be a valid email address."
	MsgFieldMin         = "%s must be at least %s characters."
	MsgFieldInvalid     = "%s is invalid."
)

var (
	korean  = language.Korean
	english = language.English
	matcher = language.NewMatcher([]language.Tag{english, korean})
)

func init() {
	ko := map[string]string{
		MsgLoginFailed:      "로그인에 실패했습니다. 이메일과 비밀번호를 확인해주세요.",
		MsgLoginRequired:    "세션이 만료되었습니다. 다시 로그인해주세요.",
		MsgLoggedIn:         "로그인했습니다.",
		MsgLoggedOut:        "로그아웃했습니다.",
		MsgSignedUp:         "회원가입이 완료되었습니다. 이제 로그인할 수 있어요.",
		MsgSignupFailed:     "회원가입에 실패했습니다.",
		MsgLoadFailed:       "추억을 불러오지 못했습니다.",
		MsgCountsFailed:     "기록 개수를 불러오지 못했습니다.",
		MsgCreateFailed:     "추억을 저장하지 못했습니다.",
		MsgUpdateFailed:     "추억을 수정하지 못했습니다.",
		MsgDeleteFailed:     "추억을 삭제하지 못했습니다.",
		MsgConfirmDelete:    "정말 삭제하시겠습니까?",
		MsgNoMemories:       "아직 기록된 추억이 없어요.",
		MsgComposePrompt:    "오늘 어떤 추억이 있었나요?",
		MsgEmptyCompose:     "내용을 입력하거나 사진을 추가해주세요.",
		MsgSaved:            "기록했습니다.",
		MsgUpdated:          "수정했습니다.",
		MsgDeleted:          "삭제했습니다.",
		MsgCancelled:        "취소했습니다.",
		MsgLoading:          "불러오는 중...",
		MsgEmail:            "이메일 주소",
		MsgPassword:         "비밀번호",
		MsgNickname:         "닉네임",
		MsgImagePath:        "사진 파일",
		MsgDayTitle:         "%s의 기록",
		MsgEntryCount:       "추억 %d개",
		MsgNotAuthenticated: "로그인되어 있지 않습니다.",
		MsgAuthenticated:    "%s(으)로 로그인되어 있습니다.",
		MsgExpires:          "세션 만료: %s",
		MsgFieldRequired:    "%s을(를) 입력해주세요.",
		MsgFieldEmail:       "%s 형식이 올바르지 않습니다.",
		MsgFieldMin:         "%s은(는) %s자 이상이어야 합니다.",
		MsgFieldInvalid:     "%s이(가) 올바르지 않습니다.",
	}
	for key, msg := range ko {
		if err := message.SetString(korean, key, msg); err != nil {
			panic(fmt.Sprintf("i18n: register %q: %v", key, err))
		}
	}
}

// Printer renders messages in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New returns a printer for lang ("ko", "en", "ko-KR", ...). Unknown
// languages fall back to English.
func New(lang string) *Printer {
	tag := english
	if parsed, err := language.Parse(strings.TrimSpace(lang)); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = []language.Tag{english, korean}[idx]
		}
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag)}
}

// Korean reports whether the printer renders Korean.
func (p *Printer) Korean() bool {
	return p.tag == korean
}

// Sprintf renders key with args.
func (p *Printer) Sprintf(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

// Error turns an error into the message a user should see. Unauthorized
// failures ask for login, rejected input names the fields, and other
// failures use fallback.
func (p *Printer) Error(err error, fallback string) string {
	var verr *session.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrUnauthorized):
		return p.Sprintf(MsgLoginRequired)
	case errors.As(err, &verr):
		return p.Validation(verr)
	default:
		return p.Sprintf(fallback)
	}
}

var fieldNames = map[string]string{
	"email":    MsgEmail,
	"password": MsgPassword,
	"nickname": MsgNickname,
}

// Validation renders every rejected field, one sentence each.
func (p *Printer) Validation(err *session.ValidationError) string {
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		name := f.Field
		if key, ok := fieldNames[f.Field]; ok {
			name = p.Sprintf(key)
		}
		switch f.Tag {
		case "required":
			msgs = append(msgs, p.Sprintf(MsgFieldRequired, name))
		case "email":
			msgs = append(msgs, p.Sprintf(MsgFieldEmail, name))
		case "min":
			msgs = append(msgs, p.Sprintf(MsgFieldMin, name, f.Param))
		default:
			msgs = append(msgs, p.Sprintf(MsgFieldInvalid, name))
		}
	}
	return strings.Join(msgs, " ")
}

// MonthTitle renders "March 2024" or "2024년 3월".
func (p *Printer) MonthTitle(month entry.MonthKey) string {
	t := month.First()
	if p.Korean() {
		return fmt.Sprintf("%d년 %d월", t.Year(), int(t.Month()))
	}
	return t.Format("January 2006")
}

// DayTitle renders "March 5, 2024" or "2024년 03월 05일".
func (p *Printer) DayTitle(day entry.DateKey) string {
	t := day.Time()
	if p.Korean() {
		return t.Format("2006년 01월 02일")
	}
	return t.Format("January 2, 2006")
}

// LongDayTitle adds the weekday: "Sunday, March 31, 2024" or "2024년 3월 31일 일요일".
func (p *Printer) LongDayTitle(day entry.DateKey) string {
	t := day.Time()
	if p.Korean() {
		return fmt.Sprintf("%d년 %d월 %d일 %s요일", t.Year(), int(t.Month()), t.Day(), koWeekdays[t.Weekday()])
	}
	return t.Format("Monday, January 2, 2006")
}

// Weekday renders a two cell weekday label.
func (p *Printer) Weekday(d time.Weekday) string {
	if p.Korean() {
		return koWeekdays[d]
	}
	return d.String()[:2]
}

// CreatedAt renders an entry's creation time in the local zone.
func (p *Printer) CreatedAt(ts entry.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	t := ts.Local()
	if p.Korean() {
		ampm := "오전"
		if t.Hour() >= 12 {
			ampm = "오후"
		}
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return fmt.Sprintf("%s %s %d:%02d", t.Format("2006년 01월 02일"), ampm, h, t.Minute())
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}

var koWeekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}
