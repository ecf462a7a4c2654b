package teaui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"go.uber.org/zap"

	"tableflip.dev/diary/pkg/api"
	"tableflip.dev/diary/pkg/calendar"
	"tableflip.dev/diary/pkg/counts"
	"tableflip.dev/diary/pkg/daylog"
	"tableflip.dev/diary/pkg/entry"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/printers"
	"tableflip.dev/diary/pkg/session"
	"tableflip.dev/diary/pkg/timeutil"
)

// Deps are what the UI talks to.
type Deps struct {
	Controller *daylog.Controller
	Counts     *counts.Cache
	Gate       *session.Gate
	Auth       session.Authenticator
	Msgs       *i18n.Printer
	Log        *zap.Logger

	Granularity calendar.Granularity
	WeekStart   time.Weekday
	// Day is selected first, today when empty.
	Day entry.DateKey
	// Today overrides the current day, for tests.
	Today entry.DateKey
}

// Model states
type mode int

const (
	modeBrowse mode = iota
	modeCompose
	modeImage
	modeEdit
	modeConfirmDelete
	modeLoginEmail
	modeLoginPassword
	modeHelp
)

// focus targets
const (
	focusCalendar = iota
	focusEntries
)

// entry item for the day list
type entryItem struct {
	e    *entry.Entry
	msgs *i18n.Printer
}

func (it entryItem) Title() string {
	if it.e.HasImage() {
		return "[img] " + it.e.Text
	}
	return it.e.Text
}
func (it entryItem) Description() string { return it.msgs.CreatedAt(it.e.CreatedAt) }
func (it entryItem) FilterValue() string { return it.e.Text }

// Model contains UI state
type Model struct {
	ctx   context.Context
	log   *zap.Logger
	msgs  *i18n.Printer
	ctrl  *daylog.Controller
	cache *counts.Cache
	gate  *session.Gate
	auth  session.Authenticator

	sessions <-chan bool

	view  calendar.View
	today entry.DateKey
	snap  daylog.Snapshot

	mode  mode
	focus int

	entList list.Model
	input   textinput.Model

	loginEmail string
	status     string

	termWidth  int
	termHeight int

	focusDel list.DefaultDelegate
	blurDel  list.DefaultDelegate
	grid     printers.GridOptions
}

// New creates a UI model. Nothing is fetched until Init.
func New(ctx context.Context, deps Deps) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	msgs := deps.Msgs
	if msgs == nil {
		msgs = i18n.New("en")
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	today := deps.Today
	if today == "" {
		today = entry.Today()
	}
	day := deps.Day
	if day == "" {
		day = today
	}

	dFocus := list.NewDefaultDelegate()
	dBlur := list.NewDefaultDelegate()
	// Unfocused list should not visually highlight the selected item
	dBlur.Styles.SelectedTitle = dBlur.Styles.NormalTitle
	dBlur.Styles.SelectedDesc = dBlur.Styles.NormalDesc
	dFocus.SetSpacing(0)
	dBlur.SetSpacing(0)

	l := list.New([]list.Item{}, dBlur, 60, 20)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	ti := textinput.New()
	ti.CharLimit = 1000
	ti.Prompt = ""

	m := Model{
		ctx:      ctx,
		log:      log,
		msgs:     msgs,
		ctrl:     deps.Controller,
		cache:    deps.Counts,
		gate:     deps.Gate,
		auth:     deps.Auth,
		view:     calendar.NewView(day, deps.Granularity, deps.WeekStart),
		today:    today,
		mode:     modeBrowse,
		focus:    focusCalendar,
		entList:  l,
		input:    ti,
		focusDel: dFocus,
		blurDel:  dBlur,
		grid:     printers.DefaultGridOptions(),
	}
	m.updateFocus()
	return m
}

// messages
type dayLoadedMsg struct {
	day entry.DateKey
	err error
}
type countsLoadedMsg struct{ err error }
type submittedMsg struct {
	e   *entry.Entry
	err error
}
type editedMsg struct{ err error }
type deletedMsg struct {
	day entry.DateKey
	err error
}
type loggedInMsg struct{ err error }
type sessionMsg struct{ authenticated bool }

// Init loads the selected day and its counts, or asks for login.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForSession()}
	if m.gate != nil && !m.gate.Authenticated() {
		return tea.Batch(append(cmds, func() tea.Msg { return sessionMsg{authenticated: false} })...)
	}
	return tea.Batch(append(cmds, m.selectDay(m.view.Ref), m.refreshCounts())...)
}

func (m Model) waitForSession() tea.Cmd {
	if m.sessions == nil {
		return nil
	}
	ch := m.sessions
	return func() tea.Msg {
		ok, open := <-ch
		if !open {
			return nil
		}
		return sessionMsg{authenticated: ok}
	}
}

func (m *Model) selectDay(day entry.DateKey) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return dayLoadedMsg{day: day, err: ctrl.Select(ctx, day)}
	}
}

func (m *Model) refreshCounts() tea.Cmd {
	if m.cache == nil {
		return nil
	}
	cache, ctx, months := m.cache, m.ctx, m.view.CountMonths()
	return func() tea.Msg {
		fetched, err := cache.Refresh(ctx, months)
		if (!fetched && err == nil) || errors.Is(err, counts.ErrStale) {
			return nil
		}
		return countsLoadedMsg{err: err}
	}
}

// moveTo selects day, refetching its entries and the counts of the new view.
func (m *Model) moveTo(day entry.DateKey) tea.Cmd {
	if !day.Valid() {
		return nil
	}
	m.view = m.view.Select(day)
	return tea.Batch(m.selectDay(day), m.refreshCounts())
}

func (m *Model) setView(v calendar.View) tea.Cmd {
	m.view = v
	return tea.Batch(m.selectDay(v.Ref), m.refreshCounts())
}

// Update handles messages and keybindings
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.applySizes()
	case dayLoadedMsg:
		if errors.Is(msg.err, daylog.ErrStale) {
			break
		}
		m.sync()
		if m.snap.State == daylog.NeedsLogin {
			m.startLogin()
		}
	case countsLoadedMsg:
		if msg.err != nil {
			m.status = m.msgs.Error(msg.err, i18n.MsgCountsFailed)
			if errors.Is(msg.err, api.ErrUnauthorized) {
				m.startLogin()
			}
		}
	case submittedMsg:
		m.sync()
		if msg.err == nil {
			if m.cache != nil {
				m.cache.Adjust(msg.e.Date, 1)
			}
			m.status = m.msgs.Sprintf(i18n.MsgSaved)
			m.entList.Select(0)
		} else if !errors.Is(msg.err, daylog.ErrValidationSkipped) {
			m.status = m.snap.LastError
		}
		m.afterMutation(msg.err)
	case editedMsg:
		m.sync()
		if msg.err == nil {
			m.status = m.msgs.Sprintf(i18n.MsgUpdated)
			m.mode = modeBrowse
			m.input.Reset()
			m.input.Blur()
		} else {
			m.status = m.snap.LastError
		}
		m.afterMutation(msg.err)
	case deletedMsg:
		m.sync()
		if msg.err == nil {
			if m.cache != nil {
				m.cache.Adjust(msg.day, -1)
			}
			m.status = m.msgs.Sprintf(i18n.MsgDeleted)
		} else {
			m.status = m.snap.LastError
		}
		m.afterMutation(msg.err)
	case loggedInMsg:
		if msg.err != nil {
			m.status = m.loginError(msg.err)
			m.startLogin()
			break
		}
		m.status = m.msgs.Sprintf(i18n.MsgLoggedIn)
		m.mode = modeBrowse
		m.input.Reset()
		m.input.Blur()
		m.input.EchoMode = textinput.EchoNormal
		if m.cache != nil {
			m.cache.Invalidate()
		}
		cmds = append(cmds, m.selectDay(m.view.Ref), m.refreshCounts())
	case sessionMsg:
		cmds = append(cmds, m.waitForSession())
		if msg.authenticated {
			if m.mode == modeLoginEmail || m.mode == modeLoginPassword || m.snap.State == daylog.NeedsLogin {
				m.mode = modeBrowse
				m.input.Reset()
				m.input.Blur()
				m.input.EchoMode = textinput.EchoNormal
				if m.cache != nil {
					m.cache.Invalidate()
				}
				cmds = append(cmds, m.selectDay(m.view.Ref), m.refreshCounts())
			}
		} else {
			m.status = m.msgs.Sprintf(i18n.MsgLoginRequired)
			m.startLogin()
		}
	case tea.KeyPressMsg:
		switch m.mode {
		case modeHelp:
			if key := msg.String(); key == "q" || key == "esc" || key == "?" {
				m.mode = modeBrowse
			}
		case modeConfirmDelete:
			m.handleConfirm(msg, &cmds)
		case modeCompose, modeImage, modeEdit, modeLoginEmail, modeLoginPassword:
			m.handleInput(msg, &cmds)
		default:
			m.handleBrowse(msg, &cmds)
		}
	case tea.PasteMsg:
		switch m.mode {
		case modeCompose, modeImage, modeEdit, modeLoginEmail, modeLoginPassword:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// sync copies the controller state into the view.
func (m *Model) sync() {
	m.snap = m.ctrl.Snapshot()
	items := make([]list.Item, 0, len(m.snap.Entries))
	for _, e := range m.snap.Entries {
		items = append(items, entryItem{e: e, msgs: m.msgs})
	}
	idx := m.entList.Index()
	m.entList.SetItems(items)
	switch {
	case len(items) == 0:
	case idx >= len(items):
		m.entList.Select(len(items) - 1)
	case idx < 0:
		m.entList.Select(0)
	}
}

func (m *Model) afterMutation(err error) {
	if m.snap.State == daylog.NeedsLogin || errors.Is(err, session.ErrLoginRequired) {
		m.startLogin()
	}
}

func (m *Model) loginError(err error) string {
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		return m.msgs.Validation(verr)
	}
	return m.msgs.Sprintf(i18n.MsgLoginFailed)
}

func (m *Model) handleBrowse(msg tea.KeyPressMsg, cmds *[]tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		*cmds = append(*cmds, tea.Quit)
		return
	case "?":
		m.mode = modeHelp
		return
	case "tab":
		if m.focus == focusCalendar {
			m.focus = focusEntries
		} else {
			m.focus = focusCalendar
		}
		m.updateFocus()
		return
	case "[", "pgup":
		*cmds = append(*cmds, m.setView(m.view.Previous()))
		return
	case "]", "pgdown":
		*cmds = append(*cmds, m.setView(m.view.Next()))
		return
	case "w":
		next := calendar.Month
		if m.view.Granularity == calendar.Month {
			next = calendar.Week
		}
		*cmds = append(*cmds, m.setView(m.view.WithGranularity(next)))
		return
	case "t":
		*cmds = append(*cmds, m.moveTo(m.today))
		return
	case "r":
		if m.cache != nil {
			m.cache.Invalidate()
		}
		*cmds = append(*cmds, m.selectDay(m.view.Ref), m.refreshCounts())
		return
	case "L":
		m.startLogin()
		return
	case "a", "o":
		m.startInput(modeCompose, m.msgs.Sprintf(i18n.MsgComposePrompt), m.snap.ComposeText)
		return
	case "p":
		m.startInput(modeImage, m.msgs.Sprintf(i18n.MsgImagePath), "")
		return
	case "P":
		m.ctrl.ClearImage()
		m.sync()
		return
	}

	if m.focus == focusCalendar {
		day := m.view.Ref
		switch key {
		case "h", "left":
			*cmds = append(*cmds, m.moveTo(day.AddDays(-1)))
		case "l", "right":
			*cmds = append(*cmds, m.moveTo(day.AddDays(1)))
		case "k", "up":
			*cmds = append(*cmds, m.moveTo(day.AddDays(-7)))
		case "j", "down":
			*cmds = append(*cmds, m.moveTo(day.AddDays(7)))
		case "enter":
			m.focus = focusEntries
			m.updateFocus()
		}
		return
	}

	switch key {
	case "j", "down":
		m.entList.CursorDown()
	case "k", "up":
		m.entList.CursorUp()
	case "g":
		m.entList.Select(0)
	case "G":
		if n := len(m.entList.Items()); n > 0 {
			m.entList.Select(n - 1)
		}
	case "e", "i", "enter":
		if it := m.currentEntry(); it != nil {
			if err := m.ctrl.StartEdit(it.e.ID); err != nil {
				m.status = err.Error()
				return
			}
			m.sync()
			m.startInput(modeEdit, "", it.e.Text)
		}
	case "d", "x":
		if it := m.currentEntry(); it != nil {
			if err := m.ctrl.RequestDelete(it.e.ID); err != nil {
				m.status = err.Error()
				return
			}
			m.sync()
			m.mode = modeConfirmDelete
			m.status = m.msgs.Sprintf(i18n.MsgConfirmDelete) + " (y/n)"
		}
	case "h", "left", "esc":
		m.focus = focusCalendar
		m.updateFocus()
	}
}

func (m *Model) handleConfirm(msg tea.KeyPressMsg, cmds *[]tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.mode = modeBrowse
		ctrl, ctx := m.ctrl, m.ctx
		*cmds = append(*cmds, func() tea.Msg {
			day := ctrl.Day()
			_, err := ctrl.ConfirmDelete(ctx)
			return deletedMsg{day: day, err: err}
		})
	case "n", "N", "esc", "q":
		m.ctrl.CancelDelete()
		m.sync()
		m.mode = modeBrowse
		m.status = m.msgs.Sprintf(i18n.MsgCancelled)
	}
}

func (m *Model) handleInput(msg tea.KeyPressMsg, cmds *[]tea.Cmd) {
	switch msg.String() {
	case "esc":
		switch m.mode {
		case modeEdit:
			m.ctrl.CancelEdit()
			m.sync()
		case modeCompose:
			m.ctrl.SetComposeText(m.input.Value())
		case modeLoginEmail, modeLoginPassword:
			m.input.EchoMode = textinput.EchoNormal
		}
		m.mode = modeBrowse
		m.input.Reset()
		m.input.Blur()
		m.status = m.msgs.Sprintf(i18n.MsgCancelled)
	case "enter":
		m.submitInput(cmds)
	default:
		// Cursor blink commands are dropped; the cursor stays steady.
		m.input, _ = m.input.Update(msg)
	}
}

func (m *Model) submitInput(cmds *[]tea.Cmd) {
	value := m.input.Value()
	ctrl, ctx := m.ctrl, m.ctx

	switch m.mode {
	case modeCompose:
		ctrl.SetComposeText(value)
		if strings.TrimSpace(value) == "" && m.snap.ComposeImage == "" {
			m.status = m.msgs.Sprintf(i18n.MsgEmptyCompose)
			return
		}
		m.mode = modeBrowse
		m.input.Reset()
		m.input.Blur()
		*cmds = append(*cmds, func() tea.Msg {
			e, err := ctrl.Submit(ctx)
			return submittedMsg{e: e, err: err}
		})
	case modeImage:
		m.mode = modeBrowse
		m.input.Reset()
		m.input.Blur()
		if strings.TrimSpace(value) == "" {
			return
		}
		dataURL, err := entry.ImageDataURL(strings.TrimSpace(value))
		if err != nil {
			m.status = err.Error()
			return
		}
		ctrl.AttachImage(dataURL)
		m.sync()
	case modeEdit:
		if strings.TrimSpace(value) == "" {
			m.status = m.msgs.Sprintf(i18n.MsgEmptyCompose)
			return
		}
		if err := ctrl.SetDraft(value); err != nil {
			m.status = err.Error()
			return
		}
		*cmds = append(*cmds, func() tea.Msg {
			_, err := ctrl.SaveEdit(ctx)
			return editedMsg{err: err}
		})
	case modeLoginEmail:
		m.loginEmail = strings.TrimSpace(value)
		m.mode = modeLoginPassword
		m.input.Reset()
		m.input.Placeholder = m.msgs.Sprintf(i18n.MsgPassword)
		m.input.EchoMode = textinput.EchoPassword
	case modeLoginPassword:
		m.input.Reset()
		m.input.EchoMode = textinput.EchoNormal
		m.mode = modeBrowse
		m.input.Blur()
		if m.gate == nil || m.auth == nil {
			return
		}
		gate, auth := m.gate, m.auth
		creds := session.Credentials{Email: m.loginEmail, Password: value}
		*cmds = append(*cmds, func() tea.Msg {
			return loggedInMsg{err: gate.Login(ctx, auth, creds)}
		})
	}
}

func (m *Model) startInput(md mode, placeholder, value string) {
	m.mode = md
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) startLogin() {
	if m.mode == modeLoginEmail || m.mode == modeLoginPassword {
		return
	}
	m.input.EchoMode = textinput.EchoNormal
	m.startInput(modeLoginEmail, m.msgs.Sprintf(i18n.MsgEmail), m.loginEmail)
}

func (m *Model) currentEntry() *entryItem {
	if len(m.entList.Items()) == 0 {
		return nil
	}
	sel := m.entList.SelectedItem()
	if sel == nil {
		return nil
	}
	it, ok := sel.(entryItem)
	if !ok {
		return nil
	}
	return &it
}

// View renders the calendar next to the day and an optional input line.
func (m Model) View() string {
	left := printers.RenderGrid(printers.Grid{
		View:     m.view,
		Counts:   m.counts(),
		Selected: m.view.Ref,
		Today:    m.today,
	}, m.msgs, m.grid)
	gap := lipgloss.NewStyle().Padding(0, 1).Render

	right := m.entList.View()
	if m.snap.Day == m.view.Ref {
		switch m.snap.State {
		case daylog.Loading:
			right = m.msgs.Sprintf(i18n.MsgLoading)
		case daylog.Errored, daylog.NeedsLogin:
			right = m.snap.LastError
		case daylog.Loaded:
			if len(m.snap.Entries) == 0 {
				right = lipgloss.NewStyle().Italic(true).Faint(true).Render(m.msgs.Sprintf(i18n.MsgNoMemories))
			}
		}
	}
	title := lipgloss.NewStyle().Bold(true).Render(m.msgs.Sprintf(i18n.MsgDayTitle, m.msgs.LongDayTitle(m.view.Ref)))
	if days := int(m.today.Time().Sub(m.view.Ref.Time()).Hours() / 24); days > 0 {
		title += lipgloss.NewStyle().Faint(true).Render(" -" + timeutil.FormatAgo(days))
	}
	right = title + "\n\n" + right

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, gap(" "), right)

	switch m.mode {
	case modeCompose:
		prompt := m.msgs.Sprintf(i18n.MsgComposePrompt)
		if m.snap.ComposeImage != "" {
			prompt = "[img] " + prompt
		}
		body += "\n\n" + prompt + " " + m.input.View()
	case modeImage:
		body += "\n\n" + m.msgs.Sprintf(i18n.MsgImagePath) + ": " + m.input.View()
	case modeEdit:
		body += "\n\nEdit: " + m.input.View()
	case modeLoginEmail:
		body += "\n\n" + m.msgs.Sprintf(i18n.MsgEmail) + ": " + m.input.View()
	case modeLoginPassword:
		body += "\n\n" + m.msgs.Sprintf(i18n.MsgPassword) + ": " + m.input.View()
	case modeHelp:
		help := "Keys: tab switch panes, ←/→/↑/↓ move day, [/] previous/next period, w week/month, t today, a add, p attach photo, P drop photo, e edit, d delete, r reload, L login, q quit"
		body += "\n\n" + lipgloss.NewStyle().Italic(true).Render(help)
	}

	status := m.status
	if m.snap.ComposeImage != "" && m.mode != modeCompose {
		status = strings.TrimSpace("[img] " + status)
	}
	if m.snap.Busy {
		status = strings.TrimSpace(status + " …")
	}
	footer := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(fmt.Sprintf("[%s] %s", m.view.Granularity, status))
	return body + "\n\n" + footer
}

func (m Model) counts() entry.CountMap {
	if m.cache == nil {
		return nil
	}
	return m.cache.Snapshot()
}

// applySizes recalculates list sizes based on current terminal size.
func (m *Model) applySizes() {
	if m.termWidth == 0 || m.termHeight == 0 {
		return
	}
	// The calendar grid is seven cells of five plus gaps.
	right := m.termWidth - 7*6 - 4
	if right < 20 {
		right = 20
	}
	// Leave room for title, input and footer lines
	height := m.termHeight - 8
	if height < 5 {
		height = 5
	}
	m.entList.SetSize(right, height)
}

// updateFocus highlights the selection of the focused pane only.
func (m *Model) updateFocus() {
	if m.focus == focusEntries {
		m.entList.SetDelegate(m.focusDel)
	} else {
		m.entList.SetDelegate(m.blurDel)
	}
}
