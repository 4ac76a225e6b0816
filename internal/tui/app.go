// Package tui provides the interactive triage terminal UI for sift.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(fgColor).
			Background(primaryColor).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor).
			Padding(0, 1)

	overdueStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	doneStyle = lipgloss.NewStyle().
			Foreground(successColor)

	contextStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

const (
	tabInbox = iota
	tabToday
)

// App is the triage TUI application model.
type App struct {
	client       *Client
	tab          int
	suggestions  []SuggestionItem
	today        *TodayGroups
	todayFlat    []TodoItem
	selectedIdx  int
	spin         spinner.Model
	width        int
	height       int
	loading      bool
	message      string
	daemonOnline bool
}

// New creates a new TUI application.
func New(apiAddr string) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return &App{
		client:  NewClient(apiAddr),
		spin:    sp,
		loading: true,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type suggestionsLoadedMsg struct{ items []SuggestionItem }
type todayLoadedMsg struct{ groups *TodayGroups }
type actionDoneMsg struct{ message string }
type syncDoneMsg struct{ extracted int }
type daemonStatusMsg struct{ online bool }
type errMsg struct{ err error }

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spin.Tick,
		a.fetchSuggestions(),
		a.fetchToday(),
		a.checkDaemon(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit

		case "tab":
			if a.tab == tabInbox {
				a.tab = tabToday
			} else {
				a.tab = tabInbox
			}
			a.selectedIdx = 0
			return a, a.refresh()

		case "up", "k":
			if a.selectedIdx > 0 {
				a.selectedIdx--
			}

		case "down", "j":
			if a.selectedIdx < a.listLen()-1 {
				a.selectedIdx++
			}

		case "r":
			a.loading = true
			return a, a.refresh()

		case "s":
			a.message = "Syncing sources..."
			return a, a.triggerSync()

		case "a", "enter":
			if a.tab == tabInbox {
				return a, a.acceptSelected("today")
			}
			return a, a.toggleSelected()

		case "m":
			if a.tab == tabInbox {
				return a, a.acceptSelected("tomorrow")
			}

		case "w":
			if a.tab == tabInbox {
				return a, a.acceptSelected("this_week")
			}

		case "o":
			if a.tab == tabInbox {
				return a, a.acceptSelected("this_month")
			}

		case "b":
			if a.tab == tabInbox {
				return a, a.acceptSelected("backlog")
			}

		case "d":
			if a.tab == tabInbox {
				return a, a.discardSelected()
			}

		case " ":
			if a.tab == tabToday {
				return a, a.toggleSelected()
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case suggestionsLoadedMsg:
		a.loading = false
		a.suggestions = msg.items
		a.clampSelection()

	case todayLoadedMsg:
		a.loading = false
		a.today = msg.groups
		a.todayFlat = flattenToday(msg.groups)
		a.clampSelection()

	case actionDoneMsg:
		a.message = msg.message
		return a, a.refresh()

	case syncDoneMsg:
		a.message = fmt.Sprintf("Sync complete: %d new suggestions", msg.extracted)
		return a, a.refresh()

	case daemonStatusMsg:
		a.daemonOnline = msg.online

	case errMsg:
		a.loading = false
		a.message = "Error: " + msg.err.Error()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) listLen() int {
	if a.tab == tabInbox {
		return len(a.suggestions)
	}
	return len(a.todayFlat)
}

func (a *App) clampSelection() {
	if n := a.listLen(); a.selectedIdx >= n {
		a.selectedIdx = max(0, n-1)
	}
}

func flattenToday(g *TodayGroups) []TodoItem {
	if g == nil {
		return nil
	}
	var out []TodoItem
	out = append(out, g.Overdue...)
	out = append(out, g.Today...)
	out = append(out, g.ThisWeek...)
	out = append(out, g.Completed...)
	return out
}

// --- Commands ---

func (a *App) fetchSuggestions() tea.Cmd {
	return func() tea.Msg {
		items, err := a.client.ListSuggestions()
		if err != nil {
			return errMsg{err}
		}
		return suggestionsLoadedMsg{items}
	}
}

func (a *App) fetchToday() tea.Cmd {
	return func() tea.Msg {
		groups, err := a.client.Today()
		if err != nil {
			return errMsg{err}
		}
		return todayLoadedMsg{groups}
	}
}

func (a *App) refresh() tea.Cmd {
	return tea.Batch(a.fetchSuggestions(), a.fetchToday(), a.checkDaemon())
}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		online, _ := a.client.CheckHealth()
		return daemonStatusMsg{online}
	}
}

func (a *App) acceptSelected(shortcut string) tea.Cmd {
	if a.selectedIdx >= len(a.suggestions) {
		return nil
	}
	sug := a.suggestions[a.selectedIdx]
	return func() tea.Msg {
		if err := a.client.Accept(sug.ID, shortcut); err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{fmt.Sprintf("Accepted (%s): %s", shortcut, sug.Title)}
	}
}

func (a *App) discardSelected() tea.Cmd {
	if a.selectedIdx >= len(a.suggestions) {
		return nil
	}
	sug := a.suggestions[a.selectedIdx]
	return func() tea.Msg {
		if err := a.client.Discard(sug.ID); err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{"Discarded: " + sug.Title}
	}
}

func (a *App) toggleSelected() tea.Cmd {
	if a.selectedIdx >= len(a.todayFlat) {
		return nil
	}
	todo := a.todayFlat[a.selectedIdx]
	return func() tea.Msg {
		if err := a.client.Toggle(todo.ID); err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{"Toggled: " + todo.Title}
	}
}

func (a *App) triggerSync() tea.Cmd {
	return func() tea.Msg {
		extracted, err := a.client.TriggerSync()
		if err != nil {
			return errMsg{err}
		}
		return syncDoneMsg{extracted}
	}
}

// --- View ---

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemonStatus := onlineStyle.Render("● daemon")
	if !a.daemonOnline {
		daemonStatus = offlineStyle.Render("○ daemon")
	}

	b.WriteString(titleStyle.Render("SIFT"))
	b.WriteString("  " + daemonStatus)
	b.WriteString("\n\n")

	inboxTab := tabStyle.Render(fmt.Sprintf("Inbox (%d)", len(a.suggestions)))
	todayTab := tabStyle.Render("Today")
	if a.tab == tabInbox {
		inboxTab = activeTabStyle.Render(fmt.Sprintf("Inbox (%d)", len(a.suggestions)))
	} else {
		todayTab = activeTabStyle.Render("Today")
	}
	b.WriteString(inboxTab + " " + todayTab + "\n\n")

	if a.loading {
		b.WriteString(itemStyle.Render(a.spin.View() + " loading..."))
		b.WriteString("\n")
	} else if a.tab == tabInbox {
		b.WriteString(a.inboxView())
	} else {
		b.WriteString(a.todayView())
	}

	b.WriteString("\n")
	if a.message != "" {
		b.WriteString(itemStyle.Render(a.message) + "\n")
	}
	b.WriteString(helpStyle.Render(a.helpLine()))

	return b.String()
}

func (a *App) helpLine() string {
	if a.tab == tabInbox {
		return "  a today · m tomorrow · w week · o month · b backlog · d discard · s sync · tab today · r refresh · q quit"
	}
	return "  enter/space toggle · s sync · tab inbox · r refresh · q quit"
}

func (a *App) inboxView() string {
	if len(a.suggestions) == 0 {
		return itemStyle.Render("Inbox zero. Nothing to triage.") + "\n"
	}

	var b strings.Builder
	for i, sug := range a.suggestions {
		line := sug.Title
		if sug.Context != "" {
			line += "  " + contextStyle.Render(sug.Context)
		}
		if i == a.selectedIdx {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString(itemStyle.Render(line) + "\n")
		}
	}
	return b.String()
}

func (a *App) todayView() string {
	if a.today == nil {
		return itemStyle.Render("No data.") + "\n"
	}

	var b strings.Builder
	idx := 0

	section := func(name string, todos []TodoItem, render func(TodoItem) string) {
		if len(todos) == 0 {
			return
		}
		b.WriteString(sectionStyle.Render(name) + "\n")
		for _, t := range todos {
			line := render(t)
			if idx == a.selectedIdx {
				b.WriteString(selectedStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString(itemStyle.Render(line) + "\n")
			}
			idx++
		}
	}

	section("OVERDUE", a.today.Overdue, func(t TodoItem) string {
		return overdueStyle.Render(fmt.Sprintf("%s (%dd late)", t.Title, t.DaysOverdue))
	})
	section("TODAY", a.today.Today, func(t TodoItem) string {
		return t.Title
	})
	section("THIS WEEK", a.today.ThisWeek, func(t TodoItem) string {
		return t.Title
	})
	section("DONE TODAY", a.today.Completed, func(t TodoItem) string {
		return doneStyle.Render("✓ " + t.Title)
	})

	if idx == 0 {
		return itemStyle.Render("All clear! No pending tasks.") + "\n"
	}
	return b.String()
}
