// Package tui provides the interactive terminal UI for hourglass.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/hourglass/internal/aggregate"
	"github.com/fentz26/hourglass/internal/client"
	"github.com/fentz26/hourglass/internal/drafts"
	"github.com/fentz26/hourglass/internal/models"
	"github.com/fentz26/hourglass/internal/prefs"
	"github.com/jonboulle/clockwork"
)

const requestTimeout = 10 * time.Second

// Options wires the App.
type Options struct {
	Client    *client.Client
	Drafts    *drafts.Store
	Prefs     *prefs.Store // optional, supplies the accent colour
	Clock     clockwork.Clock
	WeekStart time.Weekday
	Debounce  time.Duration
	Logger    *slog.Logger
}

type mode int

const (
	modeDashboard mode = iota
	modeForm
)

// App is the main TUI application model.
type App struct {
	client    *client.Client
	drafts    *drafts.Store
	clock     clockwork.Clock
	logger    *slog.Logger
	weekday   time.Weekday
	changeOpt drafts.ChangeOptions

	prefs    *prefs.Store
	theme    theme
	tasks    *TaskListModel
	form     *Form
	mode     mode
	week     time.Time
	snapshot *client.Snapshot

	width        int
	height       int
	message      string
	loading      bool
	daemonOnline bool

	draftEvents  chan drafts.Event
	themeChanges chan string
	unsubscribe  []func()
}

// New creates a new TUI application.
func New(opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	accent := ""
	if opts.Prefs != nil {
		if bg, ok, err := opts.Prefs.Background(); err == nil && ok {
			accent = prefs.AccentFor(bg)
		}
	}
	th := newTheme(accent)

	a := &App{
		client:       opts.Client,
		drafts:       opts.Drafts,
		clock:        opts.Clock,
		logger:       opts.Logger,
		weekday:      opts.WeekStart,
		changeOpt:    drafts.ChangeOptions{Debounce: opts.Debounce},
		prefs:        opts.Prefs,
		theme:        th,
		tasks:        NewTaskListModel(th),
		week:         aggregate.WeekStart(opts.Clock.Now(), opts.WeekStart),
		draftEvents:  make(chan drafts.Event, 64),
		themeChanges: make(chan string, 1),
	}

	// Timer callbacks must never block, so events beyond the buffer are
	// dropped; the indicator re-reads Status on the next one anyway.
	a.unsubscribe = append(a.unsubscribe, opts.Drafts.Subscribe(func(ev drafts.Event) {
		select {
		case a.draftEvents <- ev:
		default:
		}
	}))
	if opts.Prefs != nil {
		a.unsubscribe = append(a.unsubscribe, opts.Prefs.Subscribe(func(c prefs.Change) {
			if c.Kind != prefs.BackgroundChanged {
				return
			}
			bg, _, err := opts.Prefs.Background()
			if err != nil {
				a.logger.Warn("read background preference", "error", err)
				return
			}
			a.pushTheme(prefs.AccentFor(bg))
		}))
	}
	return a
}

// Run starts the TUI application.
func (a *App) Run() error {
	defer a.Close()
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Close detaches the App from the draft and preference stores and drops
// the pending write of an open form.
func (a *App) Close() {
	if a.form != nil {
		a.form.binding.Unmount()
		a.form = nil
	}
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.unsubscribe = nil
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.fetchSnapshot(),
		a.checkDaemon(),
		a.waitForDraftEvent(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.mode == modeForm {
			break
		}
		if a.tasks.Filtering() {
			var cmd tea.Cmd
			a.tasks, cmd = a.tasks.Update(msg)
			return a, cmd
		}
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "r":
			return a, a.fetchSnapshot()
		case "[":
			a.week = a.week.AddDate(0, 0, -aggregate.DaysPerWeek)
			return a, a.fetchSnapshot()
		case "]":
			a.week = a.week.AddDate(0, 0, aggregate.DaysPerWeek)
			return a, a.fetchSnapshot()
		case "t":
			a.week = aggregate.WeekStart(a.clock.Now(), a.weekday)
			return a, a.fetchSnapshot()
		case "n":
			return a, a.openForm(newTaskForm(a.drafts, a.client, nil, a.clock.Now(), a.changeOpt))
		case "e", "enter":
			if task := a.tasks.SelectedTask(); task != nil {
				return a, a.openForm(newTaskForm(a.drafts, a.client, task, a.clock.Now(), a.changeOpt))
			}
			return a, nil
		case "N":
			return a, a.openForm(newNoteForm(a.drafts, a.client, nil, a.changeOpt))
		case "P":
			return a, a.openForm(newPlanForm(a.drafts, a.client, nil, a.clock.Now(), a.changeOpt))
		case "J":
			return a, a.openJournal(models.FormatDate(a.clock.Now()))
		case "b":
			return a, a.cycleBackground()
		case "x":
			if task := a.tasks.SelectedTask(); task != nil {
				return a, a.deleteTask(*task)
			}
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.tasks.SetSize(msg.Width, a.listHeight())
		if a.form != nil {
			a.form.SetWidth(msg.Width - 20)
		}
		return a, nil

	case snapshotLoadedMsg:
		a.loading = false
		a.snapshot = msg.snapshot
		a.tasks.SetTitle(a.weekTitle())
		return a, a.tasks.SetTasks(msg.snapshot.WeekTasks())

	case daemonStatusMsg:
		a.daemonOnline = msg.online
		return a, nil

	case draftEventMsg:
		// The form view re-reads Status; only keep listening here.
		return a, a.waitForDraftEvent()

	case themeChangedMsg:
		a.theme = newTheme(msg.accent)
		return a, a.waitForThemeChange()

	case openFormMsg:
		return a, a.openForm(msg.form)

	case formSubmittedMsg:
		a.closeForm()
		a.message = msg.message
		return a, a.fetchSnapshot()

	case formClosedMsg:
		a.closeForm()
		a.message = msg.message
		return a, nil

	case commandResultMsg:
		a.message = msg.message
		return a, a.fetchSnapshot()

	case errMsg:
		a.loading = false
		a.message = "Error: " + msg.err.Error()
		return a, nil
	}

	if a.mode == modeForm && a.form != nil {
		var cmd tea.Cmd
		a.form, cmd = a.form.Update(msg)
		return a, cmd
	}
	var cmd tea.Cmd
	a.tasks, cmd = a.tasks.Update(msg)
	return a, cmd
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemon := okStyle.Bold(true).Render("● DAEMON")
	if !a.daemonOnline {
		daemon = errorStyle.Render("○ DAEMON")
	}
	header := a.theme.title.Render("⌛ hourglass") + "  " + daemon + "  " + mutedStyle.Render(a.weekTitle())
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 20)) + "\n")

	switch a.mode {
	case modeForm:
		if a.form != nil {
			b.WriteString(a.form.View(a.theme))
		}
	default:
		b.WriteString(a.renderDashboard())
	}

	if a.message != "" {
		style := okStyle
		if strings.HasPrefix(a.message, "Error") {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(a.message))
	}
	b.WriteString("\n")

	status := " n:new task | e:edit | x:delete | N:note | P:plan | J:journal | b:theme | [ ]:week | t:this week | r:refresh | q:quit"
	if a.mode == modeForm {
		status = " Form: " + a.form.Key()
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 20)).Render(status))
	return b.String()
}

func (a *App) renderDashboard() string {
	if a.snapshot == nil {
		if a.loading {
			return "\n  Loading…\n"
		}
		return "\n  No data. Is the daemon running? (hourglass daemon)\n"
	}
	width := max(a.width, 60)
	goals := a.theme.panel.Render(strings.TrimRight(renderGoals(a.theme, a.snapshot.Progress(), width-4), "\n"))
	ranking := a.theme.panel.Render(strings.TrimRight(renderRanking(a.theme, a.snapshot.Ranking()), "\n"))
	daily := a.theme.panel.Render(strings.TrimRight(renderBreakdown(a.theme, a.snapshot.Breakdown(), width/2-4), "\n"))

	row := lipgloss.JoinHorizontal(lipgloss.Top, ranking, " ", daily)
	return lipgloss.JoinVertical(lipgloss.Left, goals, row, a.tasks.View())
}

func (a *App) listHeight() int {
	h := a.height - 30
	if h < 6 {
		h = 6
	}
	return h
}

func (a *App) weekTitle() string {
	end := a.week.AddDate(0, 0, aggregate.DaysPerWeek-1)
	return fmt.Sprintf("Week of %s – %s", a.week.Format("Jan 2"), end.Format("Jan 2, 2006"))
}

func (a *App) openForm(f *Form) tea.Cmd {
	if a.form != nil {
		a.form.binding.Unmount()
	}
	if a.width > 0 {
		f.SetWidth(a.width - 20)
	}
	a.form = f
	a.mode = modeForm
	a.message = ""
	if f.Restored() {
		a.message = "Restored unsaved draft"
	}
	return nil
}

func (a *App) closeForm() {
	a.form = nil
	a.mode = modeDashboard
}

type openFormMsg struct {
	form *Form
}

func (a *App) openJournal(date string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		entry, err := a.client.GetJournal(ctx, date)
		if err != nil && !client.IsNotFound(err) {
			return errMsg{err}
		}
		return openFormMsg{form: newJournalForm(a.drafts, a.client, date, entry, a.changeOpt)}
	}
}

func (a *App) fetchSnapshot() tea.Cmd {
	a.loading = true
	week := a.week
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := a.client.FetchSnapshot(ctx, week)
		if err != nil {
			return errMsg{err}
		}
		return snapshotLoadedMsg{snapshot: snap}
	}
}

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := a.client.Health(ctx)
		return daemonStatusMsg{online: err == nil}
	}
}

func (a *App) deleteTask(task models.Task) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := a.client.DeleteTask(ctx, task.ID); err != nil {
			return errMsg{err}
		}
		// The task is gone, so is any half-edited draft of it.
		if err := a.drafts.ClearDraft(TaskDraftKey(task.ID)); err != nil {
			a.logger.Warn("clear task draft", "task_id", task.ID, "error", err)
		}
		return commandResultMsg{message: "Deleted " + task.Name}
	}
}

// cycleBackground switches to the next background preset. The theme follows
// through the preference subscription as a themeChangedMsg.
func (a *App) cycleBackground() tea.Cmd {
	if a.prefs == nil {
		return nil
	}
	current, _, err := a.prefs.Background()
	if err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	next := prefs.Presets[0]
	for i, p := range prefs.Presets {
		if p.Value == current {
			next = prefs.Presets[(i+1)%len(prefs.Presets)]
			break
		}
	}
	if err := a.prefs.SetBackground(next.Value); err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	a.message = "Theme: " + next.Name
	return nil
}

func (a *App) waitForDraftEvent() tea.Cmd {
	ch := a.draftEvents
	return func() tea.Msg {
		return draftEventMsg{event: <-ch}
	}
}

// pushTheme queues accent for Update, replacing one not yet applied.
func (a *App) pushTheme(accent string) {
	for {
		select {
		case a.themeChanges <- accent:
			return
		default:
		}
		select {
		case <-a.themeChanges:
		default:
		}
	}
}

func (a *App) waitForThemeChange() tea.Cmd {
	if a.prefs == nil {
		return nil
	}
	ch := a.themeChanges
	return func() tea.Msg {
		return themeChangedMsg{accent: <-ch}
	}
}
