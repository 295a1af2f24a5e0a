package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/hourglass/internal/models"
)

var categoryStyle = lipgloss.NewStyle().Foreground(infoColor)

// TaskItem implements list.Item for the week's task list.
type TaskItem struct {
	Task models.Task
}

func (i TaskItem) FilterValue() string { return i.Task.Name + " " + i.Task.Category }
func (i TaskItem) Title() string       { return i.Task.Name }
func (i TaskItem) Description() string {
	desc := fmt.Sprintf("%s • %s • %s", i.Task.Date, categoryStyle.Render(i.Task.Category), FormatHours(i.Task.Hours))
	if i.Task.Reflection != "" {
		desc += " • " + i.Task.Reflection
	}
	return desc
}

// TaskListModel shows the tasks of the selected week.
type TaskListModel struct {
	list   list.Model
	width  int
	height int
}

// NewTaskListModel creates an empty task list.
func NewTaskListModel(th theme) *TaskListModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(th.accent).BorderForeground(th.accent)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.BorderForeground(th.accent)

	l := list.New([]list.Item{}, delegate, 80, 12)
	l.Title = "This week"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.Styles.Title = th.section

	return &TaskListModel{list: l}
}

// SetSize sets the list dimensions.
func (m *TaskListModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.list.SetSize(w, h)
}

// SetTitle changes the list heading.
func (m *TaskListModel) SetTitle(title string) { m.list.Title = title }

// SetTasks replaces the listed tasks.
func (m *TaskListModel) SetTasks(tasks []models.Task) tea.Cmd {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = TaskItem{Task: t}
	}
	return m.list.SetItems(items)
}

// Len returns the number of listed tasks.
func (m *TaskListModel) Len() int { return len(m.list.Items()) }

// Filtering reports whether the user is typing a filter.
func (m *TaskListModel) Filtering() bool { return m.list.FilterState() == list.Filtering }

// SelectedTask returns the currently selected task.
func (m *TaskListModel) SelectedTask() *models.Task {
	if item, ok := m.list.SelectedItem().(TaskItem); ok {
		t := item.Task
		return &t
	}
	return nil
}

// Update handles messages.
func (m *TaskListModel) Update(msg tea.Msg) (*TaskListModel, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list.
func (m *TaskListModel) View() string {
	return m.list.View()
}
