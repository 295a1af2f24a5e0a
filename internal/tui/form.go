package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/hourglass/internal/drafts"
)

// formField describes one input of a form.
type formField struct {
	name        string
	label       string
	placeholder string
	numeric     bool
	charLimit   int
}

// submitFunc stores the form's values for real and returns a status line.
type submitFunc func(ctx context.Context, values drafts.Payload) (string, error)

// formSubmittedMsg is sent once the submit call succeeded and the draft
// was cleared.
type formSubmittedMsg struct {
	message string
}

// formClosedMsg is sent when the form is left without submitting.
type formClosedMsg struct {
	message string
}

type formErrMsg struct {
	err error
}

// Form is a draft-backed input form. Every edit is handed to the binding;
// the draft is restored at mount and cleared on submit or discard.
type Form struct {
	title      string
	binding    *drafts.Binding
	fields     []formField
	inputs     []textinput.Model
	focus      int
	submit     submitFunc
	restored   bool
	submitting bool
	err        string
	location   *time.Location
	width      int
}

// newForm mounts a form on binding. A saved draft wins over initial, which
// holds the values of the entity being edited (or nothing for a new one).
func newForm(title string, binding *drafts.Binding, fields []formField, initial drafts.Payload, submit submitFunc) *Form {
	f := &Form{
		title:    title,
		binding:  binding,
		fields:   fields,
		submit:   submit,
		location: time.Local,
		width:    60,
	}

	values := initial
	if draft, ok := binding.Restore(); ok {
		values = draft
		f.restored = true
	}

	for _, field := range fields {
		ti := textinput.New()
		ti.Placeholder = field.placeholder
		ti.Prompt = ""
		ti.CharLimit = field.charLimit
		if ti.CharLimit == 0 {
			ti.CharLimit = 512
		}
		ti.Width = f.width
		ti.SetValue(values.String(field.name))
		f.inputs = append(f.inputs, ti)
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

// Key returns the draft key of the form.
func (f *Form) Key() string { return f.binding.Key() }

// Restored reports whether the form opened with a saved draft.
func (f *Form) Restored() bool { return f.restored }

// Value returns the current text of the named field.
func (f *Form) Value(name string) string {
	for i, field := range f.fields {
		if field.name == name {
			return f.inputs[i].Value()
		}
	}
	return ""
}

// Payload returns the form's full current state. Numeric fields that
// parse are stored as numbers; anything else is kept as typed.
func (f *Form) Payload() drafts.Payload {
	var p drafts.Payload
	for i, field := range f.fields {
		raw := f.inputs[i].Value()
		if field.numeric {
			if strings.TrimSpace(raw) == "" {
				p.Set(field.name, nil)
				continue
			}
			if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				p.Set(field.name, n)
				continue
			}
		}
		p.Set(field.name, raw)
	}
	return p
}

// SetWidth resizes the inputs.
func (f *Form) SetWidth(w int) {
	f.width = w
	for i := range f.inputs {
		f.inputs[i].Width = w
	}
}

func (f *Form) setFocus(i int) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	f.inputs[f.focus].Blur()
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

// Update handles keys for the form.
func (f *Form) Update(msg tea.Msg) (*Form, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			return f, f.setFocus(f.focus + 1)
		case "shift+tab", "up":
			return f, f.setFocus(f.focus - 1)
		case "enter":
			if f.focus < len(f.inputs)-1 {
				return f, f.setFocus(f.focus + 1)
			}
			return f, f.Submit()
		case "ctrl+s":
			return f, f.Submit()
		case "esc":
			f.binding.Unmount()
			return f, func() tea.Msg { return formClosedMsg{message: "Draft kept"} }
		case "ctrl+d":
			f.binding.Unmount()
			if err := f.binding.Discard(); err != nil {
				return f, func() tea.Msg { return formErrMsg{err} }
			}
			return f, func() tea.Msg { return formClosedMsg{message: "Draft discarded"} }
		}

	case formErrMsg:
		f.submitting = false
		f.err = msg.err.Error()
		return f, nil
	}

	if len(f.inputs) == 0 {
		return f, nil
	}
	before := f.inputs[f.focus].Value()
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	if f.inputs[f.focus].Value() != before {
		f.err = ""
		if err := f.binding.Change(f.Payload()); err != nil {
			f.err = err.Error()
		}
	}
	return f, cmd
}

// Submit stores the form through submit and clears the draft on success.
// On failure the draft stays so nothing typed is lost.
func (f *Form) Submit() tea.Cmd {
	if f.submitting {
		return nil
	}
	f.submitting = true
	values := f.Payload()
	binding := f.binding
	submit := f.submit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		message, err := submit(ctx, values)
		if err != nil {
			return formErrMsg{err}
		}
		binding.Unmount()
		if err := binding.Submitted(); err != nil {
			return formSubmittedMsg{message: message + " (draft not cleared: " + err.Error() + ")"}
		}
		return formSubmittedMsg{message: message}
	}
}

// Indicator is the autosave hint shown under the form. A pending write
// hides an earlier failure until it settles.
func (f *Form) Indicator() string {
	st := f.binding.Status()
	switch {
	case st.State == drafts.StatePending:
		return "saving…"
	case st.Failed():
		return "draft not saved"
	case st.State == drafts.StateSaved:
		return "draft saved " + st.SavedAt.In(f.location).Format("15:04:05")
	default:
		return ""
	}
}

// View renders the form with the given theme.
func (f *Form) View(th theme) string {
	var b strings.Builder
	b.WriteString(th.section.Render(f.title))
	if f.restored {
		b.WriteString("  " + mutedStyle.Render("(restored draft)"))
	}
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Width(12).Foreground(mutedColor)
	for i, field := range f.fields {
		label := labelStyle.Render(field.label)
		if i == f.focus {
			label = labelStyle.Copy().Foreground(th.accent).Bold(true).Render(field.label)
		}
		b.WriteString(label + " " + f.inputs[i].View() + "\n")
	}

	b.WriteString("\n")
	indicator := f.Indicator()
	if indicator == "draft not saved" {
		b.WriteString(errorStyle.Render(indicator))
	} else {
		b.WriteString(mutedStyle.Render(indicator))
	}
	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+f.err))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab:next | enter:next/submit | ctrl+s:submit | esc:close | ctrl+d:discard draft"))
	return th.focused.Render(b.String())
}
