package prompt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/hcpctl/internal/purge"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

// yesNoModel answers a y/N question. Anything but y is no.
type yesNoModel struct {
	question string
	theme    Theme
	answered bool
	yes      bool
}

func (m yesNoModel) Init() tea.Cmd { return nil }

func (m yesNoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(key.String()) {
	case "y":
		m.answered, m.yes = true, true
	case "n", "enter", "esc", "ctrl+c", "q":
		m.answered = true
	default:
		return m, nil
	}
	return m, tea.Quit
}

func (m yesNoModel) View() string {
	if m.answered {
		if m.yes {
			return m.question + " yes\n"
		}
		return m.question + " " + m.theme.Cancel.Render("no") + "\n"
	}
	return m.question + " " + m.theme.Dim.Render("[y/N]") + " "
}

// retypeModel asks the operator to type a value back.
type retypeModel struct {
	input    textinput.Model
	theme    Theme
	label    string
	done     bool
	canceled bool
}

func newRetype(label, placeholder string, theme Theme) retypeModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	ti.Width = 40
	ti.Focus()
	return retypeModel{input: ti, theme: theme, label: label}
}

func (m retypeModel) Init() tea.Cmd { return textinput.Blink }

func (m retypeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.canceled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m retypeModel) View() string {
	if m.canceled {
		return m.theme.Quit.Render("Cancelled.")
	}
	if m.done {
		return ""
	}
	return m.label + "\n" + m.input.View() + "\n" + m.theme.Dim.Render("(esc to cancel)") + "\n"
}

// ConfirmRunPurge shows the plan and asks for a y/N answer.
func (p *Prompter) ConfirmRunPurge(ctx context.Context, plan *purge.RunPlan) (bool, error) {
	fmt.Fprintln(p.Out, RenderRunPlan(plan, p.Theme))
	q := fmt.Sprintf("Apply %d action(s) to workspace %s?", len(plan.Actions), plan.Workspace.ID)
	final, err := p.run(ctx, yesNoModel{question: q, theme: p.Theme})
	if err != nil {
		return false, err
	}
	if !final.(yesNoModel).yes {
		return false, purge.ErrDeclined
	}
	return true, nil
}

// ConfirmStatePurge prints the warning banner and asks for the workspace
// id to be typed back.
func (p *Prompter) ConfirmStatePurge(ctx context.Context, ws *tfe.Workspace, sv *tfe.StateVersion) (string, error) {
	fmt.Fprintln(p.Out, RenderStateBanner(ws, sv, p.Theme))
	label := fmt.Sprintf("Type the workspace id %s to continue:", p.Theme.Highlight.Render(ws.ID))
	final, err := p.run(ctx, newRetype(label, ws.ID, p.Theme))
	if err != nil {
		return "", err
	}
	m := final.(retypeModel)
	if m.canceled {
		return "", purge.ErrDeclined
	}
	return m.input.Value(), nil
}

// RenderRunPlan lists the planned actions in execution order.
func RenderRunPlan(plan *purge.RunPlan, theme Theme) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", theme.Title.Render(fmt.Sprintf("Run purge plan for %s (%s)", plan.Workspace.Attributes.Name, plan.Workspace.ID)))
	for i, a := range plan.Actions {
		action := string(a.Action)
		if a.Action == purge.ActionCancel {
			action = theme.Danger.Render(action)
		}
		line := fmt.Sprintf("%2d. %-8s %s  %-16s %s", i+1, action, a.Run.ID, a.Run.Status(), formatTime(a.Run.CreatedAt()))
		if a.Current {
			line += theme.Dim.Render("  (current run)")
		}
		b.WriteString(theme.Item.Render(line) + "\n")
	}
	return b.String()
}

// RenderStateBanner is the warning shown before a state purge.
func RenderStateBanner(ws *tfe.Workspace, sv *tfe.StateVersion, theme Theme) string {
	rows := []string{
		theme.Danger.Render("DESTRUCTIVE: this replaces the workspace state with an empty one."),
		"",
		fmt.Sprintf("Workspace:  %s (%s)", ws.Attributes.Name, ws.ID),
		fmt.Sprintf("Resources:  %d will be forgotten, not destroyed", ws.Attributes.ResourceCount),
	}
	if sv != nil {
		rows = append(rows,
			fmt.Sprintf("State:      serial %d, lineage %s", sv.Attributes.Serial, sv.Attributes.Lineage),
		)
	}
	rows = append(rows, "", "Real infrastructure keeps running but Terraform will no longer track it.")
	return theme.Banner.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
