package prompt

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type hostItem struct {
	host string
}

func (i hostItem) Title() string       { return i.host }
func (i hostItem) Description() string { return "stored Terraform CLI credentials" }
func (i hostItem) FilterValue() string { return i.host }

type chooserModel struct {
	list     list.Model
	theme    Theme
	choice   string
	quitting bool
}

func newChooser(hosts []string, theme Theme) chooserModel {
	items := make([]list.Item, 0, len(hosts))
	for _, h := range hosts {
		items = append(items, hostItem{host: h})
	}
	l := list.New(items, list.NewDefaultDelegate(), 60, min(len(hosts)*3+6, 20))
	l.Title = "Select a host (Enter to confirm, q to cancel)"
	l.Styles.Title = theme.Title
	l.Styles.PaginationStyle = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	l.Styles.HelpStyle = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	l.SetShowStatusBar(false)
	return chooserModel{list: l, theme: theme}
}

func (m chooserModel) Init() tea.Cmd {
	return nil
}

func (m chooserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if it, ok := m.list.SelectedItem().(hostItem); ok {
				m.choice = it.host
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m chooserModel) View() string {
	if m.quitting {
		return m.theme.Quit.Render("Cancelled.")
	}
	if m.choice != "" {
		return m.theme.Quit.Render(fmt.Sprintf("Using host %s", m.choice))
	}
	return "\n" + m.list.View()
}

// ChooseHost lets the operator pick one of hosts.
func (p *Prompter) ChooseHost(ctx context.Context, hosts []string) (string, error) {
	if len(hosts) == 0 {
		return "", fmt.Errorf("no hosts to choose from")
	}
	final, err := p.run(ctx, newChooser(hosts, p.Theme))
	if err != nil {
		return "", err
	}
	m := final.(chooserModel)
	if m.choice == "" {
		return "", ErrCanceled
	}
	return m.choice, nil
}
