package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/screensync/backend/subm"
)

const (
	emptyTitle = "No submissions yet"
	emptyHint  = "When a contractor submits a confirmation, it will appear here."

	timeFormat = "2006-01-02 15:04"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3498db"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f8c8d"))
	tableStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

type loadFunc func(ctx context.Context) ([]subm.Subm, error)

type listedMsg struct {
	subms []subm.Subm
	err   error
}

type model struct {
	view    subm.ListView
	spinner spinner.Model
	table   table.Model

	load    loadFunc
	timeout time.Duration
	now     func() time.Time
}

func newModel(load loadFunc, timeout time.Duration) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3498db"))

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Contractor", Width: 24},
			{Title: "Company", Width: 24},
			{Title: "Submitted", Width: 16},
			{Title: "Screenshot", Width: 60},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	return model{
		view:    subm.LoadingView(),
		spinner: s,
		table:   t,
		load:    load,
		timeout: timeout,
		now:     time.Now,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m model) fetch() tea.Cmd {
	load, timeout := m.load, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		subms, err := load(ctx)
		return listedMsg{subms: subms, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if m.view.State == subm.ListLoading {
				return m, nil
			}
			m.view = subm.LoadingView()
			return m, tea.Batch(m.spinner.Tick, m.fetch())
		}
	case listedMsg:
		m.view = subm.ViewOf(msg.subms, msg.err)
		if m.view.State == subm.ListLoaded {
			m.table.SetRows(rows(m.view.Subms, m.now()))
			m.table.GotoTop()
		}
		return m, nil
	case spinner.TickMsg:
		if m.view.State != subm.ListLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if h := msg.Height - 6; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil
	}

	if m.view.State == subm.ListLoaded {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func rows(subms []subm.Subm, now time.Time) []table.Row {
	res := make([]table.Row, len(subms))
	for i, s := range subms {
		res[i] = table.Row{
			s.ContractorName,
			s.CompanyName,
			s.DisplayTime(now).Local().Format(timeFormat),
			s.ScreenshotUrl,
		}
	}
	return res
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Submitted confirmations"))
	b.WriteString("\n\n")

	switch m.view.State {
	case subm.ListLoading:
		b.WriteString(fmt.Sprintf("%s Loading submissions...\n", m.spinner.View()))
		b.WriteString(hintStyle.Render("q quit"))
	case subm.ListFailed:
		b.WriteString(errorStyle.Render("Failed to load submissions: " + m.view.ErrMsg()))
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("r retry • q quit"))
	case subm.ListLoaded:
		if len(m.view.Subms) == 0 {
			b.WriteString(emptyTitle + "\n")
			b.WriteString(hintStyle.Render(emptyHint))
			b.WriteString("\n\n")
		} else {
			b.WriteString(tableStyle.Render(m.table.View()))
			b.WriteString("\n")
			b.WriteString(hintStyle.Render(fmt.Sprintf("%d submissions", len(m.view.Subms))))
			b.WriteString("\n")
		}
		b.WriteString(hintStyle.Render("↑/↓ scroll • r reload • q quit"))
	}
	b.WriteString("\n")
	return b.String()
}
