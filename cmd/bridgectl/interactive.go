package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserState int

const (
	stateBrowse browserState = iota
	stateDetail
)

type browserModel struct {
	err      error
	ws       *workspace
	logger   *zap.Logger
	filename string
	detail   string
	visible  []string
	filter   textinput.Model
	selected int
	state    browserState
}

type loadedMsg struct {
	err error
	ws  *workspace
}

func newBrowserModel(filename string, logger *zap.Logger) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.Focus()
	return &browserModel{
		filename: filename,
		logger:   logger,
		filter:   ti,
		state:    stateBrowse,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return tea.Batch(m.load, textinput.Blink)
}

func (m *browserModel) load() tea.Msg {
	ws, err := loadWorkspace(m.filename, m.logger)
	return loadedMsg{ws: ws, err: err}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.state == stateBrowse && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			switch m.state {
			case stateBrowse:
				if len(m.visible) > 0 {
					m.detail = m.describe(m.visible[m.selected])
					m.state = stateDetail
				}
			case stateDetail:
				m.state = stateBrowse
			}
			return m, nil

		case "esc":
			if m.state == stateDetail {
				m.state = stateBrowse
				return m, nil
			}
			return m, tea.Quit
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.ws = msg.ws
		m.applyFilter()
		return m, nil
	}

	if m.state != stateBrowse {
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *browserModel) applyFilter() {
	if m.ws == nil {
		return
	}
	needle := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for _, name := range m.ws.names {
		if strings.Contains(strings.ToLower(name), needle) {
			m.visible = append(m.visible, name)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *browserModel) describe(name string) string {
	s, err := m.ws.schemaOf(name)
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	var b strings.Builder
	b.WriteString(detailStyle.Render(s.String()))
	b.WriteString("\n\n")
	text, err := m.ws.wit(name)
	if err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("no WIT projection: %v", err)))
	} else {
		b.WriteString(text)
	}
	return b.String()
}

func (m *browserModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}
	if m.ws == nil {
		return "Loading manifest..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Bridge Types"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for i, name := range m.visible {
			line := nameStyle.Render(name) + " " + kindStyle.Render(m.ws.kindOf(name))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + name + " " + m.ws.kindOf(name)))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no matching types"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter show • esc quit"))

	case stateDetail:
		name := m.visible[m.selected]
		b.WriteString(fmt.Sprintf("%s %s\n\n", nameStyle.Render(name), kindStyle.Render(m.ws.kindOf(name))))
		b.WriteString(m.detail)
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter back • ctrl+c quit"))
	}

	return b.String()
}

func runInteractive(filename string, logger *zap.Logger) error {
	p := tea.NewProgram(newBrowserModel(filename, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
