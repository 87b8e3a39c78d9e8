package ui

import (
	"context"
	"fmt"
	"strings"

	"constituencies/internal/api"
	"constituencies/internal/panel"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type focusArea int

const (
	focusSelector focusArea = iota
	focusFilter
)

// provincesMsg carries the mount-time province fetch.
type provincesMsg struct {
	res api.Result
}

// constituenciesMsg carries a finished constituency fetch.
type constituenciesMsg struct {
	cmp panel.Completion
}

// Model is the bubbletea program state. The controller owns the panel state;
// Model only tracks cursor, focus and widgets.
type Model struct {
	ctx  context.Context
	ctrl *panel.Controller

	styles  Styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	filter  textinput.Model

	cursor   int
	focus    focusArea
	ready    bool
	showHelp bool
	helpView string
	quitting bool

	width  int
	height int
}

// New builds a model around ctrl. ctx bounds every fetch the model issues.
func New(ctx context.Context, ctrl *panel.Controller, styles Styles) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	fi := textinput.New()
	fi.Placeholder = "Filter constituencies..."
	fi.Prompt = "/ "
	fi.CharLimit = 64
	fi.Width = 40
	fi.PromptStyle = styles.Prompt
	fi.TextStyle = styles.Body

	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		styles:  styles,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		filter:  fi,
		width:   80,
	}
}

// Init mounts the panel: the spinner starts and provinces load in the background.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchProvinces())
}

func (m Model) fetchProvinces() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return provincesMsg{res: ctrl.FetchProvinces(ctx)}
	}
}

func (m Model) fetchConstituencies(req panel.Request) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return constituenciesMsg{cmp: ctrl.Fetch(ctx, req)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if w := msg.Width - 8; w > 10 {
			m.filter.Width = w
		}
		if m.showHelp {
			m.helpView = renderHelp(m.width-4, m.styles.Theme.IsDark)
		}
		return m, nil

	case provincesMsg:
		m.ctrl.ApplyProvinces(msg.res)
		m.ready = true
		m.cursor = 0
		return m, nil

	case constituenciesMsg:
		if !m.ctrl.Complete(msg.cmp) {
			return m, nil
		}
		if m.ctrl.View().FilterFocused {
			m.focus = focusFilter
			return m, m.filter.Focus()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Back):
			m.showHelp = false
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		return m, nil
	}

	view := m.ctrl.View()

	if m.focus == focusFilter {
		switch {
		case key.Matches(msg, m.keys.Focus), key.Matches(msg, m.keys.Back):
			m.focus = focusSelector
			m.filter.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.ctrl.Filter(m.filter.Value())
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpView = renderHelp(m.width-4, m.styles.Theme.IsDark)

	case key.Matches(msg, m.keys.Focus):
		if view.FilterVisible {
			m.focus = focusFilter
			return m, m.filter.Focus()
		}

	case key.Matches(msg, m.keys.Up):
		if !view.SelectorDisabled && m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if !view.SelectorDisabled && m.cursor < len(view.Options)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Select):
		if view.SelectorDisabled || m.cursor >= len(view.Options) {
			return m, nil
		}
		m.filter.Reset()
		m.filter.Blur()
		req, ok := m.ctrl.Begin(view.Options[m.cursor].Value)
		if !ok {
			return m, nil
		}
		return m, m.fetchConstituencies(req)
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.ctrl.Unmount()
	m.quitting = true
	return m, tea.Quit
}

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("Zambian Constituencies"))
	b.WriteString("\n\n")

	if m.showHelp {
		b.WriteString(m.helpView)
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("? or esc to close"))
		return b.String()
	}

	if !m.ready {
		b.WriteString(m.styles.Section.Render(m.spinner.View() + " Loading provinces..."))
		b.WriteString("\n")
		return b.String()
	}

	view := m.ctrl.View()
	selector := m.renderSelector(view)
	results := m.renderResults(view)

	if m.width >= 72 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, selector, " ", results))
	} else {
		b.WriteString(selector)
		b.WriteString("\n")
		b.WriteString(m.styles.RenderDivider(m.dividerWidth()))
		b.WriteString("\n")
		b.WriteString(results)
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(m.help.View(m.keys)))
	return b.String()
}

// dividerWidth spans the terminal in the stacked layout, minus a margin.
func (m Model) dividerWidth() int {
	if w := m.width - 2; w > 8 {
		return w
	}
	return 8
}

func (m Model) renderSelector(view panel.View) string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Province"))
	b.WriteString("\n")

	if view.SelectorDisabled {
		for _, opt := range view.Options {
			b.WriteString(m.styles.Disabled.Render(opt.Label))
			b.WriteString("\n")
		}
		return m.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
	}

	for i, opt := range view.Options {
		label := opt.Label
		if opt.Value == "" {
			label = m.styles.Muted.Render(label)
		} else if opt.Value == view.Selected {
			label = m.styles.Selected.Render(label)
		}
		if i == m.cursor {
			marker := "› "
			if m.focus == focusSelector {
				marker = m.styles.Prompt.Render("› ")
			}
			b.WriteString(marker + m.styles.Cursor.Render(label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}
	return m.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderResults(view panel.View) string {
	var b strings.Builder
	title := "Constituencies"
	if view.Selected != "" {
		title = fmt.Sprintf("Constituencies of %s", view.Selected)
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")

	if view.Loading {
		b.WriteString(m.spinner.View() + " Loading...")
		b.WriteString("\n")
	}

	if view.FilterVisible {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}

	switch view.Notice {
	case panel.NoticeEmpty:
		b.WriteString(m.styles.Empty.Render(view.Notice.Text()))
		b.WriteString("\n")
	case panel.NoticeError:
		b.WriteString(m.styles.Error.Render(view.Notice.Text()))
		b.WriteString("\n")
	}

	visible := view.VisibleRows()
	for _, name := range visible {
		b.WriteString(m.styles.Body.Render("• " + name))
		b.WriteString("\n")
	}
	if view.State == panel.StatePopulated && view.FilterText != "" {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d of %d shown", len(visible), len(view.Rows))))
		b.WriteString("\n")
	}

	return m.styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}
