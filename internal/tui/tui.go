// Package tui renders the comment list with Bubble Tea and forwards key
// presses to the controller.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/idilsaglam/comments/internal/controller"
	"github.com/idilsaglam/comments/internal/model"
)

// listItem adapts a Comment to bubbles/list.Item
type listItem struct {
	c model.Comment
}

func (i listItem) Title() string       { return i.c.Name }
func (i listItem) Description() string { return i.c.Body }
func (i listItem) FilterValue() string { return i.c.Name + " " + i.c.Body }

// Two lines per comment, one blank line between.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 2 }
func (d itemDelegate) Spacing() int                              { return 1 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	width := m.Width() - 8
	if width < 10 {
		width = 10
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render(">") + " "
	}
	name := fmt.Sprintf("%s %s", labelStyle.Render("Name:"), truncate(it.c.Name, width))
	body := fmt.Sprintf("%s %s", labelStyle.Render("Body:"), truncate(it.c.Body, width))
	fmt.Fprintf(w, "%s%s\n  %s", prefix, name, body)
}

// truncate flattens s to one line of at most n terminal cells.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, n, "…")
}

type keyMap struct {
	add    key.Binding
	update key.Binding
	remove key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		update: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "update")),
		remove: key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.add, k.update, k.remove, k.quit}
}

type modelTUI struct {
	ctx     context.Context
	ctrl    *controller.List
	list    list.Model
	spinner spinner.Model
	keys    keyMap

	width, height int
}

func newModel(ctx context.Context, ctrl *controller.List) modelTUI {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = "Comments"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("comment", "comments")
	// "d" deletes here, so it no longer pages.
	l.KeyMap.NextPage = key.NewBinding(
		key.WithKeys("right", "l", "pgdown", "f"),
		key.WithHelp("→/l/pgdn", "next page"),
	)

	keys := newKeyMap()
	l.AdditionalShortHelpKeys = keys.bindings
	l.AdditionalFullHelpKeys = keys.bindings

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(pendingStyle))

	return modelTUI{
		ctx:     ctx,
		ctrl:    ctrl,
		list:    l,
		spinner: sp,
		keys:    keys,
		width:   80,
		height:  24,
	}
}

// Run shows the list until the user quits, then tears the controller down.
func Run(ctx context.Context, ctrl *controller.List, opts ...tea.ProgramOption) error {
	defer ctrl.Close()
	p := tea.NewProgram(newModel(ctx, ctrl), opts...)
	_, err := p.Run()
	return err
}

func (m modelTUI) Init() tea.Cmd {
	return tea.Batch(m.ctrl.Load(m.ctx), m.spinner.Tick)
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case controller.LoadedMsg, controller.MutationMsg:
		m.ctrl.Apply(msg)
		cmd := m.sync()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.ctrl.Close()
			return m, tea.Quit
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			if msg.String() == "esc" && m.list.FilterState() == list.FilterApplied {
				break
			}
			m.ctrl.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.add):
			cmd := m.ctrl.Add()
			syncCmd := m.sync()
			m.list.Select(len(m.list.Items()) - 1)
			return m, tea.Batch(cmd, syncCmd)
		case key.Matches(msg, m.keys.update):
			c, ok := m.selected()
			if !ok {
				return m, nil
			}
			cmd := m.ctrl.Update(c)
			syncCmd := m.sync()
			return m, tea.Batch(cmd, syncCmd)
		case key.Matches(msg, m.keys.remove):
			c, ok := m.selected()
			if !ok {
				return m, nil
			}
			cmd := m.ctrl.Delete(c)
			syncCmd := m.sync()
			return m, tea.Batch(cmd, syncCmd)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) selected() (model.Comment, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Comment{}, false
	}
	return it.c, true
}

// sync pushes the controller's comments into the list widget.
func (m *modelTUI) sync() tea.Cmd {
	comments := m.ctrl.Comments()
	items := make([]list.Item, 0, len(comments))
	for _, c := range comments {
		items = append(items, listItem{c: c})
	}
	cmd := m.list.SetItems(items)
	m.resize()
	return cmd
}

func (m *modelTUI) resize() {
	h := m.height - 2 // frame
	if m.ctrl.Loading() {
		h--
	}
	if m.ctrl.Err() != "" {
		h--
	}
	if h < 4 {
		h = 4
	}
	m.list.SetSize(m.width-4, h)
}

func (m modelTUI) View() string {
	var b strings.Builder
	st := m.ctrl.State()
	if st.Loading {
		b.WriteString(m.spinner.View() + " " + mutedStyle.Render("Loading comments...") + "\n")
	}
	if st.Err != "" {
		b.WriteString(errorStyle.Render("✖ "+st.Err) + "\n")
	}
	if !st.Loading && len(st.Comments) == 0 && st.Err == "" {
		b.WriteString(mutedStyle.Render("no comments") + " " +
			accentStyle.Render("press a to add one") + "\n")
	}
	b.WriteString(m.list.View())
	return panelString(b.String())
}

// Summary is the line printed after the program exits.
func Summary(ctrl *controller.List) string {
	st := ctrl.State()
	s := successStyle.Render("✔") + fmt.Sprintf(" %d comments", len(st.Comments))
	if st.Err != "" {
		s += "  " + errorStyle.Render("last error: "+st.Err)
	}
	return s
}
