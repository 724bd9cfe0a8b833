package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/goal"
	"github.com/MrJamesThe3rd/ajo/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStateImporting
	importStateResult
)

// ImportModel records the deposits of a bank statement against one goal.
type ImportModel struct {
	CommonModel
	importService *importer.Service
	goal          *goal.Goal

	state      importState
	filePicker filepicker.Model
	recorded   list.Model

	status string
	err    error
}

func NewImportModel(user uuid.UUID, impSvc *importer.Service, g *goal.Goal) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		CommonModel:   CommonModel{User: user},
		importService: impSvc,
		goal:          g,
		filePicker:    fp,
	}
}

func (m ImportModel) Title() string { return "Import Statement" }

func (m ImportModel) ShortHelp() string {
	if m.state == importStateResult {
		return "Esc: back | ↑/↓: scroll"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			if m.state == importStateResult && m.err != nil {
				m.state = importStateFilePick
				m.err = nil
				m.status = ""

				return m, nil
			}

			return m, Back
		}

		if m.state == importStateResult {
			var cmd tea.Cmd
			m.recorded, cmd = m.recorded.Update(msg)

			return m, cmd
		}

	case importResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Recorded %d deposits into %s (%s format, %d rows skipped).",
			len(msg.result.Recorded), m.goal.Name, msg.result.Profile, msg.result.Skipped)

		items := make([]list.Item, len(msg.result.Recorded))
		for i, c := range msg.result.Recorded {
			items[i] = contributionItem{c: c}
		}

		m.recorded = list.New(items, contributionDelegate{}, 80, 20)
		m.recorded.Title = "Recorded contributions"
		m.recorded.SetShowStatusBar(false)
		m.recorded.SetFilteringEnabled(false)
		m.recorded.SetShowHelp(false)

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select a statement to import into %s:\n\n%s", activeStyle(m.goal.Name), m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle(m.status) + "\n\nNothing was recorded. (Esc to pick another file)")
	}

	return style.Render(okStyle(m.status) + "\n\n" + m.recorded.View() + "\n\n(Esc to go back)")
}

// Messages

type importResultMsg struct {
	result *importer.Result
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	goalID := m.goal.ID

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.importService.Import(ctx, m.User, goalID, f)

		return importResultMsg{result: result, err: err}
	}
}

// Recorded list item

type contributionItem struct {
	c *contribution.Contribution
}

func (i contributionItem) Title() string       { return "" }
func (i contributionItem) Description() string { return "" }
func (i contributionItem) FilterValue() string { return "" }

// Recorded list delegate

type contributionDelegate struct{}

func (d contributionDelegate) Height() int                             { return 1 }
func (d contributionDelegate) Spacing() int                            { return 0 }
func (d contributionDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d contributionDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(contributionItem)
	if !ok {
		return
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	fmt.Fprintf(w, "%s%s  %10s  %s", cursor, FormatDate(item.c.Date), FormatAmount(item.c.Amount), item.c.Note)
}
