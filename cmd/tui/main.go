package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ajo/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ajo/internal/config"
	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	contributionStore "github.com/MrJamesThe3rd/ajo/internal/contribution/store"
	"github.com/MrJamesThe3rd/ajo/internal/database"
	"github.com/MrJamesThe3rd/ajo/internal/goal"
	goalStore "github.com/MrJamesThe3rd/ajo/internal/goal/store"
	"github.com/MrJamesThe3rd/ajo/internal/group"
	groupStore "github.com/MrJamesThe3rd/ajo/internal/group/store"
	"github.com/MrJamesThe3rd/ajo/internal/importer"
	"github.com/MrJamesThe3rd/ajo/pkg/logging"
)

type model struct {
	user                uuid.UUID
	appName             string
	goalService         *goal.Service
	groupService        *group.Service
	contributionService *contribution.Service
	importService       *importer.Service

	currentView View

	goalsView  view.GoalsModel
	groupsView view.GroupsModel
	importView view.ImportModel
}

type View int

const (
	ViewMenu   View = 0
	ViewGoals  View = 1
	ViewGroups View = 2
	ViewImport View = 3
)

func initialModel() model {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(false); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	user, err := cfg.TUIUser()
	if err != nil {
		slog.Error("no user to act as", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logPath := filepath.Join(os.TempDir(), "ajo-tui.log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		slog.Error("failed to open log file", "path", logPath, "error", err)
		os.Exit(1)
	}

	logging.SetupWriter(logFile, logging.ParseLevel(cfg.App.LogLevel), true)

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	goalSvc := goal.NewService(goalStore.New(db))
	contributionSvc := contribution.NewService(contributionStore.New(db))
	groupSvc := group.NewService(groupStore.New(db), group.WithInviteCodes(cfg.Invite.Length, cfg.Invite.Attempts))

	return model{
		user:                user,
		appName:             cfg.App.Name,
		goalService:         goalSvc,
		groupService:        groupSvc,
		contributionService: contributionSvc,
		importService:       importer.NewService(contributionSvc),
		currentView:         ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewGoals
				m.goalsView = view.NewGoalsModel(m.user, m.goalService, m.contributionService)

				return m, m.goalsView.Init()
			case "2":
				m.currentView = ViewGroups
				m.groupsView = view.NewGroupsModel(m.user, m.groupService, m.contributionService)

				return m, m.groupsView.Init()
			}
		}
	case view.ImportGoalMsg:
		m.currentView = ViewImport
		m.importView = view.NewImportModel(m.user, m.importService, msg.Goal)

		return m, m.importView.Init()
	case view.BackMsg:
		if m.currentView == ViewImport {
			m.currentView = ViewGoals
			return m, m.goalsView.Init()
		}

		m.currentView = ViewMenu

		return m, nil
	}

	switch m.currentView {
	case ViewGoals:
		var newModel tea.Model
		newModel, cmd = m.goalsView.Update(msg)
		m.goalsView = newModel.(view.GoalsModel)
	case ViewGroups:
		var newModel tea.Model
		newModel, cmd = m.groupsView.Update(msg)
		m.groupsView = newModel.(view.GroupsModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			m.appName + " TUI\n\n" +
				"1. Savings Goals\n" +
				"2. Savings Groups\n\n" +
				"q. Quit",
		)
	case ViewGoals:
		return m.goalsView.View()
	case ViewGroups:
		return m.groupsView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
