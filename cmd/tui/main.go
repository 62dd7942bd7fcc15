package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/Daunny/CRM-AUGU-sub000/cmd/tui/internal/view"
	"github.com/Daunny/CRM-AUGU-sub000/internal/config"
	"github.com/Daunny/CRM-AUGU-sub000/internal/database"
	"github.com/Daunny/CRM-AUGU-sub000/internal/importer"
	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
	proposalStore "github.com/Daunny/CRM-AUGU-sub000/internal/proposal/store"
	"github.com/Daunny/CRM-AUGU-sub000/internal/template"
	templateStore "github.com/Daunny/CRM-AUGU-sub000/internal/template/store"
	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
	userStore "github.com/Daunny/CRM-AUGU-sub000/internal/user/store"
)

type model struct {
	session       view.Session
	importService *importer.Service
	userName      string

	currentView View

	reviewView view.ReviewModel
	listView   view.ListModel
	importView view.ImportModel
}

type View int

const (
	ViewMenu   View = 0
	ViewReview View = 1
	ViewList   View = 2
	ViewImport View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	actorID, err := uuid.Parse(cfg.TUI.UserID)
	if err != nil {
		slog.Error("TUI_USER_ID must be the id of a directory user", "error", err)
		os.Exit(1)
	}

	policy, err := cfg.ApprovalPolicy()
	if err != nil {
		slog.Error("failed to load approval policy", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	userSvc := user.NewService(userStore.New(db))
	templateSvc := template.NewService(templateStore.New(db))
	proposalSvc := proposal.NewService(proposalStore.New(db), userSvc, policy, proposal.WithTemplates(templateSvc))
	impSvc := importer.NewService(cfg.Currency.Decimals)

	ctx, cancel := view.DbCtx()
	defer cancel()

	u, err := proposalSvc.Guard().Resolve(ctx, actorID)
	if err != nil {
		slog.Error("cannot act as configured user", "user_id", actorID, "error", err)
		os.Exit(1)
	}

	session := view.Session{
		Proposals: proposalSvc,
		ActorID:   actorID,
		Decimals:  cfg.Currency.Decimals,
	}

	return model{
		session:       session,
		importService: impSvc,
		userName:      fmt.Sprintf("%s (%s)", u.Name, u.Role),
		currentView:   ViewMenu,
		reviewView:    view.NewReviewModel(session),
		listView:      view.NewListModel(session),
		importView:    view.NewImportModel(session, impSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewReview
				m.reviewView = view.NewReviewModel(m.session)

				return m, m.reviewView.Init()
			case "2":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.session)

				return m, m.listView.Init()
			case "3":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.session, m.importService)

				return m, m.importView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
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
			"CRM Proposals\n" +
				lipgloss.NewStyle().Faint(true).Render("signed in as "+m.userName) + "\n\n" +
				"1. Approval Inbox\n" +
				"2. Proposals\n" +
				"3. Import Items\n\n" +
				"q. Quit",
		)
	case ViewReview:
		return m.reviewView.View()
	case ViewList:
		return m.listView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
