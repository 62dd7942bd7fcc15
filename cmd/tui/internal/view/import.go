package view

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Daunny/CRM-AUGU-sub000/internal/importer"
	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

type importState int

const (
	importStateLoading importState = iota
	importStateProposalSelect
	importStateCharsetSelect
	importStateFilePick
	importStateImporting
	importStateResult
)

// charsetOptions are offered before picking a file; "" lets the importer
// detect the encoding.
var charsetOptions = []string{"", "utf-8", "euc-kr", "windows-1252"}

// ImportModel replaces the items of one of the user's DRAFT proposals with
// the rows of an item sheet.
type ImportModel struct {
	CommonModel
	session       Session
	importService *importer.Service

	state         importState
	draftList     list.Model
	target        *proposal.Proposal
	charsetCursor int
	filePicker    filepicker.Model

	status string
	err    error
}

func NewImportModel(session Session, impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt", ".tsv"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		session:       session,
		importService: impSvc,
		filePicker:    fp,
		status:        "Loading draft proposals...",
	}
}

func (m ImportModel) Title() string { return "Import Items" }

func (m ImportModel) ShortHelp() string { return "Esc: back | Enter: select" }

func (m ImportModel) Init() tea.Cmd {
	return m.loadDraftsCmd()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		switch m.state {
		case importStateProposalSelect:
			return m.updateProposalSelect(msg)
		case importStateCharsetSelect:
			return m.updateCharsetSelect(msg)
		}

	case loadDraftsMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		items := make([]list.Item, len(msg.drafts))
		for i, p := range msg.drafts {
			items[i] = draftItem{proposal: p, decimals: m.session.Decimals}
		}

		m.draftList = list.New(items, list.NewDefaultDelegate(), 80, 20)
		m.draftList.Title = "Import items into which draft?"
		m.draftList.SetShowHelp(false)
		m.state = importStateProposalSelect

		return m, nil

	case importResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("Imported %d items into %s, new total %s (version %d).",
			len(msg.proposal.Items), msg.proposal.Code,
			FormatAmount(msg.proposal.TotalAmount, m.session.Decimals), msg.proposal.Version)

		return m, nil
	}

	switch m.state {
	case importStateProposalSelect:
		var cmd tea.Cmd
		m.draftList, cmd = m.draftList.Update(msg)

		return m, cmd
	case importStateFilePick:
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.state = importStateImporting
			m.status = fmt.Sprintf("Importing from %s...", path)

			return m, m.importCmd(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateCharsetSelect:
		m.state = importStateProposalSelect
		return m, nil
	case importStateFilePick:
		m.state = importStateCharsetSelect
		return m, nil
	case importStateResult:
		if m.err != nil && m.target == nil {
			return m, Back
		}

		m.state = importStateProposalSelect
		m.err = nil
		m.status = ""

		return m, m.loadDraftsCmd()
	}

	return m, Back
}

func (m ImportModel) updateProposalSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		item, ok := m.draftList.SelectedItem().(draftItem)
		if !ok {
			return m, nil
		}

		m.target = item.proposal
		m.state = importStateCharsetSelect

		return m, nil
	}

	var cmd tea.Cmd
	m.draftList, cmd = m.draftList.Update(msg)

	return m, cmd
}

func (m ImportModel) updateCharsetSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.charsetCursor > 0 {
			m.charsetCursor--
		}
	case tea.KeyDown:
		if m.charsetCursor < len(charsetOptions)-1 {
			m.charsetCursor++
		}
	case tea.KeyEnter:
		m.state = importStateFilePick
		return m, m.filePicker.Init()
	}

	return m, nil
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateLoading, importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateProposalSelect:
		return lipgloss.NewStyle().Padding(1).Render(m.draftList.View())
	case importStateCharsetSelect:
		return m.viewCharsetSelect()
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select item sheet for %s:\n\n%s", m.target.Code, m.filePicker.View()),
		)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewCharsetSelect() string {
	s := fmt.Sprintf("File encoding for %s:\n\n", m.target.Code)

	for i, charset := range charsetOptions {
		cursor := " "
		if i == m.charsetCursor {
			cursor = ">"
		}

		label := charset
		if label == "" {
			label = "detect automatically"
		}

		s += fmt.Sprintf("%s %s\n", cursor, label)
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(
			lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.status) +
				"\n\n(Esc to go back)",
		)
	}

	return style.Render(
		lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status) +
			"\n\n(Esc to go back)",
	)
}

// Messages

type loadDraftsMsg struct {
	drafts []*proposal.Proposal
	err    error
}

func (m ImportModel) loadDraftsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		page, err := m.session.Proposals.List(ctx, proposal.ListFilter{
			Status:    new(proposal.StatusDraft),
			CreatedBy: new(m.session.ActorID),
			PageSize:  100,
		})
		if err != nil {
			return loadDraftsMsg{err: err}
		}

		return loadDraftsMsg{drafts: page.Proposals}
	}
}

type importResultMsg struct {
	proposal *proposal.Proposal
	err      error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	target := m.target
	charset := charsetOptions[m.charsetCursor]

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		params, err := m.importService.Import(importer.FormatCSV, f, charset)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.session.Proposals.UpdateItems(ctx, m.session.ActorID, target.ID, params,
			"items imported from "+filepath.Base(path))
		if err != nil {
			return importResultMsg{err: err}
		}

		return importResultMsg{proposal: updated}
	}
}

type draftItem struct {
	proposal *proposal.Proposal
	decimals int32
}

func (i draftItem) Title() string { return i.proposal.Code + "  " + i.proposal.Title }
func (i draftItem) Description() string {
	return fmt.Sprintf("total %s, valid until %s", FormatAmount(i.proposal.TotalAmount, i.decimals), FormatDate(i.proposal.ValidUntil))
}
func (i draftItem) FilterValue() string { return i.proposal.Code + " " + i.proposal.Title }
