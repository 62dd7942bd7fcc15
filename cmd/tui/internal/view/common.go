package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

// Session is what every view needs to act on proposals: the service, the
// user the TUI acts as and the currency precision for display.
type Session struct {
	Proposals *proposal.Service
	ActorID   uuid.UUID
	Decimals  int32
}

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}
