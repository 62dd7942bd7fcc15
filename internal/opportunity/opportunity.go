package opportunity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("opportunity not found")

// Stage is the sales pipeline stage of an opportunity.
type Stage string

const (
	StageProspecting   Stage = "prospecting"
	StageQualification Stage = "qualification"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageWon           Stage = "won"
	StageLost          Stage = "lost"
)

// Opportunity is owned by the CRM; proposals only read it and advance its
// stage when a customer accepts.
type Opportunity struct {
	ID               uuid.UUID
	Name             string
	Stage            Stage
	Probability      int
	AccountManagerID *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
