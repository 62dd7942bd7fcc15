package proposal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

func TestFormatCode(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "202610", proposal.CodePeriod(at))
	assert.Equal(t, "PROP-202610-0001", proposal.FormatCode(at, 1))
	assert.Equal(t, "PROP-202610-0042", proposal.FormatCode(at, 42))
	assert.Equal(t, "PROP-202610-12345", proposal.FormatCode(at, 12345))
}
