package proposal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

func TestPolicy_RequiredLevels(t *testing.T) {
	policy := proposal.DefaultPolicy()

	type testCase struct {
		name  string
		total int64
		want  []user.Role
	}

	tests := []testCase{
		{name: "Zero", total: 0, want: []user.Role{user.RoleOperator}},
		{name: "OperatorCeiling", total: 10_000_000, want: []user.Role{user.RoleOperator}},
		{name: "JustAboveOperator", total: 10_000_001, want: []user.Role{user.RoleOperator, user.RoleManager}},
		{name: "ManagerCeiling", total: 100_000_000, want: []user.Role{user.RoleOperator, user.RoleManager}},
		{name: "Executive", total: 120_000_000, want: []user.Role{user.RoleOperator, user.RoleManager, user.RoleExecutive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			levels := policy.RequiredLevels(tt.total)

			roles := make([]user.Role, len(levels))
			for i, l := range levels {
				assert.Equal(t, i+1, l.Number)
				roles[i] = l.Role
			}

			assert.Equal(t, tt.want, roles)
		})
	}
}

func TestPolicy_RoleLimitAndAccountable(t *testing.T) {
	policy := proposal.DefaultPolicy()

	assert.Equal(t, proposal.Limit{Amount: 10_000_000}, policy.RoleLimit(user.RoleOperator))
	assert.Equal(t, proposal.Limit{Amount: 100_000_000}, policy.RoleLimit(user.RoleManager))
	assert.True(t, policy.RoleLimit(user.RoleExecutive).Unbounded)
	assert.True(t, policy.RoleLimit(user.RoleAdmin).Unbounded)
	assert.Equal(t, proposal.Limit{}, policy.RoleLimit(user.RoleSales))

	assert.Equal(t, int64(10_000_000), policy.Accountable(1, 120_000_000))
	assert.Equal(t, int64(100_000_000), policy.Accountable(2, 120_000_000))
	assert.Equal(t, int64(120_000_000), policy.Accountable(3, 120_000_000))
	assert.Equal(t, int64(5_000_000), policy.Accountable(1, 5_000_000))
}

func TestPolicy_Validate(t *testing.T) {
	limit := func(v int64) *int64 { return &v }

	type testCase struct {
		name    string
		tiers   []proposal.Tier
		wantErr string
	}

	tests := []testCase{
		{name: "Default", tiers: proposal.DefaultPolicy().Tiers},
		{name: "Empty", wantErr: "no tiers"},
		{
			name:    "LevelGap",
			tiers:   []proposal.Tier{{Level: 2, Role: user.RoleManager}},
			wantErr: "want 1",
		},
		{
			name: "DuplicateRole",
			tiers: []proposal.Tier{
				{Level: 1, Role: user.RoleManager, Limit: limit(10)},
				{Level: 2, Role: user.RoleManager},
			},
			wantErr: "more than one tier",
		},
		{
			name: "AdminTier",
			tiers: []proposal.Tier{
				{Level: 1, Role: user.RoleAdmin},
			},
			wantErr: "unusable role",
		},
		{
			name: "DecreasingLimits",
			tiers: []proposal.Tier{
				{Level: 1, Role: user.RoleOperator, Limit: limit(100)},
				{Level: 2, Role: user.RoleManager, Limit: limit(100)},
				{Level: 3, Role: user.RoleExecutive},
			},
			wantErr: "must exceed",
		},
		{
			name: "BoundedLastTier",
			tiers: []proposal.Tier{
				{Level: 1, Role: user.RoleOperator, Limit: limit(100)},
			},
			wantErr: "must be unbounded",
		},
		{
			name: "UnboundedMiddleTier",
			tiers: []proposal.Tier{
				{Level: 1, Role: user.RoleOperator},
				{Level: 2, Role: user.RoleManager},
			},
			wantErr: "only the last tier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := proposal.Policy{Tiers: tt.tiers}.Validate()

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`tiers:
  - level: 1
    role: manager
    limit: 50000000
  - level: 2
    role: executive
`), 0o600))

	policy, err := proposal.LoadPolicy(good)
	require.NoError(t, err)
	require.Len(t, policy.Tiers, 2)
	assert.Equal(t, user.RoleManager, policy.Tiers[0].Role)
	assert.Equal(t, int64(50_000_000), *policy.Tiers[0].Limit)
	assert.Nil(t, policy.Tiers[1].Limit)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tiers:\n  - level: 1\n    role: sales\n    limit: 10\n"), 0o600))

	_, err = proposal.LoadPolicy(bad)
	assert.ErrorContains(t, err, "must be unbounded")

	_, err = proposal.LoadPolicy(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read approval policy")
}
