package proposal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

// Tier is one row of the approval threshold table. A tier without a limit is
// unbounded and must be the last one.
type Tier struct {
	Level int       `yaml:"level"`
	Role  user.Role `yaml:"role"`
	Limit *int64    `yaml:"limit,omitempty"`
}

// Policy is the amount-to-role threshold table. It drives both approval
// routing (Workflow) and approval authority (Guard) so that the two can
// never disagree.
type Policy struct {
	Tiers []Tier `yaml:"tiers"`
}

// Limit is a monetary approval limit in minor currency units.
type Limit struct {
	Amount    int64
	Unbounded bool
}

// Covers reports whether amount is within the limit.
func (l Limit) Covers(amount int64) bool {
	return l.Unbounded || amount <= l.Amount
}

func (l Limit) String() string {
	if l.Unbounded {
		return "unbounded"
	}

	return fmt.Sprintf("%d", l.Amount)
}

// DefaultPolicy routes up to 10,000,000 to an operator, up to 100,000,000 to
// operator and manager, and anything above to all three tiers.
func DefaultPolicy() Policy {
	return Policy{Tiers: []Tier{
		{Level: 1, Role: user.RoleOperator, Limit: new(int64(10_000_000))},
		{Level: 2, Role: user.RoleManager, Limit: new(int64(100_000_000))},
		{Level: 3, Role: user.RoleExecutive},
	}}
}

// LoadPolicy reads a YAML threshold table:
//
//	tiers:
//	  - {level: 1, role: operator, limit: 10000000}
//	  - {level: 2, role: manager, limit: 100000000}
//	  - {level: 3, role: executive}
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read approval policy: %w", err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse approval policy: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}

	return p, nil
}

// Validate checks that levels are numbered 1..n, roles are distinct, limits
// strictly increase and only the last tier is unbounded.
func (p Policy) Validate() error {
	if len(p.Tiers) == 0 {
		return fmt.Errorf("approval policy: no tiers defined")
	}

	seen := make(map[user.Role]bool, len(p.Tiers))

	var prev int64 = -1

	for i, t := range p.Tiers {
		if t.Level != i+1 {
			return fmt.Errorf("approval policy: tier %d has level %d, want %d", i+1, t.Level, i+1)
		}

		if !t.Role.Valid() || t.Role == user.RoleAdmin {
			return fmt.Errorf("approval policy: tier %d has unusable role %q", t.Level, t.Role)
		}

		if seen[t.Role] {
			return fmt.Errorf("approval policy: role %q appears in more than one tier", t.Role)
		}

		seen[t.Role] = true

		last := i == len(p.Tiers)-1
		if t.Limit == nil {
			if !last {
				return fmt.Errorf("approval policy: only the last tier may be unbounded (tier %d)", t.Level)
			}

			continue
		}

		if last {
			return fmt.Errorf("approval policy: last tier %d must be unbounded", t.Level)
		}

		if *t.Limit <= prev {
			return fmt.Errorf("approval policy: tier %d limit %d must exceed %d", t.Level, *t.Limit, prev)
		}

		prev = *t.Limit
	}

	return nil
}

// Level is a required approval step resolved for a concrete amount.
type Level struct {
	Number int
	Role   user.Role
}

// RequiredLevels returns tiers 1..k where tier k is the first whose limit
// covers total.
func (p Policy) RequiredLevels(total int64) []Level {
	var levels []Level

	for _, t := range p.Tiers {
		levels = append(levels, Level{Number: t.Level, Role: t.Role})

		if t.Limit == nil || total <= *t.Limit {
			break
		}
	}

	return levels
}

// RoleLimit returns the monetary approval limit of role. Admins are unbounded;
// roles outside the table cannot approve anything.
func (p Policy) RoleLimit(role user.Role) Limit {
	if role == user.RoleAdmin {
		return Limit{Unbounded: true}
	}

	for _, t := range p.Tiers {
		if t.Role != role {
			continue
		}

		if t.Limit == nil {
			return Limit{Unbounded: true}
		}

		return Limit{Amount: *t.Limit}
	}

	return Limit{}
}

// Accountable is the part of total an approver at level vouches for: the
// whole amount capped at the level's own ceiling.
func (p Policy) Accountable(level int, total int64) int64 {
	for _, t := range p.Tiers {
		if t.Level != level {
			continue
		}

		if t.Limit != nil && *t.Limit < total {
			return *t.Limit
		}

		return total
	}

	return total
}
