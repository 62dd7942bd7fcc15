package user_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

type stubRepo struct {
	users []*user.User
}

func (s *stubRepo) GetUser(_ context.Context, id uuid.UUID) (*user.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}

	return nil, user.ErrNotFound
}

func (s *stubRepo) ListActiveByRole(_ context.Context, role user.Role) ([]*user.User, error) {
	var out []*user.User

	for _, u := range s.users {
		if u.Role == role && u.Active {
			out = append(out, u)
		}
	}

	return out, nil
}

func TestService(t *testing.T) {
	manager := &user.User{ID: uuid.New(), Name: "Min-ji", Role: user.RoleManager, Active: true}
	retired := &user.User{ID: uuid.New(), Name: "Sang-hoon", Role: user.RoleManager}

	svc := user.NewService(&stubRepo{users: []*user.User{manager, retired}})
	ctx := context.Background()

	got, err := svc.Get(ctx, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, "Min-ji", got.Name)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, user.ErrNotFound)

	managers, err := svc.ListByRole(ctx, user.RoleManager)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, manager.ID, managers[0].ID)

	_, err = svc.ListByRole(ctx, user.Role("intern"))
	assert.ErrorContains(t, err, `unknown role "intern"`)
}
