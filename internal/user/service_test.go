package user

import (
	"context"
	"testing"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	users  []DBUser
	stos   map[int64][]string
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{stos: map[int64][]string{}}
}

func (f *fakeRepo) GetUserByTelegramID(_ context.Context, telegramID int64) (*DBUser, error) {
	for _, u := range f.users {
		if u.TelegramID == telegramID {
			return &u, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (f *fakeRepo) GetUserByID(_ context.Context, id int64) (*DBUser, error) {
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (f *fakeRepo) UpsertUser(_ context.Context, user DBUser) (*DBUser, error) {
	for i, u := range f.users {
		if u.TelegramID == user.TelegramID {
			user.ID = u.ID
			f.users[i] = user
			return &user, nil
		}
	}
	f.nextID++
	user.ID = f.nextID
	f.users = append(f.users, user)
	return &user, nil
}

func (f *fakeRepo) GetUsersByRole(_ context.Context, role model.Role) ([]DBUser, error) {
	var out []DBUser
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetTechniciansBySTO(_ context.Context, sto string) ([]DBUser, error) {
	var out []DBUser
	for _, u := range f.users {
		for _, s := range f.stos[u.ID] {
			if s == sto && u.Role == model.RoleTechnician {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) ReplaceSTOs(_ context.Context, userID int64, stos []string) error {
	f.stos[userID] = stos
	return nil
}

func TestRegisterUpsertsByTelegramID(t *testing.T) {
	ctx := context.Background()
	svc := NewDefaultService(newFakeRepo())

	first, err := svc.Register(ctx, RegisterRequest{TelegramID: 100, ChatID: 100, Name: " Budi ", Role: model.RoleTechnician})
	require.NoError(t, err)
	assert.Equal(t, "Budi", first.Name)

	second, err := svc.Register(ctx, RegisterRequest{TelegramID: 100, ChatID: 100, Name: "Budi S", Role: model.RoleHD})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.RoleHD, second.Role)
}

func TestRegisterValidates(t *testing.T) {
	svc := NewDefaultService(newFakeRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{TelegramID: 1, Name: " ", Role: model.RoleHD})
	assert.Error(t, err)
	_, err = svc.Register(context.Background(), RegisterRequest{TelegramID: 1, Name: "Ani", Role: "Admin"})
	assert.Error(t, err)
}

func TestFindByTelegramIDMissing(t *testing.T) {
	user, err := NewDefaultService(newFakeRepo()).FindByTelegramID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestTechniciansFallsBackToRole(t *testing.T) {
	ctx := context.Background()
	svc := NewDefaultService(newFakeRepo())

	budi, err := svc.Register(ctx, RegisterRequest{TelegramID: 1, ChatID: 1, Name: "Budi", Role: model.RoleTechnician})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{TelegramID: 2, ChatID: 2, Name: "Citra", Role: model.RoleTechnician})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{TelegramID: 3, ChatID: 3, Name: "Dewi", Role: model.RoleHD})
	require.NoError(t, err)

	require.NoError(t, svc.SetSTOs(ctx, budi.ID, []string{"cbb", "CBB"}))

	mapped, err := svc.Technicians(ctx, "CBB")
	require.NoError(t, err)
	require.Len(t, mapped, 1)
	assert.Equal(t, "Budi", mapped[0].Name)

	fallback, err := svc.Technicians(ctx, "TAS")
	require.NoError(t, err)
	assert.Len(t, fallback, 2)
}

func TestSetSTOsRejectsUnknownCode(t *testing.T) {
	assert.Error(t, NewDefaultService(newFakeRepo()).SetSTOs(context.Background(), 1, []string{"XXX"}))
}

func TestUpsertUserQuery(t *testing.T) {
	query, _, err := upsertUserQuery(DBUser{TelegramID: 1, Name: "A", Role: model.RoleHD}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "INSERT INTO users (telegram_id,chat_id,name,username,role) VALUES ($1,$2,$3,$4,$5)")
	assert.Contains(t, query, "ON CONFLICT (telegram_id) DO UPDATE SET")
	assert.Contains(t, query, "RETURNING id, telegram_id")
}
