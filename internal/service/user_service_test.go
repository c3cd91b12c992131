package service

import (
	"context"
	"testing"
	"time"

	"scannimart/internal/model"
	"scannimart/internal/repository"
	"scannimart/internal/storetest"
	"scannimart/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountFixture struct {
	users UserService
	auth  AuthService
}

func newAccounts(t *testing.T) accountFixture {
	db := storetest.NewDB(t)
	userRepo := repository.NewUserRepo(db)
	users := NewUserService(userRepo, repository.NewPrivilegeRepo(db), repository.NewRoleRepo(db), nil)
	require.NoError(t, users.EnsureDefaults(context.Background(), "admin", "admin123"))
	return accountFixture{
		users: users,
		auth:  NewAuthService(userRepo, jwt.NewSigner("test-secret", "scannimart", time.Hour), nil),
	}
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	f := newAccounts(t)
	ctx := context.Background()
	require.NoError(t, f.users.EnsureDefaults(ctx, "admin", "admin123"))

	all, err := f.users.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Contains(t, all[0].Privileges, model.PrivProductCreate)
	assert.Contains(t, all[0].Privileges, model.PrivOrderVerify)
}

func TestSecurityAgentGetsGatePrivilegesOnly(t *testing.T) {
	f := newAccounts(t)
	ctx := context.Background()

	agent, err := f.users.CreateUser(ctx, &CreateUserRequest{
		Username: "gate1", Password: "secret1", FullName: "Gate One", RoleCode: model.RoleSecurity,
	}, "admin")
	require.NoError(t, err)
	assert.ElementsMatch(t, model.SecurityPrivileges, agent.GetPrivilegeCodes())

	_, err = f.users.CreateUser(ctx, &CreateUserRequest{
		Username: "gate1", Password: "secret1", FullName: "Again", RoleCode: model.RoleSecurity,
	}, "admin")
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = f.users.CreateUser(ctx, &CreateUserRequest{
		Username: "cashier", Password: "secret1", FullName: "Nope", RoleCode: "CASHIER",
	}, "admin")
	assert.Error(t, err)
}

func TestLoginAndValidate(t *testing.T) {
	f := newAccounts(t)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	first, err := f.auth.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, first.Role.Code)

	got, err := f.auth.ValidateToken(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.User.Username)

	// A second login supersedes the first token.
	_, err = f.auth.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	_, err = f.auth.ValidateToken(ctx, first.Token)
	assert.ErrorIs(t, err, ErrSessionSuperseded)
}

func TestDeactivatedUserCannotLogin(t *testing.T) {
	f := newAccounts(t)
	ctx := context.Background()
	agent, err := f.users.CreateUser(ctx, &CreateUserRequest{
		Username: "gate2", Password: "secret1", FullName: "Gate Two", RoleCode: model.RoleSecurity,
	}, "admin")
	require.NoError(t, err)

	inactive := false
	_, err = f.users.UpdateUser(ctx, agent.ID, &UpdateUserRequest{
		FullName: "Gate Two", RoleCode: model.RoleSecurity, IsActive: &inactive,
	}, "admin")
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "gate2", "secret1")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestResetPassword(t *testing.T) {
	f := newAccounts(t)
	ctx := context.Background()

	require.NoError(t, f.users.ResetPassword(ctx, "admin", "newpass1"))
	_, err := f.auth.Login(ctx, "admin", "newpass1")
	assert.NoError(t, err)
	assert.ErrorIs(t, f.users.ResetPassword(ctx, "ghost", "newpass1"), ErrUserNotFound)
}
