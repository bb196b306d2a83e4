package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/almacen/almacen-ui/internal/adapters/authroles"
	"github.com/almacen/almacen-ui/internal/adapters/memory"
	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	apperrors "github.com/almacen/almacen-ui/internal/errors"
	"github.com/almacen/almacen-ui/internal/mocks"
	mockauth "github.com/almacen/almacen-ui/internal/mocks/auth"
	"github.com/almacen/almacen-ui/internal/ports"
)

var testRoles = authroles.StaticRoleMapper{GeneralAdminGroup: "almacen-admins", BranchAdminGroup: "almacen-sucursal"}

func newPasswordService(t *testing.T) (*AuthService, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore()
	stub := &mockauth.StubAuthenticator{Users: map[string]mockauth.StubUser{
		"ana":  {Password: "pw", Identity: domainauth.Identity{Name: "Ana", Token: "tok-ana", Role: domainauth.RoleGeneralAdmin}},
		"luis": {Password: "pw", Identity: domainauth.Identity{Token: "tok-luis", Groups: []string{"almacen-sucursal"}}},
	}}
	svc := NewAuthService(AuthServiceOptions{
		Providers: AuthProviders{Password: stub},
		Sessions:  store,
		Roles:     testRoles,
	})
	return svc, store
}

func TestNewAuthService_Panics(t *testing.T) {
	assert.Panics(t, func() {
		NewAuthService(AuthServiceOptions{Providers: AuthProviders{Redirect: mockauth.NewMockAuthProvider()}})
	})
	assert.Panics(t, func() {
		NewAuthService(AuthServiceOptions{Sessions: memory.NewSessionStore()})
	})
}

func TestAuthService_LoginWithPassword(t *testing.T) {
	svc, store := newPasswordService(t)
	ctx := context.Background()

	assert.True(t, svc.SupportsPassword())
	assert.False(t, svc.SupportsRedirect())

	sess, err := svc.LoginWithPassword(ctx, " ana ", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "tok-ana", sess.Token)
	assert.Equal(t, domainauth.RoleGeneralAdmin, sess.Role)
	assert.Equal(t, "Ana", sess.Name)

	stored, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, *sess, stored)
}

func TestAuthService_LoginWithPassword_RoleFromGroups(t *testing.T) {
	svc, _ := newPasswordService(t)

	sess, err := svc.LoginWithPassword(context.Background(), "luis", "pw")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleBranchAdmin, sess.Role)
}

func TestAuthService_LoginWithPassword_Rejected(t *testing.T) {
	svc, store := newPasswordService(t)

	_, err := svc.LoginWithPassword(context.Background(), "ana", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAuthService_LoginWithPassword_SaveFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	authn := mocks.NewMockPasswordAuthenticator(ctrl)

	authn.EXPECT().
		Authenticate(gomock.Any(), ports.Credentials{Username: "ana", Password: "pw"}).
		Return(domainauth.Identity{UserID: "ana", Token: "t", ExpiresAt: time.Now().Add(time.Hour)}, nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	svc := NewAuthService(AuthServiceOptions{Providers: AuthProviders{Password: authn}, Sessions: store})
	_, err := svc.LoginWithPassword(context.Background(), "ana", "pw")
	require.ErrorContains(t, err, "save session: redis down")
}

func TestAuthService_LoginWithPassword_Unsupported(t *testing.T) {
	svc := NewAuthService(AuthServiceOptions{
		Providers: AuthProviders{Redirect: mockauth.NewMockAuthProvider()},
		Sessions:  memory.NewSessionStore(),
	})
	_, err := svc.LoginWithPassword(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrLoginUnsupported)
}

func TestAuthService_RedirectFlow(t *testing.T) {
	store := memory.NewSessionStore()
	svc := NewAuthService(AuthServiceOptions{
		Providers: AuthProviders{Redirect: mockauth.NewMockAuthProvider()},
		Sessions:  store,
		Roles:     testRoles,
	})
	ctx := context.Background()

	begin, err := svc.BeginLogin(ctx, "http://localhost:8080/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", begin.AuthURL)
	assert.Equal(t, "state-1", begin.State)
	assert.Equal(t, "nonce-1", begin.Nonce)

	sess, err := svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", State: begin.State, Nonce: begin.Nonce})
	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", sess.UserID)
	assert.Equal(t, "mock-token", sess.Token)
	assert.Equal(t, domainauth.RoleGeneralAdmin, sess.Role)

	got, err := svc.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestAuthService_BeginLogin_Errors(t *testing.T) {
	boom := errors.New("idp down")
	svc := NewAuthService(AuthServiceOptions{
		Providers: AuthProviders{Redirect: &mockauth.MockAuthProvider{
			BeginFunc: func(context.Context, ports.BeginInput) (string, string, string, error) {
				return "", "", "", boom
			},
		}},
		Sessions: memory.NewSessionStore(),
	})

	_, err := svc.BeginLogin(context.Background(), "")
	require.EqualError(t, err, "redirect URL is required")

	_, err = svc.BeginLogin(context.Background(), "/cb")
	require.ErrorIs(t, err, boom)
}

func TestAuthService_CompleteLogin_Validation(t *testing.T) {
	svc := NewAuthService(AuthServiceOptions{
		Providers: AuthProviders{Redirect: mockauth.NewMockAuthProvider()},
		Sessions:  memory.NewSessionStore(),
	})
	ctx := context.Background()

	tests := []struct {
		name string
		in   CompleteLoginInput
		msg  string
	}{
		{"missing code", CompleteLoginInput{State: "s", Nonce: "n"}, "authorization code is required"},
		{"missing state", CompleteLoginInput{Code: "c", Nonce: "n"}, "state parameter is required"},
		{"missing nonce", CompleteLoginInput{Code: "c", State: "s"}, "nonce parameter is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CompleteLogin(ctx, tt.in)
			require.EqualError(t, err, tt.msg)
		})
	}
}

func TestAuthService_CompleteLogin_NoToken(t *testing.T) {
	p := mockauth.NewMockAuthProvider()
	p.DefaultUser = domainauth.Identity{UserID: "x"}
	svc := NewAuthService(AuthServiceOptions{Providers: AuthProviders{Redirect: p}, Sessions: memory.NewSessionStore()})

	_, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	require.EqualError(t, err, "identity has no token")
}

func TestAuthService_GetSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	svc := NewAuthService(AuthServiceOptions{Providers: AuthProviders{Password: &mockauth.StubAuthenticator{}}, Sessions: store})
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("empty id", func(t *testing.T) {
		_, err := svc.GetSession(ctx, "")
		assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		store.EXPECT().Get(gomock.Any(), "nope").Return(domainauth.Session{}, ports.ErrSessionNotFound)
		_, err := svc.GetSession(ctx, "nope")
		assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	})

	t.Run("expired is deleted", func(t *testing.T) {
		store.EXPECT().Get(gomock.Any(), "old").Return(domainauth.Session{ID: "old", Token: "t", ExpiresAt: now.Add(-time.Second)}, nil)
		store.EXPECT().Delete(gomock.Any(), "old").Return(nil)
		_, err := svc.GetSession(ctx, "old")
		assert.ErrorIs(t, err, ErrSessionExpired)
	})

	t.Run("expired delete fails", func(t *testing.T) {
		store.EXPECT().Get(gomock.Any(), "old").Return(domainauth.Session{ID: "old", ExpiresAt: now.Add(-time.Second)}, nil)
		store.EXPECT().Delete(gomock.Any(), "old").Return(errors.New("boom"))
		_, err := svc.GetSession(ctx, "old")
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("live", func(t *testing.T) {
		live := domainauth.Session{ID: "s", Token: "t", ExpiresAt: now.Add(time.Hour)}
		store.EXPECT().Get(gomock.Any(), "s").Return(live, nil)
		got, err := svc.GetSession(ctx, "s")
		require.NoError(t, err)
		assert.Equal(t, live, *got)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	svc := NewAuthService(AuthServiceOptions{Providers: AuthProviders{Password: &mockauth.StubAuthenticator{}}, Sessions: store})

	require.NoError(t, svc.Logout(context.Background(), ""))

	store.EXPECT().Delete(gomock.Any(), "s1").Return(nil)
	require.NoError(t, svc.Logout(context.Background(), "s1"))

	store.EXPECT().Delete(gomock.Any(), "s2").Return(errors.New("boom"))
	require.ErrorContains(t, svc.Logout(context.Background(), "s2"), "delete session: boom")
}
