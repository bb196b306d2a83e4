package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almacen/almacen-ui/internal/adapters/memory"
	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/domain/routing"
	"github.com/almacen/almacen-ui/internal/testutil"
)

func newCommandContext(input string) (*commandContext, *bytes.Buffer) {
	var out bytes.Buffer
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:    &out,
		In:     strings.NewReader(input),
	}, &out
}

func seededStore(t *testing.T) *memory.SessionStore {
	t.Helper()
	store := memory.NewSessionStore()
	for _, s := range []domainauth.Session{
		testutil.NewSession("a1", domainauth.RoleGeneralAdmin),
		testutil.NewSession("e1", domainauth.RoleEmployee),
		testutil.NewSession("e2", domainauth.RoleEmployee),
	} {
		require.NoError(t, store.Save(context.Background(), s))
	}
	second := testutil.NewSession("e3", domainauth.RoleEmployee)
	second.UserID = "user-e1"
	require.NoError(t, store.Save(context.Background(), second))
	return store
}

func TestPrintUsageListsCommands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printUsage(&out))
	for name := range commands() {
		assert.Contains(t, out.String(), name)
	}
}

func TestPrintRoutes(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRoutes(&out, routing.DefaultTable()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(routing.AlmacenRoutes())+1)
	assert.Contains(t, out.String(), "/usuarios/crear")
	assert.Contains(t, out.String(), "general-admin")

	for _, line := range lines {
		if strings.HasPrefix(line, "pedidos ") {
			assert.Contains(t, line, "/pedidos/realizados")
		}
	}
}

func TestCheckAccess(t *testing.T) {
	tests := []struct {
		name string
		opts checkAccessOptions
		want string
	}{
		{
			name: "anonymous on protected page",
			opts: checkAccessOptions{Path: "/productos"},
			want: "decision: redirect_login -> /login",
		},
		{
			name: "employee on admin page",
			opts: checkAccessOptions{Path: "/usuarios", Role: "empleado", Authenticated: true},
			want: "decision: redirect_home -> /",
		},
		{
			name: "admin on admin page",
			opts: checkAccessOptions{Path: "/usuarios/crear", Role: "admin_general", Authenticated: true},
			want: "decision: proceed",
		},
		{
			name: "role without token",
			opts: checkAccessOptions{Path: "/usuarios", Role: "admin_general"},
			want: "decision: redirect_login -> /login",
		},
		{
			name: "login while authenticated",
			opts: checkAccessOptions{Path: "/login", Authenticated: true},
			want: "decision: redirect_home -> /",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, checkAccess(&out, routing.DefaultTable(), tt.opts))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestCheckAccessUnknownPath(t *testing.T) {
	var out bytes.Buffer
	err := checkAccess(&out, routing.DefaultTable(), checkAccessOptions{Path: "/nope"})
	assert.Error(t, err)
}

func TestParseCheckAccessFlags(t *testing.T) {
	opts, err := parseCheckAccessFlags([]string{"--path", "/usuarios", "--role", "admin_general", "--authenticated"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, checkAccessOptions{Path: "/usuarios", Role: "admin_general", Authenticated: true}, opts)

	_, err = parseCheckAccessFlags(nil, io.Discard)
	assert.Error(t, err)
}

func TestListSessions(t *testing.T) {
	store := seededStore(t)
	var out bytes.Buffer

	require.NoError(t, listSessions(context.Background(), &out, store, "", time.Now()))
	assert.Contains(t, out.String(), "Total sessions: 4")
	assert.Contains(t, out.String(), "admin_general")
	assert.NotContains(t, out.String(), "token-", "tokens are never printed")

	out.Reset()
	require.NoError(t, listSessions(context.Background(), &out, store, domainauth.RoleGeneralAdmin, time.Now()))
	assert.Contains(t, out.String(), "Total sessions: 1")

	out.Reset()
	require.NoError(t, listSessions(context.Background(), &out, memory.NewSessionStore(), "", time.Now()))
	assert.Contains(t, out.String(), "(no sessions found)")
}

func TestExpiresIn(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "never", expiresIn(domainauth.Session{}, now))
	assert.Equal(t, "expired", expiresIn(domainauth.Session{ExpiresAt: now.Add(-time.Minute)}, now))
	assert.Equal(t, "1h30m0s", expiresIn(domainauth.Session{ExpiresAt: now.Add(90 * time.Minute)}, now))
}

func TestParseRevokeFlags(t *testing.T) {
	_, err := parseRevokeFlags(nil, io.Discard)
	assert.Error(t, err)

	_, err = parseRevokeFlags([]string{"--id", "a", "--user", "b"}, io.Discard)
	assert.Error(t, err)

	opts, err := parseRevokeFlags([]string{"--user", "user-e1", "--yes"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, revokeOptions{UserID: "user-e1", Yes: true}, opts)
}

func TestRevokeSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("by id", func(t *testing.T) {
		store := seededStore(t)
		cmdCtx, out := newCommandContext("")
		require.NoError(t, revokeSessions(ctx, cmdCtx, store, revokeOptions{ID: "a1", Yes: true}))
		assert.Contains(t, out.String(), "Revoked 1 session(s)")
		_, err := store.Get(ctx, "a1")
		assert.Error(t, err)
	})

	t.Run("by user after confirmation", func(t *testing.T) {
		store := seededStore(t)
		cmdCtx, out := newCommandContext("y\n")
		require.NoError(t, revokeSessions(ctx, cmdCtx, store, revokeOptions{UserID: "user-e1"}))
		assert.Contains(t, out.String(), "Revoked 2 session(s)")
		remaining, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, remaining, 2)
	})

	t.Run("declined", func(t *testing.T) {
		store := seededStore(t)
		cmdCtx, _ := newCommandContext("n\n")
		err := revokeSessions(ctx, cmdCtx, store, revokeOptions{ID: "e2"})
		assert.ErrorIs(t, err, errAborted)
		_, getErr := store.Get(ctx, "e2")
		assert.NoError(t, getErr)
	})

	t.Run("dry run", func(t *testing.T) {
		store := seededStore(t)
		cmdCtx, out := newCommandContext("")
		require.NoError(t, revokeSessions(ctx, cmdCtx, store, revokeOptions{UserID: "user-e1", DryRun: true}))
		assert.Contains(t, out.String(), "Would revoke 2 session(s): e1, e3")
		remaining, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, remaining, 4)
	})

	t.Run("unknown id", func(t *testing.T) {
		cmdCtx, _ := newCommandContext("")
		err := revokeSessions(ctx, cmdCtx, seededStore(t), revokeOptions{ID: "missing", Yes: true})
		assert.Error(t, err)
	})

	t.Run("no sessions for user", func(t *testing.T) {
		cmdCtx, out := newCommandContext("")
		require.NoError(t, revokeSessions(ctx, cmdCtx, seededStore(t), revokeOptions{UserID: "ghost"}))
		assert.Contains(t, out.String(), "(no matching sessions)")
	})
}
