package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
	"github.com/almacen/almacen-ui/internal/ports"
	"github.com/almacen/almacen-ui/internal/testutil"
)

func TestSessionStore_Lifecycle(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sess := testutil.NewSession("m-1", domainauth.RoleEmployee)
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, store.Delete(ctx, "m-1"))
	_, err = store.Get(ctx, "m-1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_Validation(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, domainauth.Session{}))

	expired := testutil.NewSession("m-exp", domainauth.RoleEmployee)
	expired.ExpiresAt = time.Now().Add(-time.Second)
	assert.Error(t, store.Save(ctx, expired))

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_ExpiresOnRead(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testutil.NewSession("m-2", domainauth.RoleEmployee)))

	store.now = testutil.FixedTimeFunc(time.Now().Add(2 * time.Hour))
	_, err := store.Get(ctx, "m-2")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSessionStore_ListOrdered(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	a := testutil.NewSession("a", domainauth.RoleEmployee)
	a.ExpiresAt = time.Now().Add(3 * time.Hour)
	b := testutil.NewSession("b", domainauth.RoleEmployee)
	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
}

func TestSessionStore_Concurrent(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c-%d", i)
			_ = store.Save(ctx, testutil.NewSession(id, domainauth.RoleEmployee))
			_, _ = store.Get(ctx, id)
			_ = store.Delete(ctx, id)
		}(i)
	}
	wg.Wait()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
