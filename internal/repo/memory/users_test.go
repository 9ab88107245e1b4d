package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestUsersRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepo()

	created, err := repo.Create(ctx, "someone1", "a@b.co", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.FindByUsername(ctx, "someone1")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	byEmail, err := repo.FindByUsernameOrEmail(ctx, "nobody00", "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.FindByUsername(ctx, "missing1")
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = repo.FindByUsernameOrEmail(ctx, "missing1", "x@y.co")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_CreateConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepo()

	_, err := repo.Create(ctx, "someone1", "a@b.co", "hash")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "someone1", "other@b.co", "hash")
	var conflict *user.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, user.FieldUsername, conflict.Field)

	_, err = repo.Create(ctx, "someone2", "a@b.co", "hash")
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, user.FieldEmail, conflict.Field)
}

func TestUsersRepo_UpdateToken(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepo()

	u, err := repo.Create(ctx, "someone1", "a@b.co", "hash")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateToken(ctx, u.ID, "first"))
	require.NoError(t, repo.UpdateToken(ctx, u.ID, "second"))

	got, err := repo.FindByUsername(ctx, "someone1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.CurrentToken)

	assert.ErrorIs(t, repo.UpdateToken(ctx, "missing", "t"), user.ErrNotFound)
}

func TestUsersRepo_ConcurrentCreateSameUsername(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepo()

	const attempts = 32

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			email := "user" + string(rune('a'+i%26)) + string(rune('a'+i/26)) + "@example.com"
			_, err := repo.Create(ctx, "samename1", email, "hash")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, user.ErrConflict):
				conflicts++
			}
		}(i)
	}

	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestUsersRepo_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewUsersRepo()
	_, err := repo.Create(ctx, "someone1", "a@b.co", "hash")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Ping(ctx), context.Canceled)
}
