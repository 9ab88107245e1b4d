package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo keeps users in process memory. The uniqueness check and the
// insert share one critical section, so it is as atomic as a DB constraint.
type UsersRepo struct {
	mu         sync.RWMutex
	items      map[string]user.User // id -> user
	byUsername map[string]string    // username -> id
	byEmail    map[string]string    // email -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:      make(map[string]user.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (r *UsersRepo) FindByUsername(ctx context.Context, username string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.items[id], nil
}

func (r *UsersRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.byUsername[username]; ok {
		return r.items[id], nil
	}
	if id, ok := r.byEmail[email]; ok {
		return r.items[id], nil
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[username]; taken {
		return user.User{}, user.NewConflict(user.FieldUsername)
	}
	if _, taken := r.byEmail[email]; taken {
		return user.User{}, user.NewConflict(user.FieldEmail)
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.items[u.ID] = u
	r.byUsername[username] = u.ID
	r.byEmail[email] = u.ID

	return u, nil
}

func (r *UsersRepo) UpdateToken(ctx context.Context, id, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.ErrNotFound
	}

	u.CurrentToken = token
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}
