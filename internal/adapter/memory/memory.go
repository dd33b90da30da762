// Package memory implements the domain repositories in memory for
// development and testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"weightlog/internal/domain"
)

// DB implements an in-memory store.
type DB struct {
	mu       sync.Mutex
	records  []domain.WeightRecord
	users    []*domain.User
	sessions map[string]*domain.Session

	recordIDCounter int64
	userIDCounter   int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.WeightRecordRepository = (*DB)(nil)
var _ domain.UserRepository = (*UserRepo)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- WeightRecordRepository ---

// Create stores a new weight record.
func (db *DB) Create(ctx context.Context, rec domain.WeightRecord) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.recordIDCounter++
	rec.ID = db.recordIDCounter
	db.records = append(db.records, rec)
	return rec.ID, nil
}

// GetByID returns a record by id, or (nil, nil) when absent.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.WeightRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.records {
		if db.records[i].ID == id {
			rec := db.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// Update overwrites a stored record.
func (db *DB) Update(ctx context.Context, rec domain.WeightRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.records {
		if db.records[i].ID == rec.ID {
			db.records[i] = rec
			return nil
		}
	}
	return domain.ErrNotFound
}

// Delete removes a record by id.
func (db *DB) Delete(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.records {
		if db.records[i].ID == id {
			db.records = append(db.records[:i], db.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ListByOwner returns copies of all records owned by ownerID, in
// insertion order.
func (db *DB) ListByOwner(ctx context.Context, ownerID int64) ([]domain.WeightRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.WeightRecord, 0)
	for _, r := range db.records {
		if r.UserID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- UserRepository ---

// UserRepo implements user persistence on DB.
type UserRepo struct {
	db *DB
}

// NewUserRepo wraps a DB as a UserRepository.
func (db *DB) NewUserRepo() *UserRepo {
	return &UserRepo{db: db}
}

// GetByUsername retrieves a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	r.db.userIDCounter++
	u := &domain.User{
		ID:           r.db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.db.users = append(r.db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		return s, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
