package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantprep/backend/internal/model"
)

var (
	ErrDuplicateEmail = errors.New("user with this email already exists")
	ErrUserNotFound   = errors.New("user not found")
)

// UserRepository handles account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, subscription_type, points, created_at, updated_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Subscription, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail retrieves a user by their unique email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, subscription_type, points, created_at, updated_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Subscription, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, subscription_type)
		 VALUES ($1, $2, $3)
		 RETURNING id, points, created_at, updated_at`,
		u.Email, u.PasswordHash, u.Subscription,
	).Scan(&u.ID, &u.Points, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdateSubscription changes the user's billing tier.
func (r *UserRepository) UpdateSubscription(ctx context.Context, id uuid.UUID, sub model.SubscriptionType) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET subscription_type = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		sub, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddPoints increments the user's point balance. Points only ever grow; a
// negative delta is a programming error and is rejected.
func (r *UserRepository) AddPoints(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	if delta < 0 {
		return 0, errors.New("points delta must be non-negative")
	}
	var total int
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET points = points + $1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $2
		 RETURNING points`,
		delta, id,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}
