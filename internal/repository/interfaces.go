package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medpal/assist-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles user accounts
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	// HealthRecordRepository is the remote document store for per-user
	// health records. List filters by owner only; ordering is the
	// synchronizer's job. Mutations are scoped to the owning user so a
	// record id alone never grants access to another user's data.
	HealthRecordRepository interface {
		Create(ctx context.Context, record *model.HealthRecord) error
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.HealthRecord, error)
		Update(ctx context.Context, userID, id uuid.UUID, patch *model.UpdateHealthRecordRequest) error
		Delete(ctx context.Context, userID, id uuid.UUID) error
	}

	// TokenRepository tracks revoked session tokens
	TokenRepository interface {
		InvalidateToken(ctx context.Context, token string, expiry time.Time) error
		IsTokenInvalidated(ctx context.Context, token string) (bool, error)
	}

	// ReminderStore is the local persistent store for reminder
	// collections, one serialized collection per owner.
	ReminderStore interface {
		Load(userID uuid.UUID) ([]*model.Reminder, error)
		Save(userID uuid.UUID, reminders []*model.Reminder) error
		Owners() ([]uuid.UUID, error)
		Close() error
	}
)
