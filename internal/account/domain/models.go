package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is the owning fleet account. Account management itself lives in a
// separate subsystem; this service only needs presence checks.
type Account struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (Account) TableName() string {
	return "accounts"
}

type Repository interface {
	Exists(ctx context.Context, db *gorm.DB, id uuid.UUID) (bool, error)
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
}
