// Package repository persists participants. Both implementations follow the
// same contract: ErrNotFound for a missing row, ErrConflict for a unique key
// violation, wrapped errors for everything else. Each call either applies
// fully or not at all.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("participant not found")
	ErrConflict = errors.New("participant already exists")
)

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) FindByEmail(ctx context.Context, email string) (*models.Participant, error) {
	var p models.Participant
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		return nil, translate("find by email", err)
	}
	return &p, nil
}

// FindByNumberOrEmail matches identifier case-insensitively against both
// the number and the email column.
func (r *ParticipantRepository) FindByNumberOrEmail(ctx context.Context, identifier string) (*models.Participant, error) {
	key := strings.ToLower(strings.TrimSpace(identifier))
	var p models.Participant
	err := r.db.WithContext(ctx).
		Where("LOWER(number) = ? OR LOWER(email) = ?", key, key).
		Order("id ASC").
		First(&p).Error
	if err != nil {
		return nil, translate("find by number or email", err)
	}
	return &p, nil
}

const (
	postgresHighWater = `SELECT GREATEST(COALESCE(MAX(id), 0),
		COALESCE(pg_sequence_last_value(pg_get_serial_sequence('participants', 'id')::regclass), 0))
		FROM participants`
	sqliteHighWater = `SELECT MAX(COALESCE((SELECT MAX(id) FROM participants), 0),
		COALESCE((SELECT seq FROM sqlite_sequence WHERE name = 'participants'), 0))`
	postgresAdvance = `SELECT setval(pg_get_serial_sequence('participants', 'id'),
		GREATEST(?, COALESCE(pg_sequence_last_value(pg_get_serial_sequence('participants', 'id')::regclass), 0)))`
)

// MaxID returns the highest id ever assigned since the last reset, or 0.
// Removed rows still count, so their numbers are never handed out again.
func (r *ParticipantRepository) MaxID(ctx context.Context) (uint, error) {
	db := r.db.WithContext(ctx)

	var maxID uint
	var err error
	switch db.Dialector.Name() {
	case "postgres":
		err = db.Raw(postgresHighWater).Scan(&maxID).Error
	case "sqlite":
		err = db.Raw(sqliteHighWater).Scan(&maxID).Error
	default:
		err = db.Model(&models.Participant{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error
	}
	if err != nil {
		return 0, fmt.Errorf("max id: %w", err)
	}
	return maxID, nil
}

// Insert stores p. On postgres an explicit id also moves the serial sequence
// forward; sqlite does that on its own for AUTOINCREMENT tables.
func (r *ParticipantRepository) Insert(ctx context.Context, p *models.Participant) error {
	db := r.db.WithContext(ctx)
	if db.Dialector.Name() != "postgres" || p.ID == 0 {
		if err := db.Create(p).Error; err != nil {
			return translate("insert", err)
		}
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Exec(postgresAdvance, p.ID).Error
	})
	if err != nil {
		return translate("insert", err)
	}
	return nil
}

func (r *ParticipantRepository) UpdateChatID(ctx context.Context, id uint, chatID int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("id = ?", id).
		Update("chat_id", chatID)
	if res.Error != nil {
		return translate("update chat id", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ParticipantRepository) DeleteByID(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Participant{}, id)
	if res.Error != nil {
		return translate("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ParticipantRepository) ListAllOrderedByID(ctx context.Context) ([]models.Participant, error) {
	var list []models.Participant
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return list, nil
}

// TruncateAndResetIdentity removes every participant and restarts the id
// sequence so the next registrant gets the first number again.
func (r *ParticipantRepository) TruncateAndResetIdentity(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("TRUNCATE TABLE participants RESTART IDENTITY").Error; err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM participants").Error; err != nil {
			return err
		}
		if tx.Dialector.Name() == "sqlite" {
			return tx.Exec("DELETE FROM sqlite_sequence WHERE name = ?", "participants").Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
