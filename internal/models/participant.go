package models

import (
	"fmt"
	"time"
)

// Participant is one registered giveaway entrant. ChatID stays nil until the
// first registration writes it; rows migrated from older schemas may lack it.
type Participant struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id" csv:"id"`
	Email     string    `gorm:"size:320;not null;uniqueIndex" json:"email" csv:"email"`
	Number    string    `gorm:"size:20;not null;uniqueIndex" json:"number" csv:"number"`
	ChatID    *int64    `gorm:"index" json:"chat_id,omitempty" csv:"-"`
	CreatedAt time.Time `json:"created_at" csv:"registered_at"`
	UpdatedAt time.Time `json:"updated_at" csv:"-"`
}

// FormatNumber renders an id as a participant number: zero padded to three
// digits, wider once the id passes 999.
func FormatNumber(id uint) string {
	return fmt.Sprintf("%03d", id)
}
