package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SlotCount is the fixed number of configurable broadcast slots.
const SlotCount = 3

// BroadcastSlot is one daily recurring announcement. Slot numbers are the
// identity; rows are upserted in place rather than created and destroyed.
type BroadcastSlot struct {
	Slot      int       `gorm:"primaryKey;autoIncrement:false" json:"slot"`
	SendTime  string    `gorm:"column:send_time;type:text;not null" json:"send_time"`
	ChatID    *int64    `gorm:"column:chat_id" json:"chat_id,omitempty"`
	ChatTitle string    `gorm:"type:text;not null;default:''" json:"chat_title"`
	Message   string    `gorm:"type:text;not null;default:''" json:"message"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (BroadcastSlot) TableName() string { return "broadcast_slots" }

func ValidSlot(slot int) bool {
	return slot >= 1 && slot <= SlotCount
}

var timePattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?$`)

// NormalizeTime accepts "8", "08" or "08:30" and canonicalizes to "HH:MM"
// on the 24-hour clock.
func NormalizeTime(raw string) (string, error) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", ErrInvalidTime
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return "", ErrInvalidTime
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return "", ErrInvalidTime
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// SplitTime parses a canonical "HH:MM" back into its components.
func SplitTime(canonical string) (hour, minute int, err error) {
	parts := strings.SplitN(canonical, ":", 2)
	if len(parts) != 2 {
		return 0, 0, ErrInvalidTime
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, ErrInvalidTime
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, ErrInvalidTime
	}
	return hour, minute, nil
}
