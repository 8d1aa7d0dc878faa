package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// State is the lifecycle state of an order.
type State string

const (
	StateNormal    State = "normal"
	StateOverdue   State = "overdue"
	StateEnd       State = "end"
	StateBreach    State = "breach"
	StateBreachEnd State = "breach_end"
)

// Terminal reports whether the state marks logical end-of-life. Terminal
// orders stay on record but no longer count as the chat's active order.
func (s State) Terminal() bool {
	return s == StateEnd || s == StateBreachEnd
}

// Valid reports whether s is a known state value.
func (s State) Valid() bool {
	switch s {
	case StateNormal, StateOverdue, StateEnd, StateBreach, StateBreachEnd:
		return true
	}
	return false
}

// transitions maps a target state onto the source states its guard accepts.
var transitions = map[State][]State{
	StateNormal:    {StateOverdue},
	StateOverdue:   {StateNormal},
	StateEnd:       {StateNormal, StateOverdue},
	StateBreach:    {StateOverdue},
	StateBreachEnd: {StateBreach},
}

// AllowedSources returns the source states from which target is reachable.
func AllowedSources(target State) []State {
	return transitions[target]
}

// CanTransition reports whether from -> to satisfies the state machine guard.
func CanTransition(from, to State) bool {
	for _, src := range transitions[to] {
		if src == from {
			return true
		}
	}
	return false
}

// Order is one loan order. A chat hosts at most one non-terminal order at
// a time; terminal orders persist for history.
type Order struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"order_id"`
	ChatID       int64           `gorm:"not null;index" json:"chat_id"`
	GroupID      string          `gorm:"type:text;not null" json:"group_id"`
	Customer     string          `gorm:"type:text;not null" json:"customer"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	OrderDate    time.Time       `gorm:"not null" json:"date"`
	WeekdayGroup string          `gorm:"type:text;not null" json:"weekday_group"`
	State        State           `gorm:"type:text;not null;index" json:"state"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }
