package models

import (
	"time"
)

// Destination is the Telegram chat that receives all team announcements
type Destination int64

// Actor identifies the user performing an operation
type Actor struct {
	ID        string `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// Label returns the name shown in announcements
func (a Actor) Label() string {
	if a.FirstName != "" {
		return a.FirstName
	}
	return a.Username
}

// Proposal is a slot awaiting confirmation by its creator because it
// overlaps confirmed slots
type Proposal struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`       // YYYY-MM-DD
	StartTime     string    `json:"start_time"` // HH:MM
	EndTime       string    `json:"end_time"`   // HH:MM
	OwnerID       string    `json:"user_id"`
	OwnerUsername string    `json:"username,omitempty"`
	OwnerName     string    `json:"first_name,omitempty"`
	Description   string    `json:"details"`
	CreatedAt     time.Time `json:"created_at"`
}

// OwnerLabel returns the owner's first name, or username if unset
func (p Proposal) OwnerLabel() string {
	if p.OwnerName != "" {
		return p.OwnerName
	}
	return p.OwnerUsername
}

// Confirmed builds the confirmed slot a proposal is promoted into
func (p Proposal) Confirmed() Slot {
	return Slot{Proposal: p}
}

// Slot is a confirmed reservation of time owned by one user
type Slot struct {
	Proposal
	ReminderSent bool `json:"reminder_sent"`
}
