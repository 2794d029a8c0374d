package models

import "time"

// DeliveryStatus represents the current state of a delivery
type DeliveryStatus string

const (
	StatusPendingValidation DeliveryStatus = "PENDING_VALIDATION"
	StatusSent              DeliveryStatus = "SENT"
	StatusAwaitingDestruct  DeliveryStatus = "AWAITING_DESTRUCT"
	StatusDestroyed         DeliveryStatus = "DESTROYED"
	StatusFailedNotified    DeliveryStatus = "FAILED_NOTIFIED"
	StatusError             DeliveryStatus = "ERROR"
)

// Terminal reports whether no further transition can happen
func (s DeliveryStatus) Terminal() bool {
	switch s {
	case StatusDestroyed, StatusFailedNotified, StatusError:
		return true
	}
	return false
}

// Delivery represents one media message sent to a chat with its self-destruct countdown
type Delivery struct {
	ID             string         `json:"id"`
	ChatID         int64          `json:"chatId"`
	ArtifactID     string         `json:"artifactId"`
	Kind           MediaKind      `json:"kind"`
	Status         DeliveryStatus `json:"status"`
	InfoMessageID  int            `json:"infoMessageId,omitempty"`
	MediaMessageID int            `json:"mediaMessageId,omitempty"`
	DeleteAfter    time.Duration  `json:"deleteAfter"`
	CreatedAt      time.Time      `json:"createdAt"`
	DestructAt     time.Time      `json:"destructAt,omitempty"`
	DestroyedAt    time.Time      `json:"destroyedAt,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// DeliveryEvent is published on every delivery state change
type DeliveryEvent struct {
	DeliveryID string         `json:"deliveryId"`
	ChatID     int64          `json:"chatId"`
	Kind       MediaKind      `json:"kind"`
	Status     DeliveryStatus `json:"status"`
	At         time.Time      `json:"at"`
}
