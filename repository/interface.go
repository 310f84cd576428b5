package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Uz11ps/bototelgara/models"
)

// ErrSessionNotFound is returned when no session exists for the given id
var ErrSessionNotFound = errors.New("session not found")

// SessionRepositoryInterface defines the contract for guest session storage
type SessionRepositoryInterface interface {
	// Save inserts or replaces the session together with its cart lines.
	Save(ctx context.Context, session *models.GuestSession) error
	Get(ctx context.Context, id string) (*models.GuestSession, error)
	Delete(ctx context.Context, id string) error
	// DeleteIdleSince removes sessions not updated since before and returns how many were removed.
	DeleteIdleSince(ctx context.Context, before time.Time) (int, error)
}
