package service

import (
	"context"

	"github.com/Uz11ps/bototelgara/models"
)

// MenuSource reads the full menu from the backend
type MenuSource interface {
	ListMenu(ctx context.Context) ([]models.MenuItem, error)
}

// MenuWriter persists menu items through the backend
type MenuWriter interface {
	CreateMenuItem(ctx context.Context, payload models.MenuItemPayload) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, payload models.MenuItemPayload) (*models.MenuItem, error)
	SetMenuItemImage(ctx context.Context, id int64, imageURL string) error
}

// ImageFetcher downloads images served by or through the backend
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
	CameraSnapshot(ctx context.Context, cameraID string) ([]byte, error)
}

// MenuCatalog is the guest-facing view of the cached menu
type MenuCatalog interface {
	Lookup(id int64) (models.MenuItem, bool)
	Available(category string) []models.MenuItem
	Refresh(ctx context.Context) error
}
