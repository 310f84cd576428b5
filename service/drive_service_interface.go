package service

import (
	"context"

	"github.com/Uz11ps/bototelgara/models"
)

// DriveServiceInterface defines the contract for Google Drive operations
type DriveServiceInterface interface {
	ListDishPhotos(ctx context.Context, folderID string) ([]models.DishPhoto, error)
}
