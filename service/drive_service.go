package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/Uz11ps/bototelgara/models"
	"github.com/Uz11ps/bototelgara/utils"
)

// DriveService handles Google Drive API operations
type DriveService struct {
	client *drive.Service
	logger *logrus.Logger
}

// NewDriveService creates a new DriveService instance
// credentialsPath should be the path to the Service Account JSON file
func NewDriveService(ctx context.Context, credentialsPath string, logger *logrus.Logger) (*DriveService, error) {
	driveService, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath), option.WithScopes(drive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveService{
		client: driveService,
		logger: logger,
	}, nil
}

var _ DriveServiceInterface = (*DriveService)(nil)

var imageMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
}

// ListDishPhotos lists the image files in a Drive folder whose names start
// with a menu item id. Other files are skipped with a warning.
func (ds *DriveService) ListDishPhotos(ctx context.Context, folderID string) ([]models.DishPhoto, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", strings.ReplaceAll(folderID, "'", `\'`))

	var allFiles []*drive.File
	err := ds.client.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name, mimeType)").
		Pages(ctx, func(r *drive.FileList) error {
			allFiles = append(allFiles, r.Files...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return dishPhotosFromFiles(allFiles, ds.logger), nil
}

func dishPhotosFromFiles(files []*drive.File, logger *logrus.Logger) []models.DishPhoto {
	var photos []models.DishPhoto
	for _, file := range files {
		if !imageMimeTypes[strings.ToLower(file.MimeType)] {
			continue
		}

		itemID, err := utils.ParseDishPhotoName(file.Name)
		if err != nil {
			logger.WithError(err).WithField("file", file.Name).Warn("skipping dish photo")
			continue
		}

		photos = append(photos, models.DishPhoto{
			DriveFileID: file.Id,
			FileName:    file.Name,
			ItemID:      itemID,
			ImageURL:    fmt.Sprintf("https://drive.google.com/uc?id=%s", file.Id),
		})
	}
	return photos
}
