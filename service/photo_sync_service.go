package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/models"
)

// PhotoSyncServiceInterface defines the contract for dish photo synchronization
type PhotoSyncServiceInterface interface {
	SyncDishPhotos(ctx context.Context, folderID string) (*models.PhotoSyncResult, error)
}

// PhotoSyncService attaches Drive dish photos to menu items
type PhotoSyncService struct {
	driveService DriveServiceInterface
	menu         MenuSource
	writer       MenuWriter
	catalog      MenuCatalog
	logger       *logrus.Logger
}

// NewPhotoSyncService creates a new PhotoSyncService. catalog may be nil.
func NewPhotoSyncService(driveService DriveServiceInterface, menu MenuSource, writer MenuWriter, catalog MenuCatalog, logger *logrus.Logger) *PhotoSyncService {
	return &PhotoSyncService{
		driveService: driveService,
		menu:         menu,
		writer:       writer,
		catalog:      catalog,
		logger:       logger,
	}
}

// Ensure PhotoSyncService implements PhotoSyncServiceInterface
var _ PhotoSyncServiceInterface = (*PhotoSyncService)(nil)

// SyncDishPhotos sets image_url of every menu item that has a photo in the
// folder. Items already pointing at the same photo are skipped; photos for
// unknown items and failed updates are reported in Errors.
func (s *PhotoSyncService) SyncDishPhotos(ctx context.Context, folderID string) (*models.PhotoSyncResult, error) {
	log := s.logger.WithField("folder_id", folderID)
	log.Info("starting dish photo sync")

	photos, err := s.driveService.ListDishPhotos(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dish photos from Drive: %w", err)
	}
	items, err := s.menu.ListMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu: %w", err)
	}

	byID := make(map[int64]models.MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	result := &models.PhotoSyncResult{Total: len(photos), Errors: []string{}}
	for _, photo := range photos {
		item, ok := byID[photo.ItemID]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: item %d not in menu", photo.FileName, photo.ItemID))
			continue
		}
		if item.ImageURL == photo.ImageURL {
			result.Skipped++
			continue
		}

		if err := s.writer.SetMenuItemImage(ctx, photo.ItemID, photo.ImageURL); err != nil {
			log.WithError(err).WithField("item_id", photo.ItemID).Warn("failed to update dish photo")
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", photo.FileName, err))
			continue
		}
		result.Updated++
	}

	if result.Updated > 0 && s.catalog != nil {
		if err := s.catalog.Refresh(ctx); err != nil {
			log.WithError(err).Warn("menu refresh after photo sync failed")
		}
	}

	log.WithFields(logrus.Fields{
		"total":   result.Total,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"errors":  len(result.Errors),
	}).Info("dish photo sync completed")
	return result, nil
}
