package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
)

const (
	// Quality settings
	qualityThumb  = 60
	qualityMedium = 75
	// Size settings (max dimension)
	maxSizeThumb  = 300
	maxSizeMedium = 800
)

// ErrImageNotFound is returned when a menu item has no photo
var ErrImageNotFound = errors.New("image not found")

// ImageService serves optimized dish photos and camera snapshots.
// Dish photos are cached on disk per item, size and source URL.
type ImageService struct {
	catalog  MenuCatalog
	fetcher  ImageFetcher
	cacheDir string
	logger   *logrus.Logger
}

// NewImageService creates a new ImageService caching into cacheDir
func NewImageService(catalog MenuCatalog, fetcher ImageFetcher, cacheDir string, logger *logrus.Logger) *ImageService {
	return &ImageService{
		catalog:  catalog,
		fetcher:  fetcher,
		cacheDir: cacheDir,
		logger:   logger,
	}
}

// EnsureCacheDir ensures the cache directory exists, creates it if it doesn't
func (s *ImageService) EnsureCacheDir() error {
	if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// MenuItemImage returns the optimized photo of an available menu item
func (s *ImageService) MenuItemImage(ctx context.Context, itemID int64, size string) ([]byte, error) {
	item, ok := s.catalog.Lookup(itemID)
	if !ok {
		return nil, ErrMenuItemNotFound
	}
	if item.ImageURL == "" {
		return nil, ErrImageNotFound
	}

	cachePath := s.cachePath(itemID, size, item.ImageURL)
	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	raw, err := s.fetcher.FetchImage(ctx, item.ImageURL)
	if err != nil {
		return nil, err
	}
	optimized, err := OptimizeImage(raw, size)
	if err != nil {
		return nil, err
	}

	if err := s.saveToCache(cachePath, optimized); err != nil {
		// A cache miss next time is fine; serve the image anyway.
		s.logger.WithError(err).Warn("failed to cache image")
	}
	return optimized, nil
}

// CameraSnapshot returns a resized frame from a hotel camera. Snapshots are never cached.
func (s *ImageService) CameraSnapshot(ctx context.Context, cameraID, size string) ([]byte, error) {
	raw, err := s.fetcher.CameraSnapshot(ctx, cameraID)
	if err != nil {
		return nil, err
	}
	return OptimizeImage(raw, size)
}

func (s *ImageService) cachePath(itemID int64, size, sourceURL string) string {
	h := fnv.New32a()
	h.Write([]byte(sourceURL))
	filename := fmt.Sprintf("menu_item_%d_%s_%08x.jpg", itemID, normalizeImageSize(size), h.Sum32())
	return filepath.Join(s.cacheDir, filename)
}

func (s *ImageService) saveToCache(cachePath string, imageData []byte) error {
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(cachePath, imageData, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	s.logger.WithField("path", cachePath).Debug("image cached")
	return nil
}

func normalizeImageSize(size string) string {
	if size == "thumb" {
		return "thumb"
	}
	return "medium"
}

// OptimizeImage converts an image to JPEG, shrinking it to fit the size
// preset ("thumb" or "medium"; anything else is medium).
func OptimizeImage(imageData []byte, size string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	maxDim, quality := maxSizeMedium, qualityMedium
	if normalizeImageSize(size) == "thumb" {
		maxDim, quality = maxSizeThumb, qualityThumb
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		// imaging.Fit keeps the aspect ratio
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
