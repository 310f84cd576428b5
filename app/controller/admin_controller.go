package controller

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/service"
)

// MenuPDFGenerator prints the menu to PDF
type MenuPDFGenerator interface {
	GeneratePDF(ctx context.Context) ([]byte, error)
}

// CameraSnapshots serves resized camera frames
type CameraSnapshots interface {
	CameraSnapshot(ctx context.Context, cameraID, size string) ([]byte, error)
}

// AdminController handles admin tools outside the composition editor
type AdminController struct {
	pdf       MenuPDFGenerator
	photoSync service.PhotoSyncServiceInterface // nil when Drive is not configured
	cameras   CameraSnapshots
	logger    *logrus.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(pdf MenuPDFGenerator, photoSync service.PhotoSyncServiceInterface, cameras CameraSnapshots, logger *logrus.Logger) *AdminController {
	return &AdminController{
		pdf:       pdf,
		photoSync: photoSync,
		cameras:   cameras,
		logger:    logger,
	}
}

// GetMenuPDF handles GET /admin/menu/pdf
func (c *AdminController) GetMenuPDF(w http.ResponseWriter, r *http.Request) {
	pdf, err := c.pdf.GeneratePDF(r.Context())
	if err != nil {
		c.logger.WithError(err).Error("GetMenuPDF: failed to generate PDF")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}

	filename := fmt.Sprintf("menu_%s.pdf", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(pdf)
}

// SyncPhotos handles POST /admin/menu/photos/sync?folderId=...
// Attaches Drive dish photos to menu items and returns the sync stats
func (c *AdminController) SyncPhotos(w http.ResponseWriter, r *http.Request) {
	if c.photoSync == nil {
		writeError(w, http.StatusServiceUnavailable, "photo sync is not configured")
		return
	}
	folderID := r.URL.Query().Get("folderId")
	if folderID == "" {
		writeError(w, http.StatusBadRequest, "folderId parameter is required")
		return
	}

	result, err := c.photoSync.SyncDishPhotos(r.Context(), folderID)
	if err != nil {
		c.logger.WithError(err).WithField("folder_id", folderID).Error("SyncPhotos: sync failed")
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to sync dish photos: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetCameraSnapshot handles GET /admin/cameras/{id}/snapshot?size=medium
func (c *AdminController) GetCameraSnapshot(w http.ResponseWriter, r *http.Request) {
	cameraID := mux.Vars(r)["id"]
	size := r.URL.Query().Get("size")
	if size == "" {
		size = "medium"
	}

	data, err := c.cameras.CameraSnapshot(r.Context(), cameraID, size)
	if err != nil {
		c.logger.WithError(err).WithField("camera_id", cameraID).Warn("GetCameraSnapshot: failed to load snapshot")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}
