package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/models"
	"github.com/Uz11ps/bototelgara/service"
)

// MenuImages serves optimized dish photos
type MenuImages interface {
	MenuItemImage(ctx context.Context, itemID int64, size string) ([]byte, error)
}

// MenuPrinter renders the printable menu page
type MenuPrinter interface {
	RenderMenuHTML() (string, error)
}

// MenuController handles guest-facing menu requests
type MenuController struct {
	catalog service.MenuCatalog
	images  MenuImages
	printer MenuPrinter
	logger  *logrus.Logger
}

// NewMenuController creates a new MenuController
func NewMenuController(catalog service.MenuCatalog, images MenuImages, printer MenuPrinter, logger *logrus.Logger) *MenuController {
	return &MenuController{
		catalog: catalog,
		images:  images,
		printer: printer,
		logger:  logger,
	}
}

// GetMenu handles GET /api/menu?category=breakfast
// Returns the available items, optionally for one category
func (c *MenuController) GetMenu(w http.ResponseWriter, r *http.Request) {
	items := c.catalog.Available(r.URL.Query().Get("category"))
	views := make([]models.MenuItemView, 0, len(items))
	for _, item := range items {
		views = append(views, service.View(item))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetMenuImage handles GET /api/menu/{id}/image?size=thumb
// Returns the optimized JPEG photo of a menu item
func (c *MenuController) GetMenuImage(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	size := r.URL.Query().Get("size")
	if size == "" {
		size = "medium"
	}

	data, err := c.images.MenuItemImage(r.Context(), itemID, size)
	if err != nil {
		if !errors.Is(err, service.ErrImageNotFound) && !errors.Is(err, service.ErrMenuItemNotFound) {
			c.logger.WithError(err).WithField("item_id", itemID).Warn("GetMenuImage: failed to load image")
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// PrintMenu handles GET /api/menu/print
// Returns the printable menu as HTML; the PDF export prints this page
func (c *MenuController) PrintMenu(w http.ResponseWriter, r *http.Request) {
	html, err := c.printer.RenderMenuHTML()
	if err != nil {
		c.logger.WithError(err).Error("PrintMenu: failed to render menu")
		writeError(w, http.StatusInternalServerError, "failed to render menu")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
