package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/models"
	"github.com/Uz11ps/bototelgara/utils"
)

// MenuService caches the available menu between refreshes.
// Unavailable items are dropped on refresh and never reach a cart.
type MenuService struct {
	source MenuSource
	logger *logrus.Logger

	mu        sync.RWMutex
	items     []models.MenuItem
	byID      map[int64]models.MenuItem
	updatedAt time.Time
}

// NewMenuService creates an empty MenuService; call Refresh or run a poller to fill it.
func NewMenuService(source MenuSource, logger *logrus.Logger) *MenuService {
	return &MenuService{
		source: source,
		logger: logger,
		byID:   make(map[int64]models.MenuItem),
	}
}

var _ MenuCatalog = (*MenuService)(nil)

// Refresh reloads the menu from the backend. The previous menu is kept on failure.
func (s *MenuService) Refresh(ctx context.Context) error {
	items, err := s.source.ListMenu(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh menu: %w", err)
	}

	available := FilterAvailable(items)
	byID := make(map[int64]models.MenuItem, len(available))
	for _, item := range available {
		byID[item.ID] = item
	}

	s.mu.Lock()
	s.items = available
	s.byID = byID
	s.updatedAt = time.Now()
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"total": len(items), "available": len(available)}).Debug("menu refreshed")
	return nil
}

// Poller returns a poller that refreshes the menu every interval.
func (s *MenuService) Poller(interval time.Duration) *Poller {
	return NewPoller("menu", interval, s.Refresh, s.logger)
}

// Lookup returns an available item by id.
func (s *MenuService) Lookup(id int64) (models.MenuItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.byID[id]
	return item, ok
}

// Available returns the available items, optionally limited to one category.
func (s *MenuService) Available(category string) []models.MenuItem {
	category = strings.ToLower(strings.TrimSpace(category))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MenuItem, 0, len(s.items))
	for _, item := range s.items {
		if category == "" || item.CategoryName() == category {
			out = append(out, item)
		}
	}
	return out
}

// UpdatedAt returns when the menu was last refreshed successfully.
func (s *MenuService) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// View converts an item into its guest-facing form
func View(item models.MenuItem) models.MenuItemView {
	return models.MenuItemView{
		ID:             item.ID,
		Name:           item.Name,
		Description:    item.Description,
		Price:          item.Price,
		PriceFormatted: utils.FormatRUB(item.Price),
		Category:       item.CategoryName(),
		Badge:          strings.TrimSpace(item.AdminComment),
		Composition:    item.Composition.Strings(),
		ImageURL:       item.ImageURL,
	}
}
