package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/composition"
	"github.com/Uz11ps/bototelgara/models"
)

var (
	// ErrDraftNotFound is returned for unknown or expired draft ids
	ErrDraftNotFound = errors.New("draft not found")
	// ErrItemNameRequired is returned when a new dish is saved without a name
	ErrItemNameRequired = errors.New("Укажите название блюда")
	// ErrItemPriceRequired is returned when a new dish is saved without a valid price
	ErrItemPriceRequired = errors.New("Укажите цену блюда")
)

// CompositionDraftServiceInterface defines the admin composition editing operations
type CompositionDraftServiceInterface interface {
	Open(ctx context.Context, itemID *int64) (*models.DraftResponse, error)
	Get(draftID string) (*models.DraftResponse, error)
	AddIngredient(draftID string, req models.AddIngredientRequest) (*models.DraftResponse, error)
	RemoveIngredient(draftID string, index int) (*models.DraftResponse, error)
	Cancel(draftID string) error
	Save(ctx context.Context, draftID string, req models.SaveDraftRequest) (*models.MenuItem, error)
}

type draft struct {
	id        string
	itemID    *int64
	list      *composition.List
	createdAt time.Time
}

// CompositionDraftService holds composition lists being edited by admins.
// A draft lives until it is saved, cancelled or expires; nothing reaches
// the backend before Save.
type CompositionDraftService struct {
	menu    MenuSource
	writer  MenuWriter
	catalog MenuCatalog
	ttl     time.Duration
	logger  *logrus.Logger
	now     func() time.Time

	mu     sync.Mutex
	drafts map[string]*draft
}

// NewCompositionDraftService creates a new CompositionDraftService.
// catalog may be nil; otherwise it is refreshed after every save.
func NewCompositionDraftService(menu MenuSource, writer MenuWriter, catalog MenuCatalog, ttl time.Duration, logger *logrus.Logger) *CompositionDraftService {
	return &CompositionDraftService{
		menu:    menu,
		writer:  writer,
		catalog: catalog,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		drafts:  make(map[string]*draft),
	}
}

var _ CompositionDraftServiceInterface = (*CompositionDraftService)(nil)

// Open starts a draft. With an item id the draft is seeded from the item's
// stored composition, legacy comma separated text included.
func (s *CompositionDraftService) Open(ctx context.Context, itemID *int64) (*models.DraftResponse, error) {
	var initial composition.Composition
	if itemID != nil {
		item, err := s.findItem(ctx, *itemID)
		if err != nil {
			return nil, err
		}
		initial = item.Composition
	}

	d := &draft{
		id:        uuid.NewString(),
		list:      composition.NewList(initial),
		createdAt: s.now(),
	}
	if itemID != nil {
		id := *itemID
		d.itemID = &id
	}

	s.mu.Lock()
	s.drafts[d.id] = d
	resp := d.response()
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"draft_id": d.id, "item_id": itemID, "ingredients": d.list.Len()}).Info("composition draft opened")
	return resp, nil
}

// Get returns a draft
func (s *CompositionDraftService) Get(draftID string) (*models.DraftResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d.response(), nil
}

// AddIngredient appends one ingredient to the draft
func (s *CompositionDraftService) AddIngredient(draftID string, req models.AddIngredientRequest) (*models.DraftResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	if err := d.list.AddIngredient(req.Name, string(req.Quantity), req.Unit); err != nil {
		return nil, err
	}
	return d.response(), nil
}

// RemoveIngredient removes the ingredient at index. Out of range indexes are ignored.
func (s *CompositionDraftService) RemoveIngredient(draftID string, index int) (*models.DraftResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[draftID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	d.list.RemoveIngredient(index)
	return d.response(), nil
}

// Cancel discards a draft without saving
func (s *CompositionDraftService) Cancel(draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[draftID]; !ok {
		return ErrDraftNotFound
	}
	delete(s.drafts, draftID)
	return nil
}

// Save writes the draft composition together with the other item fields.
// Existing items are updated from their current backend state; fields left
// out of req keep their stored values. The draft is discarded on success.
func (s *CompositionDraftService) Save(ctx context.Context, draftID string, req models.SaveDraftRequest) (*models.MenuItem, error) {
	s.mu.Lock()
	d, ok := s.drafts[draftID]
	var itemID *int64
	var comp composition.Composition
	if ok {
		itemID = d.itemID
		comp = d.list.Serialize()
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrDraftNotFound
	}

	var payload models.MenuItemPayload
	if itemID != nil {
		item, err := s.findItem(ctx, *itemID)
		if err != nil {
			return nil, err
		}
		payload = models.PayloadFrom(item)
	} else {
		if strings.TrimSpace(req.Name) == "" {
			return nil, ErrItemNameRequired
		}
		if req.Price == nil || *req.Price < 0 {
			return nil, ErrItemPriceRequired
		}
		payload = models.MenuItemPayload{Category: models.CategoryDinner, IsAvailable: true}
	}
	applyDraftFields(&payload, req)
	payload.Composition = comp

	var saved *models.MenuItem
	var err error
	if itemID != nil {
		saved, err = s.writer.UpdateMenuItem(ctx, *itemID, payload)
	} else {
		saved, err = s.writer.CreateMenuItem(ctx, payload)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.drafts, draftID)
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"draft_id": draftID, "item_id": saved.ID, "ingredients": len(comp)}).Info("composition saved")

	if s.catalog != nil {
		if err := s.catalog.Refresh(ctx); err != nil {
			s.logger.WithError(err).Warn("menu refresh after save failed")
		}
	}
	return saved, nil
}

// CleanupExpired drops drafts older than the draft TTL
func (s *CompositionDraftService) CleanupExpired(context.Context) (int, error) {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, d := range s.drafts {
		if d.createdAt.Before(cutoff) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed, nil
}

func (s *CompositionDraftService) findItem(ctx context.Context, id int64) (models.MenuItem, error) {
	items, err := s.menu.ListMenu(ctx)
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("failed to load menu item %d: %w", id, err)
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return models.MenuItem{}, ErrMenuItemNotFound
}

func applyDraftFields(p *models.MenuItemPayload, req models.SaveDraftRequest) {
	if name := strings.TrimSpace(req.Name); name != "" {
		p.Name = name
	}
	if req.Price != nil && *req.Price >= 0 {
		p.Price = *req.Price
	}
	if category := strings.ToLower(strings.TrimSpace(req.Category)); category != "" {
		p.Category = category
	}
	p.CategoryType = p.Category
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.AdminComment != nil {
		p.AdminComment = strings.TrimSpace(*req.AdminComment)
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
}

func (d *draft) response() *models.DraftResponse {
	comp := d.list.Serialize()
	return &models.DraftResponse{
		ID:          d.id,
		ItemID:      d.itemID,
		Composition: comp,
		Display:     comp.Strings(),
		CreatedAt:   d.createdAt,
	}
}
