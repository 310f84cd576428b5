package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Uz11ps/bototelgara/composition"
	"github.com/Uz11ps/bototelgara/logging"
	"github.com/Uz11ps/bototelgara/models"
)

type recordingMenuWriter struct {
	created []models.MenuItemPayload
	updated map[int64]models.MenuItemPayload
	images  map[int64]string
	err     error
}

func newRecordingMenuWriter() *recordingMenuWriter {
	return &recordingMenuWriter{updated: map[int64]models.MenuItemPayload{}, images: map[int64]string{}}
}

func (w *recordingMenuWriter) CreateMenuItem(_ context.Context, p models.MenuItemPayload) (*models.MenuItem, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.created = append(w.created, p)
	return &models.MenuItem{ID: 100, Name: p.Name, Price: p.Price, Composition: p.Composition}, nil
}

func (w *recordingMenuWriter) UpdateMenuItem(_ context.Context, id int64, p models.MenuItemPayload) (*models.MenuItem, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.updated[id] = p
	return &models.MenuItem{ID: id, Name: p.Name, Price: p.Price, Composition: p.Composition}, nil
}

func (w *recordingMenuWriter) SetMenuItemImage(_ context.Context, id int64, url string) error {
	if w.err != nil {
		return w.err
	}
	w.images[id] = url
	return nil
}

type countingCatalog struct {
	stubCatalog
	refreshes int
}

func (c *countingCatalog) Refresh(context.Context) error {
	c.refreshes++
	return nil
}

func newTestDraftService() (*CompositionDraftService, *recordingMenuWriter, *countingCatalog) {
	source := &stubMenuSource{items: sampleMenu()}
	writer := newRecordingMenuWriter()
	catalog := &countingCatalog{}
	return NewCompositionDraftService(source, writer, catalog, time.Hour, logging.Discard()), writer, catalog
}

func TestCompositionDraftService_EditExistingItem(t *testing.T) {
	ctx := context.Background()
	svc, writer, catalog := newTestDraftService()

	itemID := int64(4)
	d, err := svc.Open(ctx, &itemID)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if len(d.Composition) != 2 || d.Composition[0].Name != "Говядина" || d.Composition[0].Quantity != nil {
		t.Fatalf("legacy composition not loaded: %+v", d.Composition)
	}

	d, err = svc.AddIngredient(d.ID, models.AddIngredientRequest{Name: " Перец ", Quantity: "5", Unit: "г"})
	if err != nil {
		t.Fatalf("AddIngredient returned error: %v", err)
	}
	if d.Display[2] != "Перец — 5 г" {
		t.Fatalf("Display = %v", d.Display)
	}

	if _, err := svc.AddIngredient(d.ID, models.AddIngredientRequest{Name: "  "}); !errors.Is(err, composition.ErrEmptyName) {
		t.Fatalf("AddIngredient(blank) error = %v, want %v", err, composition.ErrEmptyName)
	}

	d, _ = svc.RemoveIngredient(d.ID, 1)
	d, _ = svc.RemoveIngredient(d.ID, 10)
	if len(d.Composition) != 2 || d.Composition[1].Name != "Перец" {
		t.Fatalf("unexpected composition after removal: %+v", d.Composition)
	}

	price := int64(2100)
	saved, err := svc.Save(ctx, d.ID, models.SaveDraftRequest{Price: &price})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.ID != 4 {
		t.Fatalf("saved id = %d, want 4", saved.ID)
	}

	payload, ok := writer.updated[4]
	if !ok {
		t.Fatalf("item 4 was not updated")
	}
	if payload.Name != "Стейк" || payload.Price != 2100 || payload.Category != "dinner" || !payload.IsAvailable {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if len(payload.Composition) != 2 || *payload.Composition[1].Quantity != 5 || *payload.Composition[1].Unit != "г" {
		t.Fatalf("unexpected composition: %+v", payload.Composition)
	}
	if catalog.refreshes != 1 {
		t.Fatalf("menu not refreshed after save")
	}
	if _, err := svc.Get(d.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("draft must be discarded after save")
	}
}

func TestCompositionDraftService_SaveTextFields(t *testing.T) {
	empty, badge := "", " Новинка "
	tests := []struct {
		name        string
		req         models.SaveDraftRequest
		wantComment string
		wantDesc    string
	}{
		{name: "omitted fields keep stored values", req: models.SaveDraftRequest{}, wantComment: " Хит "},
		{name: "empty comment clears badge", req: models.SaveDraftRequest{AdminComment: &empty}, wantComment: ""},
		{name: "new comment", req: models.SaveDraftRequest{AdminComment: &badge, Description: &badge}, wantComment: "Новинка", wantDesc: "Новинка"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, writer, _ := newTestDraftService()

			itemID := int64(4)
			d, err := svc.Open(ctx, &itemID)
			if err != nil {
				t.Fatalf("Open returned error: %v", err)
			}
			if _, err := svc.Save(ctx, d.ID, tt.req); err != nil {
				t.Fatalf("Save returned error: %v", err)
			}

			payload := writer.updated[4]
			if payload.AdminComment != tt.wantComment || payload.Description != tt.wantDesc {
				t.Fatalf("admin_comment = %q, description = %q, want %q and %q",
					payload.AdminComment, payload.Description, tt.wantComment, tt.wantDesc)
			}
		})
	}
}

func TestCompositionDraftService_CreateItem(t *testing.T) {
	ctx := context.Background()
	svc, writer, _ := newTestDraftService()

	d, _ := svc.Open(ctx, nil)
	svc.AddIngredient(d.ID, models.AddIngredientRequest{Name: "Творог", Quantity: "200", Unit: ""})

	if _, err := svc.Save(ctx, d.ID, models.SaveDraftRequest{}); !errors.Is(err, ErrItemNameRequired) {
		t.Fatalf("Save without name error = %v, want %v", err, ErrItemNameRequired)
	}
	if _, err := svc.Save(ctx, d.ID, models.SaveDraftRequest{Name: "Сырники"}); !errors.Is(err, ErrItemPriceRequired) {
		t.Fatalf("Save without price error = %v, want %v", err, ErrItemPriceRequired)
	}

	price := int64(650)
	if _, err := svc.Save(ctx, d.ID, models.SaveDraftRequest{Name: "Сырники", Price: &price, Category: "Breakfast"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if len(writer.created) != 1 {
		t.Fatalf("expected one created item, got %d", len(writer.created))
	}
	p := writer.created[0]
	if p.Category != "breakfast" || p.CategoryType != "breakfast" || !p.IsAvailable {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if len(p.Composition) != 1 || p.Composition[0].Quantity != nil || p.Composition[0].Unit != nil {
		t.Fatalf("quantity without unit must be dropped: %+v", p.Composition)
	}
}

func TestCompositionDraftService_SaveFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	svc, writer, _ := newTestDraftService()
	writer.err = &ServerError{Status: 500}

	itemID := int64(1)
	d, _ := svc.Open(ctx, &itemID)
	if _, err := svc.Save(ctx, d.ID, models.SaveDraftRequest{}); err == nil {
		t.Fatalf("expected save error")
	}
	if _, err := svc.Get(d.ID); err != nil {
		t.Fatalf("draft lost after failed save: %v", err)
	}
}

func TestCompositionDraftService_OpenUnknownItem(t *testing.T) {
	svc, _, _ := newTestDraftService()
	itemID := int64(999)
	if _, err := svc.Open(context.Background(), &itemID); !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("Open error = %v, want %v", err, ErrMenuItemNotFound)
	}
}

func TestCompositionDraftService_CancelAndExpire(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestDraftService()

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	a, _ := svc.Open(ctx, nil)
	b, _ := svc.Open(ctx, nil)

	if err := svc.Cancel(a.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if err := svc.Cancel(a.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("second Cancel error = %v, want %v", err, ErrDraftNotFound)
	}

	now = now.Add(2 * time.Hour)
	removed, _ := svc.CleanupExpired(ctx)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := svc.Get(b.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expired draft still present")
	}
}
