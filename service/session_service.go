package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/cart"
	"github.com/Uz11ps/bototelgara/models"
	"github.com/Uz11ps/bototelgara/order"
	"github.com/Uz11ps/bototelgara/repository"
	"github.com/Uz11ps/bototelgara/utils"
)

// ErrMenuItemNotFound is returned when a guest adds an item that is not on the available menu
var ErrMenuItemNotFound = errors.New("Блюдо недоступно")

// SubmitError wraps a failed order submission. Its message is shown to the guest as is.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return e.Err.Error() }
func (e *SubmitError) Unwrap() error { return e.Err }

const sessionLockStripes = 64

// SessionServiceInterface defines the guest cart and checkout operations
type SessionServiceInterface interface {
	Create(ctx context.Context, guest order.Guest) (*models.GuestSession, error)
	Cart(ctx context.Context, sessionID string) (*models.CartResponse, error)
	AddItem(ctx context.Context, sessionID string, itemID int64) (*models.CartResponse, error)
	UpdateItem(ctx context.Context, sessionID string, itemID int64, delta int) (*models.CartResponse, error)
	Clear(ctx context.Context, sessionID string) (*models.CartResponse, error)
	Open(ctx context.Context, sessionID string) (*models.CartResponse, error)
	Close(ctx context.Context, sessionID string) (*models.CartResponse, error)
	Checkout(ctx context.Context, sessionID string, req models.CheckoutRequest) (*models.CheckoutResponse, error)
	CleanupExpired(ctx context.Context) (int, error)
}

// SessionService keeps one cart and checkout flow per guest session.
// Operations on the same session are serialized; the order submission
// itself runs without holding the session lock, and cart changes are
// refused with order.ErrSubmitInFlight until it finishes.
type SessionService struct {
	repo      repository.SessionRepositoryInterface
	menu      MenuCatalog
	assembler *order.Assembler
	notifier  OrderNotifier
	ttl       time.Duration
	logger    *logrus.Logger
	now       func() time.Time

	locks [sessionLockStripes]sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]bool
	accepted   map[string]bool
}

// NewSessionService creates a new SessionService
func NewSessionService(
	repo repository.SessionRepositoryInterface,
	menu MenuCatalog,
	assembler *order.Assembler,
	notifier OrderNotifier,
	ttl time.Duration,
	logger *logrus.Logger,
) *SessionService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &SessionService{
		repo:      repo,
		menu:      menu,
		assembler: assembler,
		notifier:  notifier,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
		inflight:  make(map[string]bool),
		accepted:  make(map[string]bool),
	}
}

var _ SessionServiceInterface = (*SessionService)(nil)

// Create starts a new session for guest with an empty cart
func (s *SessionService) Create(ctx context.Context, guest order.Guest) (*models.GuestSession, error) {
	guest = guest.Normalize()
	now := s.now()
	session := &models.GuestSession{
		ID:            uuid.NewString(),
		GuestName:     guest.Name,
		TelegramID:    guest.TelegramID,
		CheckoutState: string(order.Browsing),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"session_id": session.ID, "guest": session.GuestName}).Info("session created")
	return session, nil
}

// Cart returns the current cart without changing it
func (s *SessionService) Cart(ctx context.Context, sessionID string) (*models.CartResponse, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	_, c, co, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.cartResponse(sessionID, c, co), nil
}

// AddItem adds one unit of a menu item. The price is taken from the
// cached menu and fixed for as long as the line stays in the cart.
func (s *SessionService) AddItem(ctx context.Context, sessionID string, itemID int64) (*models.CartResponse, error) {
	item, ok := s.menu.Lookup(itemID)
	if !ok {
		return nil, ErrMenuItemNotFound
	}
	return s.mutate(ctx, sessionID, func(c *cart.Cart, co *order.Checkout) error {
		if err := co.Browse(); err != nil {
			return err
		}
		c.Add(cart.Item{ID: item.ID, Name: item.Name, Price: item.Price})
		return nil
	})
}

// UpdateItem changes the quantity of a line by delta, removing it at zero.
// Deltas beyond ±cart.MaxQuantity are refused with cart.ErrDeltaOutOfRange.
func (s *SessionService) UpdateItem(ctx context.Context, sessionID string, itemID int64, delta int) (*models.CartResponse, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart, co *order.Checkout) error {
		if err := co.Browse(); err != nil {
			return err
		}
		return c.SetQuantity(itemID, delta)
	})
}

// Clear empties the cart
func (s *SessionService) Clear(ctx context.Context, sessionID string) (*models.CartResponse, error) {
	return s.mutate(ctx, sessionID, func(c *cart.Cart, co *order.Checkout) error {
		if err := co.Browse(); err != nil {
			return err
		}
		c.Clear()
		return nil
	})
}

// Open moves the session to the cart review step
func (s *SessionService) Open(ctx context.Context, sessionID string) (*models.CartResponse, error) {
	return s.mutate(ctx, sessionID, func(_ *cart.Cart, co *order.Checkout) error {
		return co.Open()
	})
}

// Close leaves the cart review step
func (s *SessionService) Close(ctx context.Context, sessionID string) (*models.CartResponse, error) {
	return s.mutate(ctx, sessionID, func(_ *cart.Cart, co *order.Checkout) error {
		return co.Close()
	})
}

// Checkout validates the cart, submits the order and clears the cart once
// the backend accepts it. On failure the cart is kept and the error is
// returned wrapped in SubmitError. An accepted order is reported as placed
// even when the session cannot be stored afterwards.
func (s *SessionService) Checkout(ctx context.Context, sessionID string, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	unlock := s.lock(sessionID)
	session, c, co, err := s.load(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, err
	}
	if s.isInflight(sessionID) {
		unlock()
		return nil, order.ErrSubmitInFlight
	}
	if err := co.Begin(c, req.RoomNumber); err != nil {
		unlock()
		return nil, err
	}

	guest := order.Guest{Name: session.GuestName, TelegramID: session.TelegramID}
	orderReq := order.BuildRequest(c, guest, req.RoomNumber, req.Comment)
	lines := c.Lines()
	total := c.Total()

	s.setInflight(sessionID, true)
	if err := s.save(ctx, session, c, co); err != nil {
		s.setInflight(sessionID, false)
		unlock()
		return nil, err
	}
	unlock()

	log := s.logger.WithFields(logrus.Fields{"session_id": sessionID, "room": orderReq.RoomNumber, "items": len(orderReq.Items)})
	log.Info("submitting order")

	// The guest leaving must not abort an order the backend may already be processing.
	submitCtx := context.WithoutCancel(ctx)
	submitErr := s.assembler.Submit(submitCtx, orderReq)

	unlock = s.lock(sessionID)
	s.setInflight(sessionID, false)

	if submitErr != nil {
		co.Fail(submitErr)
		log.WithError(submitErr).Warn("order submission failed")
		if err := s.save(submitCtx, session, c, co); err != nil {
			log.WithError(err).Error("failed to save session after rejected order")
		}
		unlock()
		return nil, &SubmitError{Err: submitErr}
	}

	co.Succeed(c)
	log.WithField("total", total).Info("order accepted")
	if err := s.save(submitCtx, session, c, co); err != nil {
		// The stored cart still holds the accepted order; it is cleared on the next load.
		s.setAccepted(sessionID, true)
		log.WithError(err).Error("failed to save session after accepted order")
	}
	resp := &models.CheckoutResponse{
		Success:    true,
		Message:    "Заказ отправлен",
		RoomNumber: orderReq.RoomNumber,
		Total:      total,
		Cart:       *s.cartResponse(sessionID, c, co),
	}
	unlock()

	event := orderEvent(session, orderReq, lines, total, s.now())
	if err := s.notifier.OrderPlaced(submitCtx, event); err != nil {
		log.WithError(err).Warn("failed to publish order event")
	}
	return resp, nil
}

// CleanupExpired removes sessions idle for longer than the session TTL
func (s *SessionService) CleanupExpired(ctx context.Context) (int, error) {
	removed, err := s.repo.DeleteIdleSince(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("expired sessions removed")
	}
	return removed, nil
}

// CleanupPoller returns a poller that removes expired sessions every interval
func (s *SessionService) CleanupPoller(interval time.Duration) *Poller {
	return NewPoller("session-cleanup", interval, func(ctx context.Context) error {
		_, err := s.CleanupExpired(ctx)
		return err
	}, s.logger)
}

func (s *SessionService) mutate(ctx context.Context, sessionID string, fn func(*cart.Cart, *order.Checkout) error) (*models.CartResponse, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, c, co, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.isInflight(sessionID) {
		return nil, order.ErrSubmitInFlight
	}
	if err := fn(c, co); err != nil {
		return nil, err
	}
	if err := s.save(ctx, session, c, co); err != nil {
		return nil, err
	}
	return s.cartResponse(sessionID, c, co), nil
}

func (s *SessionService) load(ctx context.Context, sessionID string) (*models.GuestSession, *cart.Cart, *order.Checkout, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, err
	}
	c := cart.Restore(session.Lines)
	co := order.RestoreCheckout(order.State(session.CheckoutState), session.LastError)
	if s.isAccepted(sessionID) {
		co.Succeed(c)
	}
	return session, c, co, nil
}

func (s *SessionService) save(ctx context.Context, session *models.GuestSession, c *cart.Cart, co *order.Checkout) error {
	session.Lines = c.Lines()
	session.CheckoutState = string(co.State())
	session.LastError = co.LastError()
	session.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.setAccepted(session.ID, false)
	return nil
}

func (s *SessionService) cartResponse(sessionID string, c *cart.Cart, co *order.Checkout) *models.CartResponse {
	state := co.State()
	if s.isInflight(sessionID) {
		state = order.Submitting
	}
	return CartResponse(c, state, co.LastError())
}

func (s *SessionService) lock(sessionID string) func() {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	mu := &s.locks[h.Sum32()%sessionLockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *SessionService) setInflight(sessionID string, v bool) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if v {
		s.inflight[sessionID] = true
	} else {
		delete(s.inflight, sessionID)
	}
}

func (s *SessionService) isInflight(sessionID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	return s.inflight[sessionID]
}

// setAccepted marks a session whose order the backend accepted but whose
// cleared cart could not be stored yet.
func (s *SessionService) setAccepted(sessionID string, v bool) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if v {
		s.accepted[sessionID] = true
	} else {
		delete(s.accepted, sessionID)
	}
}

func (s *SessionService) isAccepted(sessionID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	return s.accepted[sessionID]
}

// CartResponse converts a cart into its JSON form
func CartResponse(c *cart.Cart, state order.State, lastErr string) *models.CartResponse {
	lines := c.Lines()
	resp := &models.CartResponse{
		Lines:          make([]models.CartLineResponse, 0, len(lines)),
		Total:          c.Total(),
		TotalFormatted: utils.FormatRUB(c.Total()),
		Count:          c.Count(),
		State:          string(state),
		LastError:      lastErr,
	}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, models.CartLineResponse{
			ID:       line.ID,
			Name:     line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
			Subtotal: line.Subtotal(),
		})
	}
	return resp
}

func orderEvent(session *models.GuestSession, req *order.Request, lines []cart.Line, total int64, placedAt time.Time) *models.OrderPlacedEvent {
	items := make([]models.OrderedItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderedItem{
			ID:       line.ID,
			Name:     line.Name,
			Qty:      line.Quantity,
			Price:    line.Price,
			Subtotal: line.Subtotal(),
		})
	}
	return &models.OrderPlacedEvent{
		SessionID:  session.ID,
		GuestName:  req.GuestName,
		TelegramID: req.TelegramID,
		RoomNumber: req.RoomNumber,
		Comment:    req.Comment,
		Items:      items,
		Total:      total,
		PlacedAt:   placedAt,
	}
}
