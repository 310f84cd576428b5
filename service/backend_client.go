package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/models"
	"github.com/Uz11ps/bototelgara/order"
)

// maxImageSize bounds images fetched through the backend.
const maxImageSize = 20 << 20

// ServerError is returned when the backend answers with a non-2xx status.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Ошибка сервера: %d", e.Status)
}

// BackendClient talks to the hotel REST backend
type BackendClient struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger
}

// NewBackendClient creates a client for baseURL. Request timeouts are
// left to the HTTP client.
func NewBackendClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

var (
	_ order.Submitter = (*BackendClient)(nil)
	_ MenuSource      = (*BackendClient)(nil)
	_ MenuWriter      = (*BackendClient)(nil)
	_ ImageFetcher    = (*BackendClient)(nil)
)

// SubmitOrder handles POST /api/orders. The response body is not used.
func (c *BackendClient) SubmitOrder(ctx context.Context, req *order.Request) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/orders", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	c.logger.WithFields(logrus.Fields{"room": req.RoomNumber, "items": len(req.Items)}).Info("SubmitOrder: order accepted")
	return nil
}

// ListMenu handles GET /api/menu and returns every item, available or not
func (c *BackendClient) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/api/menu", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var items []models.MenuItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode menu: %w", err)
	}
	return items, nil
}

// ListAvailableMenu returns only items that can be ordered
func (c *BackendClient) ListAvailableMenu(ctx context.Context) ([]models.MenuItem, error) {
	items, err := c.ListMenu(ctx)
	if err != nil {
		return nil, err
	}
	return FilterAvailable(items), nil
}

// CreateMenuItem handles POST /api/menu
func (c *BackendClient) CreateMenuItem(ctx context.Context, payload models.MenuItemPayload) (*models.MenuItem, error) {
	return c.writeMenuItem(ctx, http.MethodPost, "/api/menu", payload)
}

// UpdateMenuItem handles PUT /api/menu/{id}
func (c *BackendClient) UpdateMenuItem(ctx context.Context, id int64, payload models.MenuItemPayload) (*models.MenuItem, error) {
	return c.writeMenuItem(ctx, http.MethodPut, fmt.Sprintf("/api/menu/%d", id), payload)
}

// SetMenuItemImage updates only image_url of an item
func (c *BackendClient) SetMenuItemImage(ctx context.Context, id int64, imageURL string) error {
	resp, err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/menu/%d", id), map[string]string{"image_url": imageURL})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

// IsAdmin handles GET /api/check-admin
func (c *BackendClient) IsAdmin(ctx context.Context, telegramID string) (bool, error) {
	path := "/api/check-admin?telegram_id=" + url.QueryEscape(telegramID)
	resp, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var body struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode admin check: %w", err)
	}
	return body.IsAdmin, nil
}

// FetchImage downloads an image. Relative URLs are resolved against the backend.
func (c *BackendClient) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("image url is empty")
	}
	if strings.HasPrefix(imageURL, "/") {
		imageURL = c.baseURL + imageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServerError{Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// CameraSnapshot fetches one frame from GET /api/camera/{id}/snapshot
func (c *BackendClient) CameraSnapshot(ctx context.Context, cameraID string) ([]byte, error) {
	return c.FetchImage(ctx, "/api/camera/"+url.PathEscape(cameraID)+"/snapshot")
}

func (c *BackendClient) writeMenuItem(ctx context.Context, method, path string, payload models.MenuItemPayload) (*models.MenuItem, error) {
	resp, err := c.doJSON(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var item models.MenuItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode menu item: %w", err)
	}
	return &item, nil
}

// doJSON sends body as JSON and returns the response when the status is 2xx.
// The caller closes the body.
func (c *BackendClient) doJSON(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{"method": method, "path": path}).Warn("backend request failed")
		return nil, fmt.Errorf("backend request %s %s failed: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		c.logger.WithFields(logrus.Fields{"method": method, "path": path, "status": resp.StatusCode}).Warn("backend returned error status")
		return nil, &ServerError{Status: resp.StatusCode}
	}

	return resp, nil
}

// FilterAvailable drops items explicitly marked unavailable
func FilterAvailable(items []models.MenuItem) []models.MenuItem {
	out := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if item.Available() {
			out = append(out, item)
		}
	}
	return out
}
