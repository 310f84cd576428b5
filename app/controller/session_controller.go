package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/app/middleware"
	"github.com/Uz11ps/bototelgara/models"
	"github.com/Uz11ps/bototelgara/order"
	"github.com/Uz11ps/bototelgara/service"
)

// SessionController handles guest session creation
type SessionController struct {
	sessions service.SessionServiceInterface
	tokens   *middleware.SessionTokens
	logger   *logrus.Logger
}

// NewSessionController creates a new SessionController
func NewSessionController(sessions service.SessionServiceInterface, tokens *middleware.SessionTokens, logger *logrus.Logger) *SessionController {
	return &SessionController{
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

// CreateSession handles POST /api/session
// The body is optional; without it the guest is anonymous.
func (c *SessionController) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	session, err := c.sessions.Create(r.Context(), order.Guest{Name: req.GuestName, TelegramID: req.TelegramID})
	if err != nil {
		c.logger.WithError(err).Error("CreateSession: failed to create session")
		writeServiceError(w, err)
		return
	}

	token, expiresAt, err := c.tokens.Issue(session.ID, session.GuestName)
	if err != nil {
		c.logger.WithError(err).Error("CreateSession: failed to sign token")
		writeError(w, http.StatusInternalServerError, "failed to issue session token")
		return
	}

	writeJSON(w, http.StatusCreated, models.SessionResponse{
		Token:     token,
		SessionID: session.ID,
		GuestName: session.GuestName,
		ExpiresAt: expiresAt,
	})
}
