package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// InitDataHeader carries the Telegram WebApp initData of the admin making the request
const InitDataHeader = "X-Telegram-Init-Data"

var (
	ErrInvalidInitData = errors.New("invalid Telegram init data")
	ErrInitDataExpired = errors.New("Telegram init data expired")
)

// AdminChecker reports whether a Telegram user is a hotel admin
type AdminChecker interface {
	IsAdmin(ctx context.Context, telegramID string) (bool, error)
}

// InitDataVerifier checks Telegram WebApp initData signed with the bot token
// and extracts the Telegram user id from it.
type InitDataVerifier struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewInitDataVerifier creates a verifier for botToken. initData older than
// maxAge is refused; zero disables the age check. An empty bot token
// refuses everything.
func NewInitDataVerifier(botToken string, maxAge time.Duration) *InitDataVerifier {
	v := &InitDataVerifier{maxAge: maxAge, now: time.Now}
	if botToken != "" {
		mac := hmac.New(sha256.New, []byte("WebAppData"))
		mac.Write([]byte(botToken))
		v.secret = mac.Sum(nil)
	}
	return v
}

// Verify validates the initData signature and returns the Telegram user id
func (v *InitDataVerifier) Verify(initData string) (string, error) {
	if v.secret == nil {
		return "", ErrInvalidInitData
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return "", ErrInvalidInitData
	}
	hash := values.Get("hash")
	if hash == "" {
		return "", ErrInvalidInitData
	}
	if !hmac.Equal([]byte(v.sign(values)), []byte(strings.ToLower(hash))) {
		return "", ErrInvalidInitData
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return "", ErrInvalidInitData
	}
	if v.maxAge > 0 && v.now().Sub(time.Unix(authDate, 0)) > v.maxAge {
		return "", ErrInitDataExpired
	}

	var user struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return "", ErrInvalidInitData
	}
	return strconv.FormatInt(user.ID, 10), nil
}

// Sign builds initData for a Telegram user the way the Telegram client does.
// Used to call admin endpoints from local tooling and tests.
func (v *InitDataVerifier) Sign(telegramID int64, authDate time.Time) string {
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("user", `{"id":`+strconv.FormatInt(telegramID, 10)+`}`)
	values.Set("hash", v.sign(values))
	return values.Encode()
}

// sign returns the hex HMAC of the sorted key=value pairs, hash excluded.
func (v *InitDataVerifier) sign(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

// RequireAdmin lets the request through only for signed Telegram users the
// backend knows as admins
func RequireAdmin(verifier *InitDataVerifier, checker AdminChecker, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			initData := strings.TrimSpace(r.Header.Get(InitDataHeader))
			if initData == "" {
				writeError(w, http.StatusUnauthorized, "missing "+InitDataHeader+" header")
				return
			}
			telegramID, err := verifier.Verify(initData)
			if err != nil {
				logger.WithError(err).WithField("remote_addr", r.RemoteAddr).Warn("admin init data rejected")
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ok, err := checker.IsAdmin(r.Context(), telegramID)
			if err != nil {
				logger.WithError(err).WithField("telegram_id", telegramID).Warn("admin check failed")
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			if !ok {
				logger.WithField("telegram_id", telegramID).Warn("admin access denied")
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
