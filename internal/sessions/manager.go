package sessions

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spotted/internal/models"
)

// ContextKey is where the session gate stores the caller's *models.Session.
const ContextKey = "session"

type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager ties the cookie on a request to its server-side record.
type Manager struct {
	store Store
	codec *CookieCodec
	opts  Options
}

func NewManager(store Store, codec *CookieCodec, opts Options) *Manager {
	return &Manager{store: store, codec: codec, opts: opts}
}

// Start records a snapshot of user and sets the session cookie.
func (m *Manager) Start(c *gin.Context, user models.User) (*models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	value, err := m.codec.Encode(token)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Create(c.Request.Context(), hashToken(token), user, time.Now().Add(m.opts.TTL))
	if err != nil {
		return nil, err
	}

	m.setCookie(c, value, int(m.opts.TTL.Seconds()))
	return session, nil
}

// Load resolves the cookie on the request. It returns ErrNoSession for
// anonymous callers, including those with a bad or expired cookie.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*models.Session, error) {
	token, err := m.tokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	return m.store.Get(ctx, hashToken(token))
}

// Destroy deletes the caller's session record, if any, and expires the cookie.
func (m *Manager) Destroy(c *gin.Context) error {
	defer m.setCookie(c, "", -1)

	token, err := m.tokenFromRequest(c.Request)
	if err != nil {
		return nil
	}
	return m.store.Delete(c.Request.Context(), hashToken(token))
}

func (m *Manager) tokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSession
	}
	token, err := m.codec.Decode(cookie.Value)
	if err != nil {
		return "", ErrNoSession
	}
	return token, nil
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.opts.CookieName, value, maxAge, "/", "", m.opts.Secure, true)
}

// Current returns the session the gate attached to c, if any.
func Current(c *gin.Context) (*models.Session, bool) {
	value, ok := c.Get(ContextKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok && session != nil
}
