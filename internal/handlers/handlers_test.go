package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/thereayou/securechat/internal/middleware"
	"github.com/thereayou/securechat/internal/models"
	"github.com/thereayou/securechat/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Signup(ctx context.Context, username, password string) (*models.User, error) {
	args := m.Called(ctx, username, password)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (services.Session, error) {
	args := m.Called(ctx, username, password)
	session, _ := args.Get(0).(services.Session)
	return session, args.Error(1)
}

func (m *mockAuthService) Identity(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

type mockProfileService struct {
	mock.Mock
}

func (m *mockProfileService) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	args := m.Called(ctx, username)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, identity string, upd services.ProfileUpdate) (*models.Profile, error) {
	args := m.Called(ctx, identity, upd)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *mockProfileService) UploadPicture(ctx context.Context, identity, filename, contentType string, body io.Reader, size int64) (string, error) {
	args := m.Called(ctx, identity, filename, contentType, body, size)
	return args.String(0), args.Error(1)
}

type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) SaveMessage(ctx context.Context, message *models.Message) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockMessageStore) ListMessages(ctx context.Context, limit int, before *time.Time) ([]models.Message, error) {
	args := m.Called(ctx, limit, before)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Error(1)
}

// withIdentity stands in for the auth middlewares.
func withIdentity(identity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.IdentityKey, identity)
		c.Next()
	}
}

func doRequest(r http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
