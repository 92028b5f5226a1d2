package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/securechat/internal/common"
	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/internal/models"
	"github.com/thereayou/securechat/internal/services"
)

func userRouter(svc *mockProfileService) *gin.Engine {
	h := NewUserHandler(svc, logging.Discard())
	r := gin.New()
	r.GET("/get_user_profile", h.GetProfile)
	r.POST("/update_profile", withIdentity("alice"), h.UpdateProfile)
	r.POST("/upload_profile_picture", withIdentity("alice"), h.UploadPicture)
	return r
}

func TestGetProfile(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := new(mockProfileService)
		svc.On("GetProfile", mock.Anything, "alice").
			Return(&models.Profile{Username: "alice", Bio: "hi"}, nil).Once()

		w := doRequest(userRouter(svc), http.MethodGet, "/get_user_profile?username=alice", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"username":"alice","bio":"hi","profile_picture":""}`, w.Body.String())
	})

	t.Run("unknown", func(t *testing.T) {
		svc := new(mockProfileService)
		svc.On("GetProfile", mock.Anything, "bob").Return(nil, common.ErrNotFound).Once()

		w := doRequest(userRouter(svc), http.MethodGet, "/get_user_profile?username=bob", "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no username", func(t *testing.T) {
		w := doRequest(userRouter(new(mockProfileService)), http.MethodGet, "/get_user_profile", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Run("own profile", func(t *testing.T) {
		svc := new(mockProfileService)
		bio := "new bio"
		svc.On("UpdateProfile", mock.Anything, "alice", services.ProfileUpdate{Bio: &bio}).
			Return(&models.Profile{Username: "alice", Bio: bio}, nil).Once()

		w := doRequest(userRouter(svc), http.MethodPost, "/update_profile", "application/json",
			`{"username":"alice","bio":"new bio"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"bio":"new bio"`)
		svc.AssertExpectations(t)
	})

	t.Run("someone else's profile", func(t *testing.T) {
		svc := new(mockProfileService)

		w := doRequest(userRouter(svc), http.MethodPost, "/update_profile", "application/json",
			`{"username":"bob","bio":"pwned"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})
}

func multipartPicture(t *testing.T, username, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if username != "" {
		require.NoError(t, mw.WriteField("username", username))
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadRequest(r http.Handler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload_profile_picture", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadPicture(t *testing.T) {
	t.Run("stored", func(t *testing.T) {
		svc := new(mockProfileService)
		svc.On("UploadPicture", mock.Anything, "alice", "me.png", "image/png", mock.Anything, int64(4)).
			Return("https://cdn/p.png", nil).Once()

		body, ct := multipartPicture(t, "alice", "image/png", []byte("\x89PNG"))
		w := uploadRequest(userRouter(svc), body, ct)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"profile_picture_url":"https://cdn/p.png"}`, w.Body.String())
	})

	t.Run("uploads disabled", func(t *testing.T) {
		svc := new(mockProfileService)
		svc.On("UploadPicture", mock.Anything, "alice", "me.png", "image/png", mock.Anything, int64(4)).
			Return("", common.ErrUploadsDisabled).Once()

		body, ct := multipartPicture(t, "", "image/png", []byte("\x89PNG"))
		w := uploadRequest(userRouter(svc), body, ct)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("other user", func(t *testing.T) {
		svc := new(mockProfileService)

		body, ct := multipartPicture(t, "bob", "image/png", []byte("\x89PNG"))
		w := uploadRequest(userRouter(svc), body, ct)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "UploadPicture")
	})

	t.Run("not an image", func(t *testing.T) {
		body, ct := multipartPicture(t, "", "text/plain", []byte("hello"))
		w := uploadRequest(userRouter(new(mockProfileService)), body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no file", func(t *testing.T) {
		w := doRequest(userRouter(new(mockProfileService)), http.MethodPost, "/upload_profile_picture",
			"multipart/form-data; boundary=x", "--x--\r\n")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too large", func(t *testing.T) {
		body, ct := multipartPicture(t, "", "image/png", bytes.Repeat([]byte{0}, MaxPictureSize+1))
		w := uploadRequest(userRouter(new(mockProfileService)), body, ct)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
