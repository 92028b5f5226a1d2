package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/securechat/internal/common"
	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/internal/models"
)

type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProfileStore) UpdateProfile(ctx context.Context, username string, bio, picture *string) error {
	return m.Called(ctx, username, bio, picture).Error(0)
}

type mapCache struct {
	profiles map[string]models.Profile
	deleted  []string
	getErr   error
}

func newMapCache() *mapCache {
	return &mapCache{profiles: map[string]models.Profile{}}
}

func (c *mapCache) Get(_ context.Context, username string) (*models.Profile, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	if p, ok := c.profiles[username]; ok {
		return &p, nil
	}
	return nil, nil
}

func (c *mapCache) Set(_ context.Context, p models.Profile) error {
	c.profiles[p.Username] = p
	return nil
}

func (c *mapCache) Delete(_ context.Context, username string) error {
	delete(c.profiles, username)
	c.deleted = append(c.deleted, username)
	return nil
}

// fakeObjects mints a new URL on every call, the way presigning does.
type fakeObjects struct {
	key         string
	contentType string
	body        []byte
	err         error
	urls        int
}

func (f *fakeObjects) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.key, f.contentType = key, contentType
	f.body, _ = io.ReadAll(body)
	return nil
}

func (f *fakeObjects) URL(_ context.Context, key string) (string, error) {
	f.urls++
	return fmt.Sprintf("https://s3.test/%s?sig=%d", key, f.urls), nil
}

func TestGetProfile_CachesStoreResult(t *testing.T) {
	store := new(mockProfileStore)
	cache := newMapCache()
	svc := NewProfileService(store, cache, nil, logging.Discard())

	store.On("FindUserByUsername", mock.Anything, "alice").
		Return(&models.User{Username: "alice", Bio: "hi"}, nil).Once()

	p, err := svc.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "hi", p.Bio)

	p, err = svc.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "hi", p.Bio)

	store.AssertNumberOfCalls(t, "FindUserByUsername", 1)
}

func TestGetProfile_CacheErrorFallsBackToStore(t *testing.T) {
	store := new(mockProfileStore)
	cache := newMapCache()
	cache.getErr = errors.New("redis down")
	svc := NewProfileService(store, cache, nil, logging.Discard())

	store.On("FindUserByUsername", mock.Anything, "alice").
		Return(&models.User{Username: "alice"}, nil)

	p, err := svc.GetProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
}

func TestGetProfile_NotFound(t *testing.T) {
	store := new(mockProfileStore)
	svc := NewProfileService(store, newMapCache(), nil, logging.Discard())

	store.On("FindUserByUsername", mock.Anything, "ghost").Return(nil, common.ErrNotFound)

	_, err := svc.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateProfile_InvalidatesCache(t *testing.T) {
	store := new(mockProfileStore)
	cache := newMapCache()
	cache.profiles["alice"] = models.Profile{Username: "alice", Bio: "old"}
	svc := NewProfileService(store, cache, nil, logging.Discard())
	bio := "new"

	store.On("UpdateProfile", mock.Anything, "alice", &bio, (*string)(nil)).Return(nil)
	store.On("FindUserByUsername", mock.Anything, "alice").
		Return(&models.User{Username: "alice", Bio: "new"}, nil)

	p, err := svc.UpdateProfile(context.Background(), "alice", ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "new", p.Bio)
	assert.Equal(t, []string{"alice"}, cache.deleted)
}

func TestUploadPicture(t *testing.T) {
	store := new(mockProfileStore)
	objects := &fakeObjects{}
	svc := NewProfileService(store, newMapCache(), objects, logging.Discard())

	store.On("UpdateProfile", mock.Anything, "alice", (*string)(nil), mock.AnythingOfType("*string")).Return(nil)

	location, err := svc.UploadPicture(context.Background(), "alice", "Me.PNG", "image/png", bytes.NewReader([]byte("png")), 3)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(objects.key, "profile-pictures/alice/"))
	assert.True(t, strings.HasSuffix(objects.key, ".png"))
	assert.Equal(t, "image/png", objects.contentType)
	assert.Equal(t, []byte("png"), objects.body)
	assert.Equal(t, "https://s3.test/"+objects.key+"?sig=1", location)

	stored := store.Calls[0].Arguments.Get(3).(*string)
	assert.Equal(t, "s3:"+objects.key, *stored)
}

func TestUploadPicture_StoredReferenceIsResolvedOnEveryRead(t *testing.T) {
	store := new(mockProfileStore)
	objects := &fakeObjects{}
	cache := newMapCache()
	svc := NewProfileService(store, cache, objects, logging.Discard())

	var stored string
	store.On("UpdateProfile", mock.Anything, "jane doe", (*string)(nil), mock.AnythingOfType("*string")).
		Run(func(args mock.Arguments) { stored = *args.Get(3).(*string) }).
		Return(nil).Once()

	_, err := svc.UploadPicture(context.Background(), "jane doe", "me.png", "image/png", strings.NewReader("x"), 1)
	require.NoError(t, err)

	assert.Equal(t, "s3:"+objects.key, stored)
	assert.NotContains(t, stored, "sig=")
	assert.True(t, strings.HasPrefix(objects.key, "profile-pictures/jane doe/"))

	store.On("FindUserByUsername", mock.Anything, "jane doe").
		Return(&models.User{Username: "jane doe", ProfilePicture: stored}, nil).Once()

	first, err := svc.GetProfile(context.Background(), "jane doe")
	require.NoError(t, err)
	second, err := svc.GetProfile(context.Background(), "jane doe")
	require.NoError(t, err)

	assert.Equal(t, "https://s3.test/"+objects.key+"?sig=2", first.ProfilePicture)
	assert.Equal(t, "https://s3.test/"+objects.key+"?sig=3", second.ProfilePicture)
	assert.Equal(t, stored, cache.profiles["jane doe"].ProfilePicture)
	store.AssertExpectations(t)
}

func TestGetProfile_ExternalPictureUntouched(t *testing.T) {
	store := new(mockProfileStore)
	objects := &fakeObjects{}
	svc := NewProfileService(store, newMapCache(), objects, logging.Discard())

	store.On("FindUserByUsername", mock.Anything, "bob").
		Return(&models.User{Username: "bob", ProfilePicture: "https://gravatar.test/bob"}, nil)

	p, err := svc.GetProfile(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "https://gravatar.test/bob", p.ProfilePicture)
	assert.Zero(t, objects.urls)
}

func TestGetProfile_ObjectPictureWithoutStorage(t *testing.T) {
	store := new(mockProfileStore)
	svc := NewProfileService(store, newMapCache(), nil, logging.Discard())

	store.On("FindUserByUsername", mock.Anything, "bob").
		Return(&models.User{Username: "bob", ProfilePicture: "s3:profile-pictures/bob/x.png"}, nil)

	p, err := svc.GetProfile(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, p.ProfilePicture)
}

func TestUploadPicture_Disabled(t *testing.T) {
	svc := NewProfileService(new(mockProfileStore), newMapCache(), nil, logging.Discard())

	_, err := svc.UploadPicture(context.Background(), "alice", "a.png", "image/png", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, common.ErrUploadsDisabled)
}

func TestUploadPicture_StorageError(t *testing.T) {
	store := new(mockProfileStore)
	svc := NewProfileService(store, newMapCache(), &fakeObjects{err: errors.New("s3 down")}, logging.Discard())

	_, err := svc.UploadPicture(context.Background(), "alice", "a.png", "image/png", strings.NewReader("x"), 1)
	assert.Error(t, err)
	store.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPictureKey(t *testing.T) {
	k1 := PictureKey("alice", "x.JPG")
	k2 := PictureKey("alice", "x.JPG")

	assert.NotEqual(t, k1, k2)
	assert.True(t, strings.HasPrefix(k1, "profile-pictures/alice/"))
	assert.True(t, strings.HasSuffix(k1, ".jpg"))
	assert.False(t, strings.Contains(PictureKey("bob", "noext"), "."))

	assert.True(t, strings.HasPrefix(PictureKey("jane doe", "a.png"), "profile-pictures/jane doe/"))
	assert.True(t, strings.HasPrefix(PictureKey("Ünïcødé", "a.png"), "profile-pictures/Ünïcødé/"))
	assert.True(t, strings.HasPrefix(PictureKey("a/b", "a.png"), "profile-pictures/a_b/"))
	assert.True(t, strings.HasPrefix(PictureKey("..", "a.png"), "profile-pictures/_../"))
}
