package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/thereayou/securechat/internal/common"
	"github.com/thereayou/securechat/internal/logging"
	"github.com/thereayou/securechat/internal/models"
)

type ProfileStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, username string, bio, picture *string) error
}

// ProfileCache is a read-through cache of public profiles. Get returns
// nil, nil on a miss.
type ProfileCache interface {
	Get(ctx context.Context, username string) (*models.Profile, error)
	Set(ctx context.Context, profile models.Profile) error
	Delete(ctx context.Context, username string) error
}

// ObjectStorage stores uploaded blobs. URL returns a fetchable address for
// a stored key and may differ between calls, e.g. when it is presigned.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	URL(ctx context.Context, key string) (string, error)
}

// objectRefPrefix marks a profile picture held in ObjectStorage. The key is
// persisted instead of a URL, which is resolved on every read.
const objectRefPrefix = "s3:"

type ProfileUpdate struct {
	Bio            *string
	ProfilePicture *string
}

type ProfileService struct {
	store   ProfileStore
	cache   ProfileCache
	objects ObjectStorage
	logger  logging.Logger
}

// NewProfileService wires the profile collaborators. objects may be nil,
// in which case uploads fail with common.ErrUploadsDisabled.
func NewProfileService(store ProfileStore, cache ProfileCache, objects ObjectStorage, logger logging.Logger) *ProfileService {
	return &ProfileService{store: store, cache: cache, objects: objects, logger: logger}
}

// GetProfile returns the public profile with its picture resolved to a URL.
// The cache keeps the unresolved form.
func (s *ProfileService) GetProfile(ctx context.Context, username string) (*models.Profile, error) {
	if p, err := s.cache.Get(ctx, username); err != nil {
		s.logger.Warn(ctx, "profile cache read failed", "username", username, "error", err)
	} else if p != nil {
		s.resolvePicture(ctx, p)
		return p, nil
	}

	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := user.Profile()
	if err := s.cache.Set(ctx, profile); err != nil {
		s.logger.Warn(ctx, "profile cache write failed", "username", username, "error", err)
	}
	s.resolvePicture(ctx, &profile)
	return &profile, nil
}

func (s *ProfileService) resolvePicture(ctx context.Context, p *models.Profile) {
	key, ok := strings.CutPrefix(p.ProfilePicture, objectRefPrefix)
	if !ok {
		return
	}
	p.ProfilePicture = ""
	if s.objects == nil {
		return
	}
	location, err := s.objects.URL(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "cannot resolve profile picture", "username", p.Username, "key", key, "error", err)
		return
	}
	p.ProfilePicture = location
}

// UpdateProfile applies upd to identity's own profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, identity string, upd ProfileUpdate) (*models.Profile, error) {
	if err := s.store.UpdateProfile(ctx, identity, upd.Bio, upd.ProfilePicture); err != nil {
		return nil, err
	}
	s.invalidate(ctx, identity)
	return s.GetProfile(ctx, identity)
}

// UploadPicture stores the picture blob and points identity's profile at it.
func (s *ProfileService) UploadPicture(ctx context.Context, identity, filename, contentType string, body io.Reader, size int64) (string, error) {
	if s.objects == nil {
		return "", common.ErrUploadsDisabled
	}

	key := PictureKey(identity, filename)
	if err := s.objects.Put(ctx, key, contentType, body, size); err != nil {
		return "", fmt.Errorf("upload picture: %w", err)
	}

	ref := objectRefPrefix + key
	if err := s.store.UpdateProfile(ctx, identity, nil, &ref); err != nil {
		return "", err
	}
	s.invalidate(ctx, identity)

	location, err := s.objects.URL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("picture url: %w", err)
	}
	return location, nil
}

func (s *ProfileService) invalidate(ctx context.Context, username string) {
	if err := s.cache.Delete(ctx, username); err != nil {
		s.logger.Warn(ctx, "profile cache invalidation failed", "username", username, "error", err)
	}
}

// PictureKey builds a unique object key keeping the upload's extension.
// The key holds the raw identity; escaping is left to whoever turns it into
// a URL.
func PictureKey(identity, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("profile-pictures/%s/%s%s", keySegment(identity), uuid.NewString(), ext)
}

// keySegment keeps identity to one path segment that URL resolution will
// not collapse.
func keySegment(identity string) string {
	seg := strings.ReplaceAll(identity, "/", "_")
	if seg == "" || seg == "." || seg == ".." {
		seg = "_" + seg
	}
	return seg
}
