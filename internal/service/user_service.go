package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/dto"
	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByAcademy(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateImage(ctx context.Context, id, imageKey string) error
	SetParent(ctx context.Context, studentID, parentID string) error
}

type imageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key, filename string) (string, error)
}

// UserServiceConfig bounds profile image uploads.
type UserServiceConfig struct {
	MaxImageSizeBytes int64
	AllowedImageExts  []string
}

// UserService manages profiles, images and parent links.
type UserService struct {
	repo      userRepository
	images    imageStore
	validator *validator.Validate
	logger    *zap.Logger
	cfg       UserServiceConfig
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, images imageStore, validate *validator.Validate, logger *zap.Logger, cfg UserServiceConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxImageSizeBytes <= 0 {
		cfg.MaxImageSizeBytes = 10 << 20
	}
	if len(cfg.AllowedImageExts) == 0 {
		cfg.AllowedImageExts = []string{".jpeg", ".jpg", ".png"}
	}
	return &UserService{repo: repo, images: images, validator: validate, logger: logger, cfg: cfg}
}

// Get returns a user with a signed image URL when one is set.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.ImageKey != nil && s.images != nil {
		url, err := s.images.PresignedURL(ctx, *user.ImageKey, "")
		if err != nil {
			s.logger.Warn("failed to sign profile image", zap.String("user_id", id), zap.Error(err))
		} else {
			user.ImageURL = url
		}
	}
	return user, nil
}

// UpdateProfile applies optional name, email and phone changes.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return user, nil
}

// UploadImage stores a new profile image and drops the previous one.
func (s *UserService) UploadImage(ctx context.Context, id string, file dto.UploadedFile) (*models.User, error) {
	if !s.allowedImage(file.Ext()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image must be one of "+strings.Join(s.cfg.AllowedImageExts, ", "))
	}
	if file.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image is empty")
	}
	if file.Size > s.cfg.MaxImageSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("image exceeds %d bytes", s.cfg.MaxImageSizeBytes))
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	reader, err := file.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read image")
	}
	defer reader.Close()

	key := fmt.Sprintf("users/%s/profile%s", id, file.Ext())
	if err := s.images.Put(ctx, key, reader, file.Size, file.ContentType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to store image")
	}
	if err := s.repo.UpdateImage(ctx, id, key); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record image")
	}
	if user.ImageKey != nil && *user.ImageKey != key {
		if err := s.images.Remove(ctx, *user.ImageKey); err != nil {
			s.logger.Warn("failed to remove previous profile image", zap.String("key", *user.ImageKey), zap.Error(err))
		}
	}
	return s.Get(ctx, id)
}

// LinkChild makes parentID the parent of a student account.
func (s *UserService) LinkChild(ctx context.Context, parentID string, req models.LinkChildRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid link payload")
	}
	parent, err := s.Get(ctx, parentID)
	if err != nil {
		return err
	}
	if parent.Role != models.RoleParent {
		return appErrors.Clone(appErrors.ErrForbidden, "only parents can link a child")
	}
	if err := s.repo.SetParent(ctx, req.StudentID, parentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link child")
	}
	return nil
}

// ListMembers returns the users affiliated with the actor's academy.
func (s *UserService) ListMembers(ctx context.Context, actor *models.JWTClaims, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if err := requireAcademy(actor, filter.AcademyID); err != nil {
		return nil, nil, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	users, total, err := s.repo.ListByAcademy(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func (s *UserService) allowedImage(ext string) bool {
	for _, allowed := range s.cfg.AllowedImageExts {
		if ext == allowed {
			return true
		}
	}
	return false
}
