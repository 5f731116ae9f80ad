package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

const (
	inviteKeyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteKeyLength   = 10
)

type academyRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, academy *models.Academy) error
	FindByID(ctx context.Context, id string) (*models.Academy, error)
	Update(ctx context.Context, academy *models.Academy) error
	UpdateStatus(ctx context.Context, id string, status models.AcademyStatus) error
	UpdateInviteKey(ctx context.Context, id, key string) error
	RecountMembers(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type academyUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetAcademy(ctx context.Context, exec sqlx.ExtContext, userIDs []string, academyID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AcademyService manages tenants.
type AcademyService struct {
	academies      academyRepository
	users          academyUserRepository
	tx             txProvider
	validator      *validator.Validate
	logger         *zap.Logger
	platformAdmins map[string]struct{}
}

// NewAcademyService constructs an AcademyService. platformAdmins lists the
// user ids allowed to approve or reject academies.
func NewAcademyService(academies academyRepository, users academyUserRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger, platformAdmins []string) *AcademyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	admins := make(map[string]struct{}, len(platformAdmins))
	for _, id := range platformAdmins {
		admins[id] = struct{}{}
	}
	return &AcademyService{academies: academies, users: users, tx: tx, validator: validate, logger: logger, platformAdmins: admins}
}

// Create opens a PENDING academy and affiliates its chief.
func (s *AcademyService) Create(ctx context.Context, actor *models.JWTClaims, req models.CreateAcademyRequest) (result *models.Academy, err error) {
	if err = requireRole(actor, models.RoleChief); err != nil {
		return nil, err
	}
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academy payload")
	}
	chief, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if chief.AcademyID != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "chief already runs an academy")
	}

	key, err := generateInviteKey()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate invite key")
	}
	academy := &models.Academy{
		ID:        req.ID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		Status:    models.AcademyPending,
		InviteKey: key,
		ChiefID:   chief.ID,
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.academies.Create(ctx, tx, academy); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "academy id already taken")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academy")
	}
	if err = s.users.SetAcademy(ctx, tx, []string{chief.ID}, academy.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to affiliate chief")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit academy")
	}
	return academy, nil
}

// Get returns an academy to one of its members. Only the chief sees the invite key.
func (s *AcademyService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Academy, error) {
	if err := requireAcademy(actor, id); err != nil {
		return nil, err
	}
	academy, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleChief {
		academy.InviteKey = ""
	}
	return academy, nil
}

// Update edits descriptive fields.
func (s *AcademyService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateAcademyRequest) (*models.Academy, error) {
	if err := s.requireChiefOf(actor, id); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academy payload")
	}
	academy, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		academy.Name = *req.Name
	}
	if req.Phone != nil {
		academy.Phone = *req.Phone
	}
	if req.Email != nil {
		academy.Email = *req.Email
	}
	if req.Address != nil {
		academy.Address = *req.Address
	}
	if err := s.academies.Update(ctx, academy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academy")
	}
	return academy, nil
}

// SetStatus approves or rejects an academy. Only platform administrators may call it.
func (s *AcademyService) SetStatus(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateAcademyStatusRequest) (*models.Academy, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if _, ok := s.platformAdmins[actor.UserID]; !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "platform administrator required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if err := s.academies.UpdateStatus(ctx, id, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academy not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academy status")
	}
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionAcademyStatus,
		Resource:   "academy",
		ResourceID: &id,
		NewValues:  []byte(`{"status":"` + string(req.Status) + `"}`),
	}); err != nil {
		s.logger.Warn("failed to record academy status audit log", zap.Error(err))
	}
	return s.load(ctx, id)
}

// RotateInviteKey replaces the invite key, invalidating the old one.
func (s *AcademyService) RotateInviteKey(ctx context.Context, actor *models.JWTClaims, id string) (*models.Academy, error) {
	if err := s.requireChiefOf(actor, id); err != nil {
		return nil, err
	}
	key, err := generateInviteKey()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate invite key")
	}
	if err := s.academies.UpdateInviteKey(ctx, id, key); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rotate invite key")
	}
	return s.load(ctx, id)
}

// Recount repairs the cached student and teacher headcounts.
func (s *AcademyService) Recount(ctx context.Context, actor *models.JWTClaims, id string) (*models.Academy, error) {
	if err := s.requireChiefOf(actor, id); err != nil {
		return nil, err
	}
	if err := s.academies.RecountMembers(ctx, nil, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recount members")
	}
	return s.load(ctx, id)
}

func (s *AcademyService) requireChiefOf(actor *models.JWTClaims, id string) error {
	if err := requireRole(actor, models.RoleChief); err != nil {
		return err
	}
	return requireAcademy(actor, id)
}

func (s *AcademyService) load(ctx context.Context, id string) (*models.Academy, error) {
	academy, err := s.academies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academy not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academy")
	}
	return academy, nil
}

func generateInviteKey() (string, error) {
	buf := make([]byte, inviteKeyLength)
	max := big.NewInt(int64(len(inviteKeyAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = inviteKeyAlphabet[n.Int64()]
	}
	return string(buf), nil
}
