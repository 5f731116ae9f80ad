package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type registrationRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, reg *models.Registration) error
	FindPending(ctx context.Context, exec sqlx.ExtContext, academyID, userID string, role models.UserRole) (*models.Registration, error)
	FindByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Registration, error)
	Link(ctx context.Context, exec sqlx.ExtContext, id, linkedID int64) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id int64, status models.RegistrationStatus) error
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
}

type registrationAcademyRepository interface {
	FindByInviteKey(ctx context.Context, key string) (*models.Academy, error)
	RecountMembers(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type registrationUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetAcademy(ctx context.Context, exec sqlx.ExtContext, userIDs []string, academyID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RegistrationService drives the academy join workflow.
type RegistrationService struct {
	registrations registrationRepository
	academies     registrationAcademyRepository
	users         registrationUserRepository
	tx            txProvider
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(registrations registrationRepository, academies registrationAcademyRepository, users registrationUserRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RegistrationService{
		registrations: registrations,
		academies:     academies,
		users:         users,
		tx:            tx,
		validator:     validate,
		logger:        logger,
	}
}

// Create files a PENDING request for the caller. A student linked to a parent
// also gets a parent request, reused when one is already pending.
func (s *RegistrationService) Create(ctx context.Context, actor *models.JWTClaims, req models.CreateRegistrationRequest) (result *models.Registration, err error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	academy, err := s.academies.FindByInviteKey(ctx, req.InviteKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academy not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academy")
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != req.Role {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user with requested role not found")
	}
	if academy.Status != models.AcademyApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "academy is not approved")
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

	if _, err = s.registrations.FindPending(ctx, tx, academy.ID, user.ID, user.Role); err == nil {
		err = appErrors.Clone(appErrors.ErrConflict, "registration already pending")
		return nil, err
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending registration")
	}

	reg := &models.Registration{AcademyID: academy.ID, UserID: user.ID, UserName: user.Name, Role: user.Role}
	if err = s.registrations.Create(ctx, tx, reg); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "registration already pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}

	if user.Role == models.RoleStudent && user.ParentID != nil {
		var parentReg *models.Registration
		parentReg, err = s.parentRegistration(ctx, tx, academy.ID, *user.ParentID)
		if err != nil {
			return nil, err
		}
		if err = s.registrations.Link(ctx, tx, reg.ID, parentReg.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link registration")
		}
		// A parent request already paired with a sibling keeps that pairing.
		if parentReg.LinkedRegistrationID == nil {
			if err = s.registrations.Link(ctx, tx, parentReg.ID, reg.ID); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link registration")
			}
		}
		linked := parentReg.ID
		reg.LinkedRegistrationID = &linked
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit registration")
	}
	return reg, nil
}

func (s *RegistrationService) parentRegistration(ctx context.Context, tx sqlx.ExtContext, academyID, parentID string) (*models.Registration, error) {
	existing, err := s.registrations.FindPending(ctx, tx, academyID, parentID, models.RoleParent)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check parent registration")
	}
	reg := &models.Registration{AcademyID: academyID, UserID: parentID, Role: models.RoleParent}
	if err := s.registrations.Create(ctx, tx, reg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent registration")
	}
	return reg, nil
}

// List returns the requests of an academy for its chief.
func (s *RegistrationService) List(ctx context.Context, actor *models.JWTClaims, filter models.RegistrationFilter) ([]models.Registration, error) {
	if err := requireRole(actor, models.RoleChief); err != nil {
		return nil, err
	}
	if err := requireAcademy(actor, filter.AcademyID); err != nil {
		return nil, err
	}
	regs, err := s.registrations.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return regs, nil
}

// Decide approves or rejects a request together with its linked counterpart
// in one transaction. Approval affiliates every approved user and refreshes
// the academy headcounts.
func (s *RegistrationService) Decide(ctx context.Context, actor *models.JWTClaims, id int64, req models.DecideRegistrationRequest) (result []models.Registration, err error) {
	if err = requireRole(actor, models.RoleChief); err != nil {
		return nil, err
	}
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
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

	primary, err := s.registrations.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if err = requireAcademy(actor, primary.AcademyID); err != nil {
		return nil, err
	}

	var secondary *models.Registration
	if primary.LinkedRegistrationID != nil {
		secondary, err = s.registrations.FindByIDForUpdate(ctx, tx, *primary.LinkedRegistrationID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked registration")
		}
		err = nil
	}

	changed, err := models.LinkedTransition{Primary: *primary, Secondary: secondary, Target: req.Status}.Apply()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration already decided")
	}

	approved := make([]string, 0, len(changed))
	for _, reg := range changed {
		if err = s.registrations.UpdateStatus(ctx, tx, reg.ID, reg.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "registration already decided")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration")
		}
		if reg.Status == models.RegistrationApproved {
			approved = append(approved, reg.UserID)
		}
	}
	if len(approved) > 0 {
		if err = s.users.SetAcademy(ctx, tx, approved, primary.AcademyID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to affiliate users")
		}
		if err = s.academies.RecountMembers(ctx, tx, primary.AcademyID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recount members")
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit decision")
	}

	resourceID := strconv.FormatInt(primary.ID, 10)
	if auditErr := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRegistrationDecide,
		Resource:   "registration",
		ResourceID: &resourceID,
		NewValues:  []byte(`{"status":"` + string(req.Status) + `"}`),
	}); auditErr != nil {
		s.logger.Warn("failed to record registration audit log", zap.Error(auditErr))
	}
	return changed, nil
}
