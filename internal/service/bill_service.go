package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
)

type classRepository interface {
	Create(ctx context.Context, class *models.Class) error
	List(ctx context.Context, academyID string) ([]models.Class, error)
	FindByIDs(ctx context.Context, exec sqlx.ExtContext, academyID string, ids []int64) ([]models.Class, error)
	Delete(ctx context.Context, academyID string, id int64) error
}

type billRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, bill *models.Bill) error
	FindByID(ctx context.Context, id int64) (*models.Bill, error)
	ListByAcademy(ctx context.Context, academyID string) ([]models.Bill, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]models.Bill, error)
	MarkPaid(ctx context.Context, academyID string, id int64, paidAt time.Time) error
}

type billUserRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	ListChildren(ctx context.Context, parentID string) ([]models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// BillService manages billable classes and bills.
type BillService struct {
	classes   classRepository
	bills     billRepository
	users     billUserRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBillService constructs a BillService.
func NewBillService(classes classRepository, bills billRepository, users billUserRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *BillService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BillService{classes: classes, bills: bills, users: users, tx: tx, validator: validate, logger: logger, now: time.Now}
}

// CreateClass adds a billable class.
func (s *BillService) CreateClass(ctx context.Context, actor *models.JWTClaims, academyID string, req models.CreateClassRequest) (*models.Class, error) {
	if err := s.requireChief(actor, academyID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := &models.Class{AcademyID: academyID, Name: req.Name, Expense: req.Expense, Discount: req.Discount, Duration: req.Duration}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, appErrors.FromPostgres(err, "failed to create class")
	}
	return class, nil
}

// ListClasses returns the classes of an academy.
func (s *BillService) ListClasses(ctx context.Context, actor *models.JWTClaims, academyID string) ([]models.Class, error) {
	if err := requireAcademy(actor, academyID); err != nil {
		return nil, err
	}
	classes, err := s.classes.List(ctx, academyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// DeleteClass removes a class that no bill references.
func (s *BillService) DeleteClass(ctx context.Context, actor *models.JWTClaims, academyID string, id int64) error {
	if err := s.requireChief(actor, academyID); err != nil {
		return err
	}
	if err := s.classes.Delete(ctx, academyID, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		case appErrors.IsForeignKeyViolation(err):
			return appErrors.Clone(appErrors.ErrConflict, "class is referenced by bills")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

// CreateBill issues one bill shared by every listed user for every listed
// class. The amount is the sum of the class expenses.
func (s *BillService) CreateBill(ctx context.Context, actor *models.JWTClaims, academyID string, req models.CreateBillRequest) (result *models.Bill, err error) {
	if err = s.requireChief(actor, academyID); err != nil {
		return nil, err
	}
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bill payload")
	}
	deadline, err := time.Parse(models.BillDeadlineLayout, req.Deadline)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be YYYY-MM-DD")
	}
	userIDs := unique(req.UserIDs)
	classIDs := unique(req.ClassIDs)
	if err = s.requireAcademyUsers(ctx, academyID, userIDs); err != nil {
		return nil, err
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

	classes, err := s.classes.FindByIDs(ctx, tx, academyID, classIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	if len(classes) != len(classIDs) {
		err = appErrors.Clone(appErrors.ErrNotFound, "class not found")
		return nil, err
	}

	bill := &models.Bill{
		AcademyID: academyID,
		Amount:    models.BillTotal(classes),
		Deadline:  deadline,
		Memo:      req.Memo,
		ClassIDs:  classIDs,
		UserIDs:   userIDs,
	}
	if err = s.bills.Create(ctx, tx, bill); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bill")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit bill")
	}
	s.audit(ctx, actor, models.AuditActionBillCreate, bill.ID, fmt.Sprintf(`{"amount":%d,"users":%d,"classes":%d}`, bill.Amount, len(userIDs), len(classIDs)))
	return bill, nil
}

// ListBills returns every bill of an academy.
func (s *BillService) ListBills(ctx context.Context, actor *models.JWTClaims, academyID string) ([]models.Bill, error) {
	if err := s.requireChief(actor, academyID); err != nil {
		return nil, err
	}
	bills, err := s.bills.ListByAcademy(ctx, academyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bills")
	}
	return bills, nil
}

// MyBills returns the bills owed by the caller, or by the caller's children
// when the caller is a parent.
func (s *BillService) MyBills(ctx context.Context, actor *models.JWTClaims) ([]models.Bill, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	ids := []string{actor.UserID}
	if actor.Role == models.RoleParent {
		children, err := s.users.ListChildren(ctx, actor.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
		}
		for _, child := range children {
			ids = append(ids, child.ID)
		}
	}
	bills, err := s.bills.ListByUsers(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bills")
	}
	return bills, nil
}

// Pay marks a bill as paid. Paying twice is a conflict.
func (s *BillService) Pay(ctx context.Context, actor *models.JWTClaims, academyID string, req models.PayBillRequest) (*models.Bill, error) {
	if err := s.requireChief(actor, academyID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	bill, err := s.bills.FindByID(ctx, req.BillID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bill not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bill")
	}
	if bill.AcademyID != academyID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "bill not found")
	}
	if bill.IsPaid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "bill already paid")
	}
	paidAt := s.now().UTC()
	if err := s.bills.MarkPaid(ctx, academyID, bill.ID, paidAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "bill already paid")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark bill paid")
	}
	bill.IsPaid = true
	bill.PaidAt = &paidAt
	s.audit(ctx, actor, models.AuditActionBillPay, bill.ID, `{"is_paid":true}`)
	return bill, nil
}

func (s *BillService) requireChief(actor *models.JWTClaims, academyID string) error {
	if err := requireRole(actor, models.RoleChief); err != nil {
		return err
	}
	return requireAcademy(actor, academyID)
}

func (s *BillService) requireAcademyUsers(ctx context.Context, academyID string, ids []string) error {
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}
	members := make(map[string]bool, len(users))
	for i := range users {
		members[users[i].ID] = users[i].BelongsTo(academyID)
	}
	for _, id := range ids {
		if !members[id] {
			return appErrors.Clone(appErrors.ErrNotFound, "user "+id+" not found in academy")
		}
	}
	return nil
}

func (s *BillService) audit(ctx context.Context, actor *models.JWTClaims, action string, billID int64, values string) {
	resourceID := strconv.FormatInt(billID, 10)
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "bill",
		ResourceID: &resourceID,
		NewValues:  []byte(values),
	}); err != nil {
		s.logger.Warn("failed to record bill audit log", zap.String("action", action), zap.Error(err))
	}
}

func unique[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
