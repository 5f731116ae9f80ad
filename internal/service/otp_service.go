package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/mailbox"
)

const otpDigits = 6

type otpRepository interface {
	Create(ctx context.Context, otp *models.OTP) error
	Consume(ctx context.Context, phone, code string, now time.Time) (bool, error)
}

type inbox interface {
	Address() string
	LatestUnseen(ctx context.Context) (*mailbox.Message, error)
}

// OTPService issues phone verification codes and checks them against the
// newest message in the verification inbox.
type OTPService struct {
	otps      otpRepository
	inbox     inbox
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewOTPService constructs an OTPService. ttl defaults to three minutes.
func NewOTPService(otps otpRepository, inbox inbox, validate *validator.Validate, logger *zap.Logger, ttl time.Duration) *OTPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &OTPService{otps: otps, inbox: inbox, validator: validate, logger: logger, ttl: ttl, now: time.Now}
}

// Request stores a fresh code for the phone number. Earlier codes stay valid
// until they expire.
func (s *OTPService) Request(ctx context.Context, req models.OTPRequest) (*models.OTPIssued, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid phone number")
	}
	code, err := generateOTP()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
	}
	now := s.now().UTC()
	otp := &models.OTP{
		PhoneNumber: mailbox.NormalizePhone(req.PhoneNumber),
		Code:        code,
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store code")
	}
	return &models.OTPIssued{
		PhoneNumber: otp.PhoneNumber,
		Code:        code,
		Receiver:    s.inbox.Address(),
		ExpiresAt:   otp.ExpiresAt,
	}, nil
}

// Verify reads the newest unseen message and accepts it when it was sent
// from the phone number and carries a live code. A matched code is consumed.
func (s *OTPService) Verify(ctx context.Context, req models.OTPRequest) (*models.OTPVerification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid phone number")
	}
	phone := mailbox.NormalizePhone(req.PhoneNumber)
	result := &models.OTPVerification{PhoneNumber: phone}

	msg, err := s.inbox.LatestUnseen(ctx)
	if err != nil {
		if errors.Is(err, mailbox.ErrNoMessage) {
			return result, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to read verification inbox")
	}
	code, ok := mailbox.ExtractCode(msg.Subject + "\n" + msg.Body)
	if !ok {
		s.logger.Info("verification message without code", zap.String("from", msg.From))
		return result, nil
	}
	if sender := mailbox.PhoneFromSender(msg.From); sender != phone {
		s.logger.Info("verification message from another sender", zap.String("from", msg.From))
		return result, nil
	}

	consumed, err := s.otps.Consume(ctx, phone, code, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check code")
	}
	result.Verified = consumed
	return result, nil
}

func generateOTP() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
