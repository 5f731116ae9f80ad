package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/response"
)

type otpService interface {
	Request(ctx context.Context, req models.OTPRequest) (*models.OTPIssued, error)
	Verify(ctx context.Context, req models.OTPRequest) (*models.OTPVerification, error)
}

// OTPHandler serves phone verification.
type OTPHandler struct {
	service otpService
}

// NewOTPHandler creates an OTP handler.
func NewOTPHandler(svc otpService) *OTPHandler {
	return &OTPHandler{service: svc}
}

// Request godoc
// @Summary Issue a verification code
// @Description The caller texts the returned code to the receiver address.
// @Tags OTP
// @Accept json
// @Produce json
// @Param payload body models.OTPRequest true "Phone number"
// @Success 201 {object} response.Envelope
// @Router /otp [post]
func (h *OTPHandler) Request(c *gin.Context) {
	var req models.OTPRequest
	if !bindJSON(c, &req, "invalid otp payload") {
		return
	}
	issued, err := h.service.Request(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issued)
}

// Verify godoc
// @Summary Check the inbox for the texted code
// @Tags OTP
// @Accept json
// @Produce json
// @Param payload body models.OTPRequest true "Phone number"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /otp/verify [post]
func (h *OTPHandler) Verify(c *gin.Context) {
	var req models.OTPRequest
	if !bindJSON(c, &req, "invalid otp payload") {
		return
	}
	result, err := h.service.Verify(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
