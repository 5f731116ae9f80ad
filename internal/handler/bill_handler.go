package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-api/internal/models"
	"github.com/noah-isme/academy-api/pkg/response"
)

type billService interface {
	CreateClass(ctx context.Context, actor *models.JWTClaims, academyID string, req models.CreateClassRequest) (*models.Class, error)
	ListClasses(ctx context.Context, actor *models.JWTClaims, academyID string) ([]models.Class, error)
	DeleteClass(ctx context.Context, actor *models.JWTClaims, academyID string, id int64) error
	CreateBill(ctx context.Context, actor *models.JWTClaims, academyID string, req models.CreateBillRequest) (*models.Bill, error)
	ListBills(ctx context.Context, actor *models.JWTClaims, academyID string) ([]models.Bill, error)
	MyBills(ctx context.Context, actor *models.JWTClaims) ([]models.Bill, error)
	Pay(ctx context.Context, actor *models.JWTClaims, academyID string, req models.PayBillRequest) (*models.Bill, error)
}

// BillHandler serves tuition classes and bills.
type BillHandler struct {
	service billService
}

// NewBillHandler creates a bill handler.
func NewBillHandler(svc billService) *BillHandler {
	return &BillHandler{service: svc}
}

// CreateClass godoc
// @Summary Create a tuition class
// @Tags Billing
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param payload body models.CreateClassRequest true "Class"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /bill/{academy_id}/class [post]
func (h *BillHandler) CreateClass(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateClassRequest
	if !bindJSON(c, &req, "invalid class payload") {
		return
	}
	class, err := h.service.CreateClass(c.Request.Context(), claims, c.Param("academy_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// ListClasses godoc
// @Summary List tuition classes
// @Tags Billing
// @Produce json
// @Param academy_id path string true "Academy id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bill/{academy_id}/class [get]
func (h *BillHandler) ListClasses(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	classes, err := h.service.ListClasses(c.Request.Context(), claims, c.Param("academy_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// DeleteClass godoc
// @Summary Delete a tuition class
// @Tags Billing
// @Param academy_id path string true "Academy id"
// @Param class_id path int true "Class id"
// @Success 204
// @Security BearerAuth
// @Router /bill/{academy_id}/class/{class_id} [delete]
func (h *BillHandler) DeleteClass(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	id, ok := int64Param(c, "class_id")
	if !ok {
		return
	}
	if err := h.service.DeleteClass(c.Request.Context(), claims, c.Param("academy_id"), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateBill godoc
// @Summary Issue a bill
// @Description The amount is the sum of the class expenses.
// @Tags Billing
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param payload body models.CreateBillRequest true "Bill"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /bill/{academy_id} [post]
func (h *BillHandler) CreateBill(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateBillRequest
	if !bindJSON(c, &req, "invalid bill payload") {
		return
	}
	bill, err := h.service.CreateBill(c.Request.Context(), claims, c.Param("academy_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bill)
}

// ListBills godoc
// @Summary List academy bills
// @Tags Billing
// @Produce json
// @Param academy_id path string true "Academy id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bill/{academy_id} [get]
func (h *BillHandler) ListBills(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	bills, err := h.service.ListBills(c.Request.Context(), claims, c.Param("academy_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bills, nil)
}

// MyBills godoc
// @Summary Bills addressed to the caller
// @Description Parents also see their children's bills.
// @Tags Billing
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bill/user/me [get]
func (h *BillHandler) MyBills(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	bills, err := h.service.MyBills(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bills, nil)
}

// Pay godoc
// @Summary Mark a bill paid
// @Tags Billing
// @Accept json
// @Produce json
// @Param academy_id path string true "Academy id"
// @Param payload body models.PayBillRequest true "Bill id"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /bill/{academy_id}/pay [patch]
func (h *BillHandler) Pay(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var req models.PayBillRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	bill, err := h.service.Pay(c.Request.Context(), claims, c.Param("academy_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bill, nil)
}
