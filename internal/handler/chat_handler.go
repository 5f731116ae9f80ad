package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/models"
	appErrors "github.com/noah-isme/academy-api/pkg/errors"
	"github.com/noah-isme/academy-api/pkg/middleware/requestid"
	"github.com/noah-isme/academy-api/pkg/response"
	"github.com/noah-isme/academy-api/pkg/websocket"
)

type chatService interface {
	HandleEvent(ctx context.Context, client *websocket.Client, evt websocket.Event)
	Rooms(ctx context.Context, actor *models.JWTClaims) ([]models.ChatRoom, error)
	Messages(ctx context.Context, actor *models.JWTClaims, roomID string, query models.MessageQuery) ([]models.ChatMessage, error)
}

// ChatHandler upgrades chat connections and serves room history.
type ChatHandler struct {
	service  chatService
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
	logger   *zap.Logger
}

// NewChatHandler creates a chat handler. allowedOrigins empty accepts any origin.
func NewChatHandler(svc chatService, hub *websocket.Hub, allowedOrigins []string, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	var allow func(string) bool
	if len(allowedOrigins) > 0 {
		origins := make(map[string]struct{}, len(allowedOrigins))
		for _, origin := range allowedOrigins {
			origins[strings.TrimRight(origin, "/")] = struct{}{}
		}
		allow = func(origin string) bool {
			if origin == "" {
				return true
			}
			_, ok := origins[strings.TrimRight(origin, "/")]
			return ok
		}
	}
	return &ChatHandler{
		service:  svc,
		hub:      hub,
		upgrader: websocket.NewUpgrader(allow),
		logger:   logger,
	}
}

// Connect godoc
// @Summary Open the chat websocket
// @Description Events: create_room, join_room, send_message, get_messages. The token may be passed as the token query parameter.
// @Tags Chat
// @Param token query string false "Access token"
// @Success 101
// @Security BearerAuth
// @Router /chat/ws [get]
func (h *ChatHandler) Connect(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	logger := h.logger.With(zap.String("request_id", requestid.FromContext(c.Request.Context())))
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	websocket.Attach(h.hub, conn, claims.UserID, claims.AcademyID, h.service.HandleEvent, logger)
}

// Rooms godoc
// @Summary Rooms the caller belongs to
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /chat/rooms [get]
func (h *ChatHandler) Rooms(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	rooms, err := h.service.Rooms(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// Messages godoc
// @Summary Room history, newest first
// @Tags Chat
// @Produce json
// @Param room_id path string true "Room id"
// @Param before query string false "RFC3339 cursor"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /chat/rooms/{room_id}/messages [get]
func (h *ChatHandler) Messages(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	var query models.MessageQuery
	if raw := c.Query("before"); raw != "" {
		before, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "before must be RFC3339"))
			return
		}
		query.Before = &before
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid limit"))
			return
		}
		query.Limit = limit
	}
	messages, err := h.service.Messages(c.Request.Context(), claims, c.Param("room_id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}
