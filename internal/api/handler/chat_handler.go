package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/krush/market-core/internal/core/domain"
	"github.com/krush/market-core/internal/core/ports"
)

// ChatHandler handles HTTP requests for chat rooms and messages.
type ChatHandler struct {
	service ports.ChatService
}

func NewChatHandler(service ports.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Open handles POST /api/chats/product/:productId.
//
// @Summary      Get or create the caller's room for a product
// @Description  Returns the single room for (product, caller, seller), creating it on first contact. Sellers receive cannot_chat_with_self and should use the room list instead.
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path      string  true  "Product id"
// @Success      200        {object}  roomResponse
// @Failure      401        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/chats/product/{productId} [post]
func (h *ChatHandler) Open(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	room, err := h.service.GetOrCreateRoom(c.Request().Context(), c.Param("productId"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roomResponse{Room: room})
}

// List handles GET /api/chats.
//
// @Summary      List the caller's rooms, most recently updated first
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  roomListResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/chats [get]
func (h *ChatHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	rooms, err := h.service.ListRooms(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	if rooms == nil {
		rooms = []*domain.ChatRoom{}
	}
	return c.JSON(http.StatusOK, roomListResponse{Rooms: rooms})
}

// Get handles GET /api/chats/:roomId.
//
// @Summary      Get a room with its full message log
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Param        roomId  path      string  true  "Room id"
// @Success      200     {object}  roomResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/chats/{roomId} [get]
func (h *ChatHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	room, err := h.service.GetRoom(c.Request().Context(), c.Param("roomId"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roomResponse{Room: room})
}

// Send handles POST /api/chats/:roomId/message.
//
// @Summary      Append a message to a room
// @Description  Appends the message and notifies the other party. Notification failures do not fail the request.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        roomId  path      string              true  "Room id"
// @Param        body    body      sendMessageRequest  true  "Message"
// @Success      201     {object}  roomResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      429     {object}  errorResponse
// @Router       /api/chats/{roomId}/message [post]
func (h *ChatHandler) Send(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	room, err := h.service.AppendMessage(c.Request().Context(), c.Param("roomId"), actor, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, roomResponse{Room: room})
}
