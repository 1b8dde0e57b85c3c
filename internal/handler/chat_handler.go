package handler

import (
	"survey-chat-be/internal/dto"
	"survey-chat-be/internal/pkg/serverutils"
	"survey-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatHandler interface {
	RegisterRoutes(r fiber.Router)
	SendChat(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	GetTrace(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type chatHandler struct {
	chatService service.IChatService
}

func NewChatHandler(chatService service.IChatService) IChatHandler {
	return &chatHandler{
		chatService: chatService,
	}
}

func (h *chatHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/chat/v1")
	g.Post("", h.SendChat)
	g.Get(":session_id/history", h.GetHistory)
	g.Get(":session_id/trace", h.GetTrace)
	g.Delete(":session_id", h.DeleteSession)
}

func (h *chatHandler) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := h.chatService.SendChat(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (h *chatHandler) GetHistory(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("session_id")
	if sessionId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	res, err := h.chatService.GetChatHistory(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (h *chatHandler) GetTrace(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("session_id")
	if sessionId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	res, err := h.chatService.GetSessionTrace(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session trace", res))
}

func (h *chatHandler) DeleteSession(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("session_id")
	if sessionId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	if err := h.chatService.DeleteSession(ctx.Context(), sessionId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}
