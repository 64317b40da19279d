// internal/sms/handlers/help.go
package handlers

import (
	"context"

	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/conversation"
	"sms-librarian/internal/sms/intent"
)

const helpText = `📖 Library assistant commands:
• start <title> — begin a book
• page <n> or <n>% — update progress
• finish — mark the current book done
• status — where you are in the current book
• list — books in progress
• search <text> — find books
• stats — reading totals`

// HelpHandler is static and deterministic; it performs no I/O.
type HelpHandler struct {
	logger logger.Logger
}

func NewHelpHandler(log logger.Logger) *HelpHandler {
	return &HelpHandler{logger: log.WithFields(map[string]interface{}{"handler": "help"})}
}

func (h *HelpHandler) Handle(_ context.Context, _ intent.Parameters, _ *conversation.Context) *models.HandlerResponse {
	return &models.HandlerResponse{Success: true, Message: helpText}
}
