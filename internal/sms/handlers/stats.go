// internal/sms/handlers/stats.go
package handlers

import (
	"context"
	"fmt"

	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/library"
	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/conversation"
	"sms-librarian/internal/sms/intent"
)

// GetStatsHandler reports aggregate reading statistics. Read-only.
type GetStatsHandler struct {
	service library.Service
	logger  logger.Logger
}

func NewGetStatsHandler(service library.Service, log logger.Logger) *GetStatsHandler {
	return &GetStatsHandler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "get_stats"}),
	}
}

func (h *GetStatsHandler) Handle(ctx context.Context, _ intent.Parameters, _ *conversation.Context) *models.HandlerResponse {
	stats, err := h.service.ReadingStats(ctx)
	if err != nil {
		h.logger.Error("failed to load reading stats", map[string]interface{}{"error": err.Error()})
		return failureResponse()
	}

	return &models.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("📚 Reading stats: %d in progress, %d completed, %d pages read in total.",
			stats.InProgress, stats.Completed, stats.TotalPagesRead),
		Data: map[string]interface{}{
			"inProgress":     stats.InProgress,
			"completed":      stats.Completed,
			"totalPagesRead": stats.TotalPagesRead,
		},
	}
}
