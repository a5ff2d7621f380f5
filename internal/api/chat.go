package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ragstack/internal/cache"
	"ragstack/internal/rag/pipeline"
	"ragstack/pkg/logger"
)

// ChatHandler serves grounded question answering over the tenant's indexed
// documents.
type ChatHandler struct {
	log      *logger.Logger
	composer *pipeline.Composer
	answers  *cache.AnswerCache
}

// NewChatHandler creates a ChatHandler. A nil answer cache disables
// caching.
func NewChatHandler(composer *pipeline.Composer, answers *cache.AnswerCache, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		log:      log,
		composer: composer,
		answers:  answers,
	}
}

type chatRequest struct {
	Query string `json:"query" binding:"required"`
}

// Chat answers one question. Identical questions within the cache TTL are
// served from Redis without touching the providers.
func (h *ChatHandler) Chat(c *gin.Context) {
	tenantID := c.GetString(ContextTenantID)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query field"})
		return
	}
	query := strings.TrimSpace(req.Query)

	if answer, ok := h.answers.Get(c.Request.Context(), tenantID, query); ok {
		c.JSON(http.StatusOK, answer)
		return
	}

	answer, err := h.composer.Answer(c.Request.Context(), tenantID, query)
	if err != nil {
		h.log.WithError(err).WithTenant(tenantID).Error("chat failed")
		switch {
		case errors.Is(err, pipeline.ErrEmbedding), errors.Is(err, pipeline.ErrChatProvider):
			c.JSON(http.StatusBadGateway, gin.H{"error": "model provider unavailable"})
		case errors.Is(err, pipeline.ErrRetrieval):
			c.JSON(http.StatusBadGateway, gin.H{"error": "retrieval unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer"})
		}
		return
	}

	h.answers.Set(c.Request.Context(), tenantID, query, answer)
	c.JSON(http.StatusOK, answer)
}
