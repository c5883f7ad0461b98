package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

// Handler wires the HTTP transport to the FAQ service.
type Handler struct {
	faqSvc faq.Service
	logger *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(faqSvc faq.Service, logger *slog.Logger) *Handler {
	return &Handler{
		faqSvc: faqSvc,
		logger: logger.With("component", "http.handler"),
	}
}

type answeredResponse struct {
	Answer         string  `json:"answer"`
	Score          float64 `json:"score"`
	SourceID       int     `json:"source_id"`
	SourceQuestion string  `json:"source_question"`
}

type clarifyResponse struct {
	Answer        string   `json:"answer"`
	Clarification string   `json:"clarification,omitempty"`
	Suggestions   []string `json:"suggestions"`
	Score         float64  `json:"score"`
}

type unreadyResponse struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
}

type legacyCatalogItem struct {
	ID       int    `json:"id"`
	Question string `json:"q"`
}

// Health reports readiness without failing when the catalog is absent.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.faqSvc.Status())
}

// Catalog lists the catalog questions in order.
func (h *Handler) Catalog(c *gin.Context) {
	items, ok := h.listCatalog(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, items)
}

// LegacyCatalog serves the catalog in the shape the original frontend reads.
func (h *Handler) LegacyCatalog(c *gin.Context) {
	items, ok := h.listCatalog(c)
	if !ok {
		return
	}
	out := make([]legacyCatalogItem, len(items))
	for i, item := range items {
		out[i] = legacyCatalogItem{ID: item.ID, Question: item.Question}
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) listCatalog(c *gin.Context) ([]faq.CatalogItem, bool) {
	items, err := h.faqSvc.ListCatalog(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return items, true
}

// Ask matches a user question against the catalog.
func (h *Handler) Ask(c *gin.Context) {
	result, ok := h.ask(c)
	if !ok {
		return
	}
	if result.Kind == faq.KindEmptyInput {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "empty_message", "empty message", nil))
		return
	}
	writeResult(c, result)
}

// LegacyChat is Ask under the original frontend route and error shape.
func (h *Handler) LegacyChat(c *gin.Context) {
	result, ok := h.ask(c)
	if !ok {
		return
	}
	if result.Kind == faq.KindEmptyInput {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty message"})
		return
	}
	writeResult(c, result)
}

func (h *Handler) ask(c *gin.Context) (faq.MatchResult, bool) {
	var req faq.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return faq.MatchResult{}, false
	}
	result, err := h.faqSvc.Ask(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return faq.MatchResult{}, false
	}
	return result, true
}

func writeResult(c *gin.Context, result faq.MatchResult) {
	switch result.Kind {
	case faq.KindUnready:
		c.JSON(http.StatusServiceUnavailable, unreadyResponse{Answer: result.Message, Score: 0})
	case faq.KindAnswered:
		c.JSON(http.StatusOK, answeredResponse{
			Answer:         result.Answer,
			Score:          result.Score,
			SourceID:       result.SourceID,
			SourceQuestion: result.SourceQuestion,
		})
	case faq.KindClarify:
		suggestions := result.Suggestions
		if suggestions == nil {
			suggestions = []string{}
		}
		c.JSON(http.StatusOK, clarifyResponse{
			Answer:        result.Message,
			Clarification: result.Clarification,
			Suggestions:   suggestions,
			Score:         result.Score,
		})
	default:
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, codeInternal, "unexpected match result", nil))
	}
}

// Trending returns the most frequently answered catalog questions.
func (h *Handler) Trending(c *gin.Context) {
	items, err := h.faqSvc.Trending(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": items})
}

// Reload swaps in a freshly loaded catalog snapshot.
func (h *Handler) Reload(c *gin.Context) {
	status, err := h.faqSvc.Reload(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if claims, ok := getAdminClaims(c); ok {
		h.logger.Info("catalog reloaded by admin", "subject", claims.Subject, "token_id", claims.TokenID, "entries", status.Entries)
	}
	c.JSON(http.StatusOK, status)
}
