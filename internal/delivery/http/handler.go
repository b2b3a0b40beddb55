package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quickcart/backend/internal/domain"
	"github.com/quickcart/backend/internal/usecase"
	"github.com/rs/zerolog"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	carts    *usecase.CartService
	search   *usecase.SearchService
	selector *usecase.SelectionService
}

// NewHandler creates a new HTTP handler. search may be nil when no platform
// feeds are configured; the extension then reports results itself.
func NewHandler(carts *usecase.CartService, search *usecase.SearchService, selector *usecase.SelectionService) *Handler {
	return &Handler{
		carts:    carts,
		search:   search,
		selector: selector,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quickcart-backend",
		"version": "1.0.0",
	})
}

type platformResponse struct {
	ID   domain.PlatformID        `json:"id"`
	Fees domain.PlatformFeeConfig `json:"fees"`
}

// ListPlatforms returns the configured platforms and their fee structures
func (h *Handler) ListPlatforms(c *gin.Context) {
	if h.carts == nil {
		respondNotConfigured(c, "cart service")
		return
	}

	platforms := h.carts.Platforms()
	resp := make([]platformResponse, 0, len(platforms))
	for _, p := range platforms {
		fees, _ := h.carts.Fees().Config(p)
		resp = append(resp, platformResponse{ID: p, Fees: fees})
	}
	c.JSON(http.StatusOK, gin.H{"platforms": resp})
}

type platformCostsRequest struct {
	Subtotal *float64 `json:"subtotal" binding:"required,gte=0"`
}

// PlatformCosts prices a subtotal on one platform
func (h *Handler) PlatformCosts(c *gin.Context) {
	if h.carts == nil {
		respondNotConfigured(c, "cart service")
		return
	}

	platform := domain.PlatformID(c.Param("platform"))
	if _, ok := h.carts.Fees().Config(platform); !ok {
		respondError(c, domain.ErrUnknownPlatform)
		return
	}

	var req platformCostsRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.carts.Fees().CalculatePlatformCosts(platform, *req.Subtotal))
}

type selectProductRequest struct {
	Query    string                  `json:"query" binding:"required"`
	Products []domain.ScrapedProduct `json:"products" binding:"dive"`
}

type selectProductResponse struct {
	Product *domain.ScrapedProduct  `json:"product"`
	Outcome domain.SelectionOutcome `json:"outcome"`
}

// SelectProduct picks the best match among one platform's candidates
func (h *Handler) SelectProduct(c *gin.Context) {
	if h.selector == nil {
		respondNotConfigured(c, "product selection")
		return
	}

	var req selectProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, outcome := h.selector.SelectBestProduct(c.Request.Context(), req.Query, req.Products)
	c.JSON(http.StatusOK, selectProductResponse{Product: product, Outcome: outcome})
}

// CreateCart starts a new cart session
func (h *Handler) CreateCart(c *gin.Context) {
	if h.carts == nil {
		respondNotConfigured(c, "cart service")
		return
	}

	cart, err := h.carts.CreateCart(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cart)
}

// GetCart returns a cart with its items in insertion order
func (h *Handler) GetCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), c.Param("cartId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type addItemRequest struct {
	SearchTerm string `json:"searchTerm" binding:"required"`
}

// AddItem adds a search term to the cart
func (h *Handler) AddItem(c *gin.Context) {
	var req addItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.carts.AddItem(c.Request.Context(), c.Param("cartId"), req.SearchTerm)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// RemoveItem deletes a search term from the cart. The term is passed as the
// "term" query parameter since it may contain slashes.
func (h *Handler) RemoveItem(c *gin.Context) {
	term := c.Query("term")
	if term == "" {
		respondError(c, domain.ErrInvalidRequest)
		return
	}

	cart, err := h.carts.RemoveItem(c.Request.Context(), c.Param("cartId"), term)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type recordResultsRequest struct {
	SearchTerm string                  `json:"searchTerm" binding:"required"`
	Platform   domain.PlatformID       `json:"platform" binding:"required"`
	Products   []domain.ScrapedProduct `json:"products" binding:"dive"`
}

// RecordResults accepts one platform's raw candidates for a term, as scraped
// by the extension, and records the selected pick
func (h *Handler) RecordResults(c *gin.Context) {
	var req recordResultsRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.carts.RecordPlatformResults(c.Request.Context(), c.Param("cartId"), req.SearchTerm, req.Platform, req.Products)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
}

// Search queries every configured platform feed for a term
func (h *Handler) Search(c *gin.Context) {
	if h.search == nil {
		respondNotConfigured(c, "platform search")
		return
	}

	var req searchRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.search.Search(c.Request.Context(), c.Param("cartId"), req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type selectionRequest struct {
	SearchTerm string             `json:"searchTerm" binding:"required"`
	Platform   *domain.PlatformID `json:"platform"`
}

// SetSelection overrides the platform chosen for a term; a null platform excludes it
func (h *Handler) SetSelection(c *gin.Context) {
	var req selectionRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.carts.SelectPlatform(c.Request.Context(), c.Param("cartId"), req.SearchTerm, req.Platform)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Summary returns the fee breakdown of the current selection
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.carts.Summary(c.Request.Context(), c.Param("cartId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Optimize returns the cheapest assignment with suggestions, without changing the cart
func (h *Handler) Optimize(c *gin.Context) {
	report, err := h.carts.Optimize(c.Request.Context(), c.Param("cartId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type applyRequest struct {
	Assignment []domain.ItemAssignment `json:"assignment" binding:"required,dive"`
}

// ApplyAssignment writes an accepted assignment into the cart
func (h *Handler) ApplyAssignment(c *gin.Context) {
	var req applyRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.carts.ApplyAssignment(c.Request.Context(), c.Param("cartId"), req.Assignment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// bindJSON decodes the body into req and writes a 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   domain.ErrInvalidRequest.Error(),
			"details": err.Error(),
		})
		return false
	}
	return true
}

func respondNotConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": what + " not configured",
	})
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrUnknownPlatform):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrScraperFailure),
		errors.Is(err, domain.ErrAIFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
