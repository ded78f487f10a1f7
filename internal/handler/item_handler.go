package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/peershare/service-rental/internal/application"
	"github.com/peershare/service-rental/internal/platform/middleware"
	"github.com/peershare/service-rental/internal/platform/response"
)

// ItemHandler handles HTTP requests for the item catalog.
type ItemHandler struct {
	service *application.ItemService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service *application.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// RegisterRoutes registers all item routes on the given router group.
func (h *ItemHandler) RegisterRoutes(r *gin.RouterGroup) {
	items := r.Group("/items")
	{
		items.POST("", h.Create)
		items.PATCH("/:itemId", h.Update)
		items.GET("/search", h.Search)
		items.GET("/:itemId", h.Find)
		items.GET("", h.ListOwned)
		items.POST("/:itemId/comment", h.AddComment)
	}
}

// Create handles POST /items.
func (h *ItemHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.BadRequest(c, middleware.HeaderSharerUserID+" header is required")
		return
	}

	var req application.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update handles PATCH /items/:itemId.
func (h *ItemHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.BadRequest(c, middleware.HeaderSharerUserID+" header is required")
		return
	}

	itemID, err := parseID(c.Param("itemId"))
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return
	}

	var req application.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Update(c.Request.Context(), userID, itemID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Find handles GET /items/:itemId.
func (h *ItemHandler) Find(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.BadRequest(c, middleware.HeaderSharerUserID+" header is required")
		return
	}

	itemID, err := parseID(c.Param("itemId"))
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return
	}

	result, err := h.service.Find(c.Request.Context(), itemID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListOwned handles GET /items?from=&size=.
func (h *ItemHandler) ListOwned(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.BadRequest(c, middleware.HeaderSharerUserID+" header is required")
		return
	}

	from, err := optionalIntQuery(c, "from")
	if err != nil {
		response.BadRequest(c, "from query parameter must be an integer")
		return
	}
	size, err := optionalIntQuery(c, "size")
	if err != nil {
		response.BadRequest(c, "size query parameter must be an integer")
		return
	}

	result, err := h.service.ListOwned(c.Request.Context(), userID, from, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Search handles GET /items/search?text=&from=&size=.
func (h *ItemHandler) Search(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		response.BadRequest(c, middleware.HeaderSharerUserID+" header is required")
		return
	}

	from, err := optionalIntQuery(c, "from")
	if err != nil {
		response.BadRequest(c, "from query parameter must be an integer")
		return
	}
	size, err := optionalIntQuery(c, "size")
	if err != nil {
		response.BadRequest(c, "size query parameter must be an integer")
		return
	}

	result, err := h.service.Search(c.Request.Context(), c.Query("text"), from, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// AddComment handles POST /items/:itemId/comment.
func (h *ItemHandler) AddComment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.BadRequest(c, middleware.HeaderSharerUserID+" header is required")
		return
	}

	itemID, err := parseID(c.Param("itemId"))
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return
	}

	var req application.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AddComment(c.Request.Context(), userID, itemID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
