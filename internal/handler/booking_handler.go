package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/peershare/service-rental/internal/application"
	"github.com/peershare/service-rental/internal/platform/middleware"
	"github.com/peershare/service-rental/internal/platform/response"
)

// BookingHandler handles HTTP requests for the booking lifecycle.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.Create)
		bookings.PATCH("/:bookingId", h.Decide)
		bookings.GET("/:bookingId", h.Find)
		bookings.GET("", h.ListByRequester)
		bookings.GET("/owner", h.ListByOwner)
	}
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.BadRequest(c, middleware.HeaderSharerUserID+" header is required")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	// Window ordering is enforced here at the boundary, not in the engine.
	if !req.End.After(req.Start) {
		response.BadRequest(c, "booking end must be after start")
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Decide handles PATCH /bookings/:bookingId?approved=true|false.
func (h *BookingHandler) Decide(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.BadRequest(c, middleware.HeaderSharerUserID+" header is required")
		return
	}

	bookingID, err := parseID(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	approve, err := strconv.ParseBool(c.Query("approved"))
	if err != nil {
		response.BadRequest(c, "approved query parameter must be true or false")
		return
	}

	result, err := h.service.Decide(c.Request.Context(), userID, bookingID, approve)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Find handles GET /bookings/:bookingId.
func (h *BookingHandler) Find(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.BadRequest(c, middleware.HeaderSharerUserID+" header is required")
		return
	}

	bookingID, err := parseID(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	result, err := h.service.Find(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

type listFunc func(ctx context.Context, requesterID int64, state string, from, size *int) ([]application.BookingDTO, error)

// ListByRequester handles GET /bookings?state=&from=&size=.
func (h *BookingHandler) ListByRequester(c *gin.Context) {
	h.list(c, h.service.ListByRequester)
}

// ListByOwner handles GET /bookings/owner?state=&from=&size=.
func (h *BookingHandler) ListByOwner(c *gin.Context) {
	h.list(c, h.service.ListByOwner)
}

func (h *BookingHandler) list(c *gin.Context, fn listFunc) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.BadRequest(c, middleware.HeaderSharerUserID+" header is required")
		return
	}

	state := c.DefaultQuery("state", "ALL")
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

	result, err := fn(c.Request.Context(), userID, state, from, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func optionalIntQuery(c *gin.Context, name string) (*int, error) {
	raw, exists := c.GetQuery(name)
	if !exists || raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
