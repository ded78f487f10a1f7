package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/peershare/service-rental/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: message})
}

// Error maps a domain error kind to a transport status. Non-domain errors
// become opaque 500s.
func Error(c *gin.Context, err error) {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		c.JSON(http.StatusNotFound, errorBody{Error: err.Error()})
	case domain.KindForbidden:
		c.JSON(http.StatusForbidden, errorBody{Error: err.Error()})
	case domain.KindConflict, domain.KindInvalidState:
		c.JSON(http.StatusConflict, errorBody{Error: err.Error()})
	case domain.KindValidation:
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}
