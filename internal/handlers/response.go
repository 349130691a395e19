package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/carrental-api/internal/query"
	"github.com/harentsoaR/carrental-api/internal/validation"
)

type listResponse struct {
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int64       `json:"totalPages"`
}

func newListResponse(message string, data interface{}, page query.Page, total int64) listResponse {
	return listResponse{
		Message:    message,
		Data:       data,
		Page:       page.Page,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}
}

// internalError logs err and answers 500. The error text is only exposed in development.
func (h *Handler) internalError(c *gin.Context, what string, err error) {
	h.Log.Error(what, zap.Error(err), zap.String("path", c.FullPath()))
	_ = c.Error(err)

	body := gin.H{"message": "Internal server error"}
	if h.Settings.ExposeErrors {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// badInput answers 400 for validation failures and malformed bodies.
func badInput(c *gin.Context, err error) {
	var errs validation.Errors
	if errors.As(err, &errs) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation Error", "errors": errs})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
}

func badQuery(c *gin.Context, err error) {
	var perr *query.ParamError
	if errors.As(err, &perr) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid query parameter", "errors": []string{perr.Error()}})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid query parameter"})
}

// objectIDParam parses the :id route parameter, answering 400 on failure.
func objectIDParam(c *gin.Context, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + what + " ID format"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func pageFromQuery(c *gin.Context) query.Page {
	return query.ParsePage(c.Query("page"), c.Query("limit"))
}
