package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AmrIbrahim41/smart-shop/internal/apperr"
	"github.com/AmrIbrahim41/smart-shop/internal/middleware"
)

// respondWithError maps a service error onto its status and {"detail": msg}.
// Internal causes are logged, never returned.
func respondWithError(c *gin.Context, route string, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	log := middleware.Logger(c).With(zap.String("route", route))
	if kind == apperr.KindInternal {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Int("status", status), zap.String("detail", apperr.Message(err)))
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": apperr.Message(err)})
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// respondBindError renders binding failures. Validator errors list every
// failed field; anything else is a malformed body.
func respondBindError(c *gin.Context, route string, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		middleware.Logger(c).Debug("validation failed", zap.String("route", route), zap.Int("fields", len(fields)))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "validation failed", "errors": fields})
		return
	}
	respondWithError(c, route, apperr.Validation("invalid request body"))
}

// objectIDParam reads an ObjectID path parameter. A malformed id cannot
// match anything, so it is reported as missing.
func objectIDParam(c *gin.Context, name, notFound string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param(name)))
	if err != nil {
		respondWithError(c, "param "+name, apperr.NotFound(notFound))
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseObjectID(raw string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(strings.TrimSpace(raw))
}
