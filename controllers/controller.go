package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"kam-backend/database"
	"kam-backend/metrics"
	"kam-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 30 * time.Second

var validate = validator.New()

// TokenRevoker blacklists session tokens at logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

type AuthSettings struct {
	Secret   string
	TokenTTL time.Duration
}

// Controller holds the dependencies shared by every handler.
type Controller struct {
	store   database.Store
	engine  *metrics.Engine
	hub     *Hub
	auth    AuthSettings
	revoker TokenRevoker
	now     func() time.Time
}

type Option func(*Controller)

// WithRevoker enables token revocation on logout.
func WithRevoker(r TokenRevoker) Option {
	return func(ctl *Controller) { ctl.revoker = r }
}

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) { ctl.now = now }
}

func New(store database.Store, engine *metrics.Engine, hub *Hub, auth AuthSettings, opts ...Option) *Controller {
	ctl := &Controller{
		store:  store,
		engine: engine,
		hub:    hub,
		auth:   auth,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

func (ctl *Controller) timestamp() time.Time {
	return ctl.now().UTC().Truncate(time.Millisecond)
}

// apiError is a failure with a chosen status and client-facing message.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(format string, args ...interface{}) error {
	return &apiError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func notFound(message string) error {
	return &apiError{status: http.StatusNotFound, message: message}
}

func conflict(message string) error {
	return &apiError{status: http.StatusConflict, message: message}
}

func unauthorized(message string) error {
	return &apiError{status: http.StatusUnauthorized, message: message}
}

// respondError writes err as a JSON message with the status of its category.
func respondError(c *gin.Context, err error) {
	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		c.JSON(apiErr.status, gin.H{"message": apiErr.message})
	case errors.Is(err, metrics.ErrLeadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Lead not found"})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Resource not found"})
	case errors.Is(err, database.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"message": "A record with the same unique fields already exists"})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

func parseID(value, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, badRequest("Invalid %s", name)
	}
	return id, nil
}

// bindJSON decodes the body into v and runs its validate tags.
func bindJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return badRequest("Invalid request body: %v", err)
	}
	if err := validate.Struct(v); err != nil {
		return badRequest("%v", err)
	}
	return nil
}

// requireLead loads a lead or reports it as not found.
func (ctl *Controller) requireLead(ctx context.Context, id primitive.ObjectID) (*models.Lead, error) {
	lead, err := ctl.store.FindLeadByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("Lead not found")
	}
	return lead, err
}
