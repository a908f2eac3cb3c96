package api

import (
	"errors"
	"net/http"
	"strconv"

	"tvfleet/pkg/database"

	"github.com/gin-gonic/gin"
)

// CrudHandler handles CRUD requests for a generic type. Fields tagged
// for encryption are encrypted before they reach the repository.
type CrudHandler[T any] struct {
	repo          database.Repository[T]
	encryptionKey string
}

// NewCrudHandler creates a new handler
func NewCrudHandler[T any](repo database.Repository[T], encryptionKey string) *CrudHandler[T] {
	return &CrudHandler[T]{repo: repo, encryptionKey: encryptionKey}
}

// RegisterRoutes registers the CRUD routes
func (h *CrudHandler[T]) RegisterRoutes(r *gin.RouterGroup, path string) {
	g := r.Group(path)
	{
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}
}

// List returns all records
func (h *CrudHandler[T]) List(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, items)
}

// Get returns a single record
func (h *CrudHandler[T]) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}

	item, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusNotFound, "record not found")
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create creates a new record
func (h *CrudHandler[T]) Create(c *gin.Context) {
	var entity T
	if err := c.ShouldBindJSON(&entity); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	// Encrypt sensitive fields if present
	encryptedEntity, err := database.EncryptStruct(entity, h.encryptionKey)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "encryption failed: "+err.Error())
		return
	}

	created, err := h.repo.Create(c.Request.Context(), &encryptedEntity)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update updates an existing record
func (h *CrudHandler[T]) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}

	var entity T
	if err := c.ShouldBindJSON(&entity); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	// Encrypt sensitive fields if present
	encryptedEntity, err := database.EncryptStruct(entity, h.encryptionKey)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "encryption failed: "+err.Error())
		return
	}

	updated, err := h.repo.Update(c.Request.Context(), id, &encryptedEntity)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, http.StatusNotFound, "record not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes a record
func (h *CrudHandler[T]) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(c, http.StatusNotFound, "record not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
