package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/haojie06/visualgen-http/internal/logger"
	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/haojie06/visualgen-http/internal/utils"
	"gorm.io/gorm"
)

// ListGenerations proxies the backend history of a product.
func (h *Handler) ListGenerations(c *gin.Context) {
	generations, err := h.backend.ListGenerations(c.Request.Context(), c.Query("product_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, generations)
}

func (h *Handler) ListLibrary(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, "invalid limit")
		return
	}
	generations, err := h.store.Library(c.Query("product_id"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, generations)
}

// SaveToLibrary fetches the generation from the backend and caches it.
func (h *Handler) SaveToLibrary(c *gin.Context) {
	generation, err := h.backend.GetGeneration(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.SaveGeneration(generation); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, generation)
}

// DeleteFromLibrary deletes on the backend first, the cached row follows.
func (h *Handler) DeleteFromLibrary(c *gin.Context) {
	id := c.Param("id")
	if err := h.backend.DeleteGeneration(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.RemoveGeneration(id); err != nil {
		logger.Warnf("generation %s deleted but cache row kept: %s", id, err)
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RegenerateFromLibrary(c *gin.Context) {
	var req model.RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := h.savedGeneration(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	snap, err := h.session.RegenerateFromLibrary(c.Request.Context(), saved, req.CollectionId)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(snap, ""))
}

// savedGeneration prefers the cached copy and falls back to the backend.
func (h *Handler) savedGeneration(c *gin.Context) (*model.Generation, error) {
	id := c.Param("id")
	saved, err := h.store.LibraryGeneration(id)
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return h.backend.GetGeneration(c.Request.Context(), id)
}
