package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haojie06/visualgen-http/internal/backend"
	"github.com/haojie06/visualgen-http/internal/logger"
	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/haojie06/visualgen-http/internal/utils"
)

// ListBrands answers an empty list when the backend fails, the dashboard
// treats a missing brand list as "no brands yet". Only 401 is surfaced.
func (h *Handler) ListBrands(c *gin.Context) {
	brands, err := h.backend.ListBrands(c.Request.Context())
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			h.fail(c, err)
			return
		}
		logger.Warnf("failed to list brands: %s", err)
		brands = []model.Brand{}
	}
	c.JSON(http.StatusOK, brands)
}

func (h *Handler) GetBrand(c *gin.Context) {
	brand, err := h.backend.GetBrand(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, brand)
}

func (h *Handler) CreateBrand(c *gin.Context) {
	var req model.Brand
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	brand, err := h.backend.CreateBrand(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, brand)
}

func (h *Handler) UpdateBrand(c *gin.Context) {
	var req model.Brand
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	brand, err := h.backend.UpdateBrand(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, brand)
}

func (h *Handler) DeleteBrand(c *gin.Context) {
	if err := h.backend.DeleteBrand(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListCollections(c *gin.Context) {
	collections, err := h.backend.ListCollections(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, collections)
}

func (h *Handler) GetCollection(c *gin.Context) {
	collection, err := h.backend.GetCollection(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *Handler) CreateCollection(c *gin.Context) {
	var req model.Collection
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	collection, err := h.backend.CreateCollection(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, collection)
}

func (h *Handler) UpdateCollection(c *gin.Context) {
	var req model.Collection
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	collection, err := h.backend.UpdateCollection(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *Handler) DeleteCollection(c *gin.Context) {
	if err := h.backend.DeleteCollection(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AnalyzeCollection goes through the session so the extracted aesthetic is
// the one the next merge sees.
func (h *Handler) AnalyzeCollection(c *gin.Context) {
	var req model.AnalyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	collection, err := h.session.AnalyzeCollection(c.Request.Context(), c.Param("id"), req.ForceReanalyze)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.backend.ListProducts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.backend.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req model.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.backend.CreateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var req model.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.backend.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.backend.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AnalyzeProduct selects the product in the session. With force_reanalyze the
// session drops its prompts and visuals before the backend is asked.
func (h *Handler) AnalyzeProduct(c *gin.Context) {
	var req model.AnalyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	product, err := h.session.AnalyzeProduct(c.Request.Context(), c.Param("id"), req.ForceReanalyze)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
