package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/haojie06/visualgen-http/internal/utils"
)

const authCookieMaxAge = 7 * 24 * 3600

func (h *Handler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.SignIn(req.Token, req.User); err != nil {
		h.fail(c, err)
		return
	}
	c.SetCookie(AuthCookieName, req.Token, authCookieMaxAge, "/", "", false, true)
	c.JSON(http.StatusOK, req.User)
}

func (h *Handler) SignOut(c *gin.Context) {
	if err := h.store.ClearCredentials(); err != nil {
		h.fail(c, err)
		return
	}
	c.SetCookie(AuthCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (h *Handler) CurrentUser(c *gin.Context) {
	user, err := h.store.User()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GetTheme(c *gin.Context) {
	theme, err := h.store.Theme()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

func (h *Handler) SetTheme(c *gin.Context) {
	var req model.ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.SetTheme(req.Theme); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": req.Theme})
}
