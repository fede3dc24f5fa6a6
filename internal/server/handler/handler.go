package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haojie06/visualgen-http/internal/backend"
	"github.com/haojie06/visualgen-http/internal/logger"
	"github.com/haojie06/visualgen-http/internal/store"
	"github.com/haojie06/visualgen-http/internal/tracker"
	"github.com/haojie06/visualgen-http/internal/utils"
)

const AuthCookieName = "auth_token"

// Handler serves the dashboard API over the backend client, the local store
// and the generation session.
type Handler struct {
	backend    *backend.Client
	store      *store.Store
	session    *tracker.Session
	signInPath string
}

func New(backendClient *backend.Client, st *store.Store, session *tracker.Session, signInPath string) *Handler {
	return &Handler{
		backend:    backendClient,
		store:      st,
		session:    session,
		signInPath: signInPath,
	}
}

// fail answers with the status mapped from err. A backend 401 has already
// dropped stored credentials, the cookie goes too.
func (h *Handler) fail(c *gin.Context, err error) {
	status := utils.StatusForError(err)
	if status == http.StatusUnauthorized {
		if errors.Is(err, backend.ErrUnauthorized) {
			c.SetCookie(AuthCookieName, "", -1, "/", "", false, true)
		}
		utils.GinUnauthorized(c, h.signInPath, err.Error())
		return
	}
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s failed: %s", c.Request.Method, c.FullPath(), err)
	}
	utils.GinFailedWithMessage(c, status, err.Error())
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
