package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/haojie06/visualgen-http/internal/tracker"
	"github.com/haojie06/visualgen-http/internal/utils"
)

type sessionResponse struct {
	tracker.Snapshot

	CompletedCount int `json:"completed_count"`

	CanRegenerate *bool `json:"can_regenerate,omitempty"`
}

func newSessionResponse(snap tracker.Snapshot, collectionId string) sessionResponse {
	resp := sessionResponse{Snapshot: snap, CompletedCount: snap.CompletedCount()}
	if collectionId != "" {
		ok := snap.CanRegenerate(collectionId)
		resp.CanRegenerate = &ok
	}
	return resp
}

// GetSession returns the current snapshot. With ?collection_id the response
// says whether regenerating under that collection is offered.
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionResponse(h.session.Snapshot(), c.Query("collection_id")))
}

// SessionEvents streams a snapshot event after every session change.
func (h *Handler) SessionEvents(c *gin.Context) {
	updates, cancel := h.session.Subscribe()
	defer cancel()

	c.SSEvent("snapshot", newSessionResponse(h.session.Snapshot(), ""))
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", newSessionResponse(snap, ""))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) Merge(c *gin.Context) {
	var req model.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.session.Merge(c.Request.Context(), req.ProductId, req.CollectionId, tracker.MergeOptions{
		ShotTypes:   req.ShotTypes,
		Resolution:  req.Resolution,
		AspectRatio: req.AspectRatio,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(snap, ""))
}

func (h *Handler) EditPrompt(c *gin.Context) {
	var req model.EditPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.session.EditPrompt(c.Param("shotType"), model.MergedPrompt{Prompt: req.Prompt, Metadata: req.Metadata})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(snap, ""))
}

// Generate answers once execution is accepted; progress arrives on /session/events.
func (h *Handler) Generate(c *gin.Context) {
	snap, err := h.session.GenerateImages(c.Request.Context())
	if err != nil {
		status := utils.StatusForError(err)
		if current := h.session.Snapshot(); current.Generation != nil && status != http.StatusUnauthorized {
			utils.GinFailedWithMessageAndGenerationId(c, status, current.Generation.Id, err.Error())
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newSessionResponse(snap, ""))
}

func (h *Handler) Regenerate(c *gin.Context) {
	var req model.RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinFailedWithMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := h.session.RegenerateWithNewDA(c.Request.Context(), req.CollectionId)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(snap, ""))
}

func (h *Handler) DismissAlert(c *gin.Context) {
	h.session.DismissAlert()
	c.Status(http.StatusNoContent)
}
