package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobber/internal/services"
)

type ApplicationHandler struct {
	svc services.ApplicationService
}

func NewApplicationHandler(svc services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

func (h *ApplicationHandler) Apply(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req services.ApplyInput
	if !bindJSON(c, &req, "ApplicationHandler.Apply") {
		return
	}
	a, err := h.svc.Apply(c.Request.Context(), p, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *ApplicationHandler) Mine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	list, err := h.svc.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ApplicationHandler) Count(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	counts, err := h.svc.CountByStatus(c.Request.Context(), p, c.Query("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *ApplicationHandler) Filter(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	list, err := h.svc.Filter(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "ApplicationHandler.Get")
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ApplicationHandler) Cancel(c *gin.Context) {
	p, ok := requirePrincipal(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "ApplicationHandler.Cancel")
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application cancelled successfully"})
}

// All lists every application; admin only.
func (h *ApplicationHandler) All(c *gin.Context) {
	list, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
