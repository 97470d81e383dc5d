package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobber/internal/services"
)

type RoleHandler struct {
	svc services.RoleService
}

func NewRoleHandler(svc services.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

type createRoleRequest struct {
	Name string `json:"name"`
}

func (h *RoleHandler) Create(c *gin.Context) {
	var req createRoleRequest
	if !bindJSON(c, &req, "RoleHandler.Create") {
		return
	}
	r, err := h.svc.Create(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *RoleHandler) Get(c *gin.Context) {
	r, err := h.svc.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
