package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobber/internal/services"
	"github.com/yoockh/jobber/internal/utils"
)

type UserHandler struct {
	svc services.UserService
}

func NewUserHandler(svc services.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type registerRequest struct {
	services.RegisterInput
	// either "EMPLOYER" or {"id": 2} / {"name": "EMPLOYER"}
	Role json.RawMessage `json:"role"`
}

func (r *registerRequest) input() (services.RegisterInput, bool) {
	in := r.RegisterInput
	raw := bytes.TrimSpace(r.Role)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return in, true
	}
	if raw[0] == '"' {
		return in, json.Unmarshal(raw, &in.Role) == nil
	}
	var ref struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil {
		return in, false
	}
	in.RoleID, in.Role = ref.ID, ref.Name
	return in, true
}

func (h *UserHandler) Register(c *gin.Context) {
	const op = "UserHandler.Register"

	var req registerRequest
	if !bindJSON(c, &req, op) {
		return
	}
	in, ok := req.input()
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid role", nil))
		return
	}

	u, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": u})
}

func (h *UserHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *UserHandler) ByEmail(c *gin.Context) {
	u, err := h.svc.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	u, err := h.svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.ProfileUpdate
	if !bindJSON(c, &req, "UserHandler.UpdateMe") {
		return
	}

	u, err := h.svc.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// AdminDelete removes any user account.
func (h *UserHandler) AdminDelete(c *gin.Context) {
	id, ok := paramID(c, "id", "UserHandler.AdminDelete")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
