package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobber/internal/services"
	"github.com/yoockh/jobber/internal/utils"
)

type AuthHandler struct {
	svc services.AuthService
}

func NewAuthHandler(svc services.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	const op = "AuthHandler.Login"

	var req loginRequest
	if !bindJSON(c, &req, op) {
		return
	}
	login := req.Username
	if login == "" {
		login = req.Email
	}
	if strings.TrimSpace(login) == "" || req.Password == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "username and password are required", nil))
		return
	}

	u, pair, err := h.svc.Login(c.Request.Context(), login, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         u,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"tokenType":    pair.TokenType,
		"expiresIn":    pair.ExpiresIn,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	const op = "AuthHandler.Refresh"

	var req refreshRequest
	if !bindJSON(c, &req, op) {
		return
	}
	if req.RefreshToken == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "refreshToken is required", nil))
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout is stateless; clients drop their tokens.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *AuthHandler) Validate(c *gin.Context) {
	const op = "AuthHandler.Validate"

	raw := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	if raw == "" {
		writeError(c, utils.E(utils.CodeUnauthorized, op, "missing bearer token", nil))
		return
	}
	st, err := h.svc.Validate(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":         true,
		"username":      st.Claims.Subject,
		"userId":        st.Claims.UserID,
		"role":          st.Claims.Role,
		"expiresIn":     int64(st.Remaining.Seconds()),
		"shouldRefresh": st.ShouldRefresh,
	})
}
