package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler issues admin tokens. There are no user accounts: whoever knows
// the admin password may edit locations.
type Handler struct {
	PasswordHash []byte // bcrypt; empty disables login
	Tokens       TokenService
	Log          *zap.Logger
}

func NewHandler(passwordHash string, tokens TokenService, log *zap.Logger) *Handler {
	return &Handler{PasswordHash: []byte(passwordHash), Tokens: tokens, Log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)
	rg.GET("/me", AdminMiddleware(h.Tokens), h.me)
}

type loginReq struct {
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	if len(h.PasswordHash) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login disabled"})
		return
	}

	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.PasswordHash, []byte(req.Password)); err != nil {
		h.Log.Warn("admin login rejected", zap.String("remote", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, exp, err := h.Tokens.Sign(RoleAdmin, RoleAdmin)
	if err != nil {
		h.Log.Error("sign admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.UTC(),
	})
}

func (h *Handler) me(c *gin.Context) {
	claims := MustGetClaims(c)
	c.JSON(http.StatusOK, gin.H{
		"subject":    claims.Subject,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt.Time.UTC(),
	})
}

// HashPassword returns the bcrypt hash to put in the config.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
