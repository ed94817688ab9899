package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type saveKeyRequest struct {
	UserID string `json:"user_id"`
	APIKey string `json:"api_key"`
}

// handleSaveKey stores a user's provider API key encrypted at rest. The
// plaintext key is never persisted or echoed back.
func (s *Server) handleSaveKey(c *gin.Context) {
	if s.cipher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "key encryption is not configured"})
		return
	}
	var req saveKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.UserID == "" || req.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and api_key are required"})
		return
	}

	encrypted, err := s.cipher.Encrypt(req.APIKey)
	if err != nil {
		s.logger.Error("encrypt key for user %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store key"})
		return
	}
	if err := s.store.SaveUserKey(c.Request.Context(), req.UserID, encrypted); err != nil {
		s.logger.Error("save key for user %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": true})
}

// handleKeyStatus reports whether a key is stored for the user, without
// revealing anything about the key itself.
func (s *Server) handleKeyStatus(c *gin.Context) {
	userID := c.Param("user_id")
	encrypted, err := s.store.UserKey(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("load key for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load key status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "configured": encrypted != ""})
}
