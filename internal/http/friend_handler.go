package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memory-makers/internal/service"
)

// FriendHandler mantiene dependencias para el endpoint de vinculación.
type FriendHandler struct {
	logger  *zap.Logger
	pairing *service.PairingService
}

func NewFriendHandler(logger *zap.Logger, pairing *service.PairingService) *FriendHandler {
	return &FriendHandler{
		logger:  logger,
		pairing: pairing,
	}
}

// ConnectFriend maneja POST /api/connect-friend.
func (h *FriendHandler) ConnectFriend(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	var req struct {
		FriendCode string `json:"friend_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid connect request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request"})
		return
	}

	partner, err := h.pairing.Pair(c.Request.Context(), user.ID, req.FriendCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyPaired):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "You already have a partner"})
		case errors.Is(err, service.ErrFriendCodeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"detail": "Friend code not found"})
		case errors.Is(err, service.ErrSelfPair):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Cannot connect with yourself"})
		case errors.Is(err, service.ErrPartnerTaken):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "This user already has a partner"})
		default:
			h.logger.Error("connect friend failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not connect"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Connected successfully", "partner": partner})
}
