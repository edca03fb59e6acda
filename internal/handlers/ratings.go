package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spotted/internal/sessions"
)

type RateRequest struct {
	Star *number `json:"star" binding:"required"`
}

// RateSpot adds the caller's star to the spot. A spot that is missing or
// already rated by the caller yields 200 with a null body.
func RateSpot(spots SpotStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessions.Current(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var req RateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if *req.Star <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "star must be greater than 0"})
			return
		}

		userID := session.User.ID.Hex()
		spot, err := spots.RateSpot(c.Request.Context(), id, userID, float64(*req.Star))
		if err != nil {
			respondDBError(c, logger, "spot rating failed", err)
			return
		}
		if spot == nil {
			logger.Info("rating ignored", zap.String("spotId", id.Hex()), zap.String("userId", userID))
		}
		c.JSON(http.StatusOK, spot)
	}
}
