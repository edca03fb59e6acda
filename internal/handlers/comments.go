package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"spotted/internal/models"
	"spotted/internal/sessions"
)

type CommentStore interface {
	CreateComment(ctx context.Context, comment models.Comment) (primitive.ObjectID, error)
}

type CommentRequest struct {
	Comment string `json:"comment" binding:"required,maxgraphemes=2000"`
}

func CreateComment(comments CommentStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessions.Current(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		spotID, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var req CommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		comment := models.Comment{
			Author:  session.User.ID,
			Spot:    spotID,
			Comment: req.Comment,
		}
		id, err := comments.CreateComment(c.Request.Context(), comment)
		if err != nil {
			respondDBError(c, logger, "comment create failed", err)
			return
		}

		logger.Info("comment created", zap.String("commentId", id.Hex()), zap.String("spotId", spotID.Hex()))
		c.JSON(http.StatusOK, gin.H{"message": "Comment created"})
	}
}
