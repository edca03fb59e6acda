package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"spotted/internal/models"
	"spotted/internal/sessions"
)

type SpotStore interface {
	CreateSpot(ctx context.Context, spot models.Spot) (primitive.ObjectID, error)
	ListSpots(ctx context.Context) ([]models.SpotWithAuthor, error)
	FindSpot(ctx context.Context, id primitive.ObjectID) (*models.Spot, error)
	FindSpotDetail(ctx context.Context, id primitive.ObjectID) (*models.SpotDetail, error)
	DeleteSpot(ctx context.Context, spot models.Spot) error
	RateSpot(ctx context.Context, spotID primitive.ObjectID, userID string, star float64) (*models.Spot, error)
}

type SpotRequest struct {
	Car        string `json:"car"`
	Type       string `json:"type"`
	Engine     string `json:"engine"`
	Horsepower number `json:"horsepower"`
	Image      string `json:"image"`
}

// SpotDeletedHeader reports whether POST /single-spot/:id/delete removed the
// spot; the body is the pre-delete snapshot either way.
const SpotDeletedHeader = "X-Spot-Deleted"

// CreateSpot stores a spot owned by the user in the path and links it from
// that user's spots.
func CreateSpot(spots SpotStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorID, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var req SpotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		spot := models.NewSpot(models.SpotFields{
			Car:        req.Car,
			Type:       req.Type,
			Engine:     req.Engine,
			Horsepower: float64(req.Horsepower),
			Image:      req.Image,
		}, authorID)

		id, err := spots.CreateSpot(c.Request.Context(), spot)
		if err != nil {
			respondDBError(c, logger, "spot create failed", err)
			return
		}

		logger.Info("spot created", zap.String("spotId", id.Hex()), zap.String("authorId", authorID.Hex()))
		c.JSON(http.StatusOK, gin.H{"message": "Spot created"})
	}
}

func ListSpots(spots SpotStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := spots.ListSpots(c.Request.Context())
		if err != nil {
			respondDBError(c, logger, "spot list failed", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func ListUserSpots(users UserStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		user, err := users.FindUserWithSpots(c.Request.Context(), id)
		if err != nil {
			respondDBError(c, logger, "user spots lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func GetSpot(spots SpotStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		spot, err := spots.FindSpotDetail(c.Request.Context(), id)
		if err != nil {
			respondDBError(c, logger, "spot lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, spot)
	}
}

// DeleteSpot removes the spot only when the caller is its author. The response
// is always the spot as it was before the request.
func DeleteSpot(spots SpotStore, logger *zap.Logger) gin.HandlerFunc {
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

		spot, err := spots.FindSpot(c.Request.Context(), id)
		if err != nil {
			respondDBError(c, logger, "spot lookup failed", err)
			return
		}

		deleted := false
		if spot != nil && spot.Author == session.User.ID {
			if err := spots.DeleteSpot(c.Request.Context(), *spot); err != nil {
				logger.Error("spot delete failed", zap.String("spotId", id.Hex()), zap.Error(err))
			} else {
				deleted = true
				logger.Info("spot deleted", zap.String("spotId", id.Hex()))
			}
		} else if spot != nil {
			logger.Warn("spot delete by non-owner ignored",
				zap.String("spotId", id.Hex()),
				zap.String("userId", session.User.ID.Hex()),
			)
		}

		c.Header(SpotDeletedHeader, strconv.FormatBool(deleted))
		c.JSON(http.StatusOK, spot)
	}
}
