package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"spotted/internal/database"
	"spotted/internal/models"
	"spotted/internal/sessions"
)

type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (primitive.ObjectID, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	FindUserWithSpots(ctx context.Context, id primitive.ObjectID) (*models.UserWithSpots, error)
}

type SignUpRequest struct {
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password" binding:"required"`
	Car       string `json:"car"`
	Camera    string `json:"camera"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// EditProfileRequest carries only the fields the caller wants changed.
type EditProfileRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Car       *string `json:"car"`
	Camera    *string `json:"camera"`
}

func SignUp(users UserStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignUpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("password hash failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
			return
		}

		user := models.User{
			UserProfile: models.UserProfile{
				Username:  strings.TrimSpace(req.Username),
				FirstName: req.FirstName,
				LastName:  req.LastName,
				Email:     req.Email,
				Car:       req.Car,
				Camera:    req.Camera,
			},
			PasswordHash: string(hash),
			Spots:        []primitive.ObjectID{},
		}

		id, err := users.CreateUser(c.Request.Context(), user)
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		if err != nil {
			respondDBError(c, logger, "user insert failed", err)
			return
		}

		logger.Info("user created", zap.String("userId", id.Hex()), zap.String("username", user.Username))
		c.JSON(http.StatusOK, gin.H{"message": "User created"})
	}
}

// LogIn answers 403 for an unknown username and 401 for a wrong password.
func LogIn(users UserStore, manager *sessions.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		user, err := users.FindUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
		if errors.Is(err, database.ErrNotFound) {
			logger.Info("login unknown username", zap.String("username", req.Username))
			c.JSON(http.StatusForbidden, gin.H{"errorMessage": "Invalid credentials"})
			return
		}
		if err != nil {
			logger.Error("login lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"errorMessage": "db error"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			logger.Info("login wrong password", zap.String("userId", user.ID.Hex()))
			c.JSON(http.StatusUnauthorized, gin.H{"errorMessage": "Invalid credentials"})
			return
		}

		if _, err := manager.Start(c, user); err != nil {
			logger.Error("session start failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"errorMessage": "session error"})
			return
		}

		logger.Info("user logged in", zap.String("userId", user.ID.Hex()))
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

func LogOut(manager *sessions.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := manager.Destroy(c); err != nil {
			logger.Error("session delete failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// GetProfile returns the account snapshot held by the session. The snapshot
// carries the password hash; User's json tags keep it out of the response.
func GetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessions.Current(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized"})
			return
		}
		c.JSON(http.StatusOK, session.User)
	}
}

// EditProfile merges the provided fields into the user named by the path. It
// does not check that the caller owns that account.
func EditProfile(users UserStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathObjectID(c, "id")
		if !ok {
			return
		}

		var req EditProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		set, err := profileUpdate(req)
		if err != nil {
			logger.Error("password hash failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
			return
		}

		updated, err := users.UpdateUser(c.Request.Context(), id, set)
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		if err != nil {
			respondDBError(c, logger, "user update failed", err)
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

func profileUpdate(req EditProfileRequest) (bson.M, error) {
	set := bson.M{}
	for field, value := range map[string]*string{
		"username":  req.Username,
		"firstname": req.FirstName,
		"lastname":  req.LastName,
		"email":     req.Email,
		"car":       req.Car,
		"camera":    req.Camera,
	} {
		if value != nil {
			set[field] = *value
		}
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		set["password"] = string(hash)
	}
	return set, nil
}
