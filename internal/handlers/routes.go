package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"spotted/internal/media"
	"spotted/internal/middleware"
	"spotted/internal/sessions"
)

type Dependencies struct {
	Users    UserStore
	Spots    SpotStore
	Comments CommentStore
	DB       Pinger
	Sessions *sessions.Manager
	Uploader media.Uploader
	Logger   *zap.Logger
}

// RegisterRoutes mounts the API on r. The session gate runs on every route;
// routes that need a caller add RequireSession.
func RegisterRoutes(r gin.IRouter, d Dependencies) {
	auth := d.Logger.Named("auth")
	spot := d.Logger.Named("spot")

	r.Use(middleware.LoadSession(d.Sessions, d.Logger.Named("session")))

	r.GET("/healthz", Health(d.DB, d.Logger))

	r.POST("/sign-up", SignUp(d.Users, auth))
	r.POST("/log-in", LogIn(d.Users, d.Sessions, auth))
	r.GET("/log-out", LogOut(d.Sessions, auth))
	r.GET("/profile", GetProfile())
	r.POST("/profile/edit/:id", EditProfile(d.Users, auth))
	r.GET("/profile/:id/spots", ListUserSpots(d.Users, spot))

	r.POST("/upload", Upload(d.Uploader, d.Logger.Named("media")))

	r.POST("/create-spot/:id", CreateSpot(d.Spots, spot))
	r.GET("/all-spots", ListSpots(d.Spots, spot))
	r.GET("/single-spot/:id", GetSpot(d.Spots, spot))

	gated := r.Group("/single-spot/:id", middleware.RequireSession())
	{
		gated.POST("", RateSpot(d.Spots, d.Logger.Named("rating")))
		gated.POST("/delete", DeleteSpot(d.Spots, spot))
		gated.POST("/comment", CreateComment(d.Comments, d.Logger.Named("comment")))
	}
}
