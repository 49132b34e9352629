package router

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/nhatro/internal/db"
	"github.com/nhatro/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Setup 配置 Gin 引擎和路由
func Setup(api *handler.API, sessionSecret string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if logger != nil {
		r.Use(requestLogger(logger))
	}
	r.Use(handler.MetricsMiddleware())

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("nhatro_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		users := apiGroup.Group("/users")
		{
			users.POST("/register", api.Register)
			users.POST("/login", api.Login)
			users.POST("/logout", api.Logout)

			me := users.Group("/me", handler.AuthRequired())
			{
				me.GET("", api.GetMyProfile)
				me.PUT("", api.UpdateMyProfile)
				me.POST("/avatar", api.UploadAvatar)
				me.POST("/saved", api.ToggleSavedArticle)
				me.GET("/saved", api.GetSavedArticles)
			}
		}

		articles := apiGroup.Group("/articles")
		{
			articles.GET("", handler.OptionalAuth(), api.ListArticles)
			articles.GET("/my-articles", handler.AuthRequired(), api.MyArticles)
			articles.GET("/:id", handler.OptionalAuth(), api.GetArticle)

			articles.POST("", handler.AuthRequired(), handler.RoleRequired(db.RoleAdmin, db.RoleLandlord), api.CreateArticle)
			articles.PUT("/:id", handler.AuthRequired(), api.UpdateArticle)
			articles.PATCH("/:id/approve", handler.AuthRequired(), handler.RoleRequired(db.RoleAdmin), api.ApproveArticle)
			articles.PATCH("/:id/status", handler.AuthRequired(), api.SetArticleStatus)
			articles.DELETE("/:id", handler.AuthRequired(), api.DeleteArticle)

			articles.POST("/:id/comments", handler.AuthRequired(), api.CreateComment)
			articles.GET("/:id/comments", handler.AuthRequired(), api.GetArticleComments)
		}

		comments := apiGroup.Group("/comments")
		{
			comments.DELETE("/:id", handler.AuthRequired(), api.DeleteComment)
		}

		categories := apiGroup.Group("/categories")
		{
			categories.GET("", api.GetCategories)
			categories.GET("/:id", api.GetCategory)
			categories.POST("", handler.AuthRequired(), handler.RoleRequired(db.RoleAdmin), api.CreateCategory)
			categories.PUT("/:id", handler.AuthRequired(), handler.RoleRequired(db.RoleAdmin), api.UpdateCategory)
			categories.DELETE("/:id", handler.AuthRequired(), handler.RoleRequired(db.RoleAdmin), api.DeleteCategory)
		}

		tags := apiGroup.Group("/tags")
		{
			tags.GET("", api.GetTags)
			tags.POST("", handler.AuthRequired(), handler.RoleRequired(db.RoleAdmin), api.CreateTag)
			tags.PUT("/:id", handler.AuthRequired(), handler.RoleRequired(db.RoleAdmin), api.UpdateTag)
			tags.DELETE("/:id", handler.AuthRequired(), api.DeleteTag)
		}
	}

	return r
}

// requestLogger 记录每个请求的方法、路径、状态码与耗时。
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
