package router

import "github.com/gin-gonic/gin"

// userRoutes defines profile routes, all behind authentication
func (r *Router) userRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(r.authMw.RequireAuth())
	{
		users.GET("/me", r.userHandler.Me)
		users.GET("/me/access-history", r.userHandler.AccessHistory)
		users.GET("/:id", r.userHandler.GetByID)
	}
}
