package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, managerMiddleware gin.HandlerFunc) {
	group := g.Group("/rooms")

	// === Public Routes ===
	group.GET("", h.List)
	group.GET("/:id", h.Get)

	// === Manager Routes (catalog mutation) ===
	manager := group.Group("")
	manager.Use(authMiddleware, managerMiddleware)
	{
		manager.POST("", h.Create)
		manager.DELETE("/:id", h.Delete)
	}
}
