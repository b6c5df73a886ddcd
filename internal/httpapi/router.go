// Package httpapi is the request/response boundary: gin routes, the
// authorization guard, and handlers that translate between JSON bodies
// and the user/order services.
package httpapi

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cartshare-backend/internal/auth"
)

// NewRouter wires the full route table. Signup and login are public;
// everything else sits behind the token guard.
func NewRouter(h *Handlers, tokens *auth.TokenIssuer, allowedOrigins []string, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.POST("/signup", h.signup)
	r.POST("/login", h.login)

	protected := r.Group("/", RequireAuth(tokens))
	{
		protected.POST("/createOrder", h.createOrder)
		protected.GET("/fetchOrders", h.fetchOrders)
		protected.DELETE("/deleteOrder", h.deleteOrder)

		protected.POST("/addCollaborator", h.addCollaborator)
		protected.DELETE("/removeCollaborator", h.removeCollaborator)

		protected.POST("/addItem", h.addItem)
		protected.DELETE("/deleteItem", h.deleteItem)
	}

	return r
}
