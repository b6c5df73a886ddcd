package httpapi

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"cartshare-backend/internal/domain"
	"cartshare-backend/internal/orders"
	"cartshare-backend/internal/users"
)

type Handlers struct {
	users  *users.Service
	orders *orders.Service
	logger *slog.Logger
}

func NewHandlers(userService *users.Service, orderService *orders.Service, logger *slog.Logger) *Handlers {
	return &Handlers{users: userService, orders: orderService, logger: logger}
}

// ----- Auth -----

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "username and password are required"})
		return
	}
	if err := h.users.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.JSON(409, gin.H{"error": "username already exists"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(201, gin.H{"message": "user created successfully"})
}

func (h *Handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "username and password are required"})
		return
	}
	token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(400, gin.H{"error": "user does not exist"})
		case errors.Is(err, users.ErrPasswordMismatch):
			c.JSON(400, gin.H{"error": "password does not match"})
		default:
			h.fail(c, err)
		}
		return
	}
	c.JSON(202, gin.H{"token": token})
}

// ----- Orders -----

func (h *Handlers) createOrder(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	// an absent body is fine, the title just falls back to its default
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}
	orderID, err := h.orders.Create(c.Request.Context(), identity.UserID, req.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(201, gin.H{"orderId": orderID})
}

func (h *Handlers) fetchOrders(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	list, err := h.orders.FetchOrders(c.Request.Context(), identity.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"orders": list})
}

func (h *Handlers) deleteOrder(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	var req struct {
		OrderID string `json:"orderId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "order id is required"})
		return
	}
	if err := h.orders.Delete(c.Request.Context(), identity.UserID, req.OrderID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "order deleted successfully"})
}

// ----- Collaborators -----

type collaboratorRequest struct {
	OrderID              string `json:"orderId" binding:"required"`
	CollaboratorUsername string `json:"collaboratorUsername" binding:"required"`
}

func (h *Handlers) addCollaborator(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	var req collaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "order id and collaborator username are required"})
		return
	}
	err := h.orders.AddCollaborator(c.Request.Context(), identity.UserID, req.OrderID, req.CollaboratorUsername)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.JSON(409, gin.H{"error": "collaborator already added"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "collaborator added successfully"})
}

func (h *Handlers) removeCollaborator(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	var req collaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "order id and collaborator username are required"})
		return
	}
	err := h.orders.RemoveCollaborator(c.Request.Context(), identity.UserID, req.OrderID, req.CollaboratorUsername)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.JSON(409, gin.H{"error": "collaborator not found in order"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "collaborator removed successfully"})
}

// ----- Items -----

func (h *Handlers) addItem(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	var req struct {
		OrderID string `json:"orderId" binding:"required"`
		Item    struct {
			URL       string  `json:"url" binding:"required"`
			Name      string  `json:"name" binding:"required"`
			Quantity  *int    `json:"quantity"`
			UnitPrice float64 `json:"unitPrice"`
		} `json:"item" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "order id and item are required"})
		return
	}
	// an omitted quantity defaults to 1; an explicit zero is rejected
	// downstream
	quantity := 1
	if req.Item.Quantity != nil {
		quantity = *req.Item.Quantity
	}
	itemID, err := h.orders.AddItem(c.Request.Context(), identity.UserID, req.OrderID, domain.Item{
		URL:       req.Item.URL,
		Name:      req.Item.Name,
		Quantity:  quantity,
		UnitPrice: req.Item.UnitPrice,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"itemId": itemID})
}

func (h *Handlers) deleteItem(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	var req struct {
		OrderID string `json:"orderId" binding:"required"`
		ItemID  string `json:"itemId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "order and item id are required"})
		return
	}
	if err := h.orders.RemoveItem(c.Request.Context(), identity.UserID, req.OrderID, req.ItemID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "item removed successfully"})
}

// fail maps service errors to the response taxonomy. Anything not in
// the taxonomy is an internal error: logged with detail, reported
// without it.
func (h *Handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(404, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(403, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(409, gin.H{"error": "conflict"})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(400, gin.H{"error": "invalid request"})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(401, gin.H{"error": "unauthenticated"})
	default:
		h.logger.Error("request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(500, gin.H{"error": "internal server error"})
	}
}
