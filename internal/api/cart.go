package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity"`
	LineNote string `json:"line_note"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GetCart returns the actor's current cart, an empty cart if none
// exists yet.
func (s *Server) GetCart(c *gin.Context) {
	current, err := s.carts.Get(actorFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

// AddCartItem adds an item to the actor's cart, merging with an existing
// line for the same item. Quantity defaults to one.
func (s *Server) AddCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	updated, err := s.carts.AddItem(actorFrom(c).ID, req.ItemID, req.Quantity, req.LineNote)
	s.metrics.RecordCartOp("add", err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UpdateCartItem replaces one line's quantity.
func (s *Server) UpdateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.carts.UpdateQuantity(actorFrom(c).ID, c.Param("itemId"), req.Quantity)
	s.metrics.RecordCartOp("update", err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// RemoveCartItem deletes one line from the cart.
func (s *Server) RemoveCartItem(c *gin.Context) {
	updated, err := s.carts.RemoveItem(actorFrom(c).ID, c.Param("itemId"))
	s.metrics.RecordCartOp("remove", err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ClearCart empties the actor's cart.
func (s *Server) ClearCart(c *gin.Context) {
	updated, err := s.carts.Clear(actorFrom(c).ID)
	s.metrics.RecordCartOp("clear", err)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
