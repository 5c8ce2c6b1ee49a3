package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type setVendorOpenRequest struct {
	Open *bool `json:"open" binding:"required"`
}

// ListVendors returns all cafeteria vendors.
func (s *Server) ListVendors(c *gin.Context) {
	vendors, err := s.catalog.ListVendors()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendors)
}

// GetVendorMenu returns one vendor's menu.
func (s *Server) GetVendorMenu(c *gin.Context) {
	items, err := s.catalog.ListMenu(c.Param("vendorId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// SetVendorOpen toggles whether a vendor accepts orders. Staff only.
func (s *Server) SetVendorOpen(c *gin.Context) {
	var req setVendorOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vendor, err := s.catalog.SetVendorOpen(c.Param("vendorId"), *req.Open)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendor)
}
