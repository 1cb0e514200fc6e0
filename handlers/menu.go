package handlers

import (
	"net/http"

	"table-order-api/config"
	"table-order-api/models"

	"github.com/gin-gonic/gin"
)

// GetMenu lists available menu items, optionally filtered by category
func GetMenu(c *gin.Context) {
	var items []models.MenuItem
	query := config.DB.Where("is_available = ?", true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	query.Order("category, name").Find(&items)
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

type MenuItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category"`
	IsAvailable *bool   `json:"is_available"`
}

// AddMenuItem creates a menu item — admin only
func AddMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if err := config.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create menu item"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateMenuItem updates price/availability — admin only
func UpdateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := config.DB.First(&item, c.Param("itemId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
		return
	}
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	item.Category = req.Category
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if err := config.DB.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update menu item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}
