package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xrkr80hd/EZApp/config"
	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/utils"
)

// GetUsers returns every consultant in the directory, newest first.
func GetUsers(c *gin.Context) {
	var consultants []models.Consultant
	if err := config.DB.Order("created_at desc").Find(&consultants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": consultants})
}

// SaveUser creates a consultant when no id is supplied and updates the
// existing record otherwise. New accounts require a password.
func SaveUser(c *gin.Context) {
	var input struct {
		ID        string `json:"id"`
		Username  string `json:"username" binding:"required"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		IsAdmin   bool   `json:"isAdmin"`
		Active    *bool  `json:"active"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username is required"})
		return
	}

	if input.Phone != "" && !utils.ValidatePhone(input.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid phone number format"})
		return
	}

	if input.ID == "" {
		if input.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Password is required for new users"})
			return
		}

		consultant := models.Consultant{
			Username:     input.Username,
			PasswordHash: input.Password,
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			Email:        input.Email,
			Phone:        input.Phone,
			IsAdmin:      input.IsAdmin,
			Active:       true,
		}
		if input.Active != nil {
			consultant.Active = *input.Active
		}

		if err := config.DB.Create(&consultant).Error; err != nil {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Username already exists"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "user": consultant})
		return
	}

	var consultant models.Consultant
	if err := config.DB.First(&consultant, "id = ?", input.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	consultant.Username = input.Username
	consultant.FirstName = input.FirstName
	consultant.LastName = input.LastName
	consultant.Email = input.Email
	consultant.Phone = input.Phone
	consultant.IsAdmin = input.IsAdmin
	if input.Active != nil {
		consultant.Active = *input.Active
	}

	if input.Password != "" {
		hash, err := utils.HashPassword(input.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to hash password"})
			return
		}
		consultant.PasswordHash = hash
	}

	if err := config.DB.Save(&consultant).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Username already exists"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": consultant})
}

// DeleteUser removes a consultant. Deleting your own account is refused.
func DeleteUser(c *gin.Context) {
	id := c.Param("id")

	if id == c.GetString("consultantId") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "You cannot delete your own account"})
		return
	}

	result := config.DB.Delete(&models.Consultant{}, "id = ?", id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete user"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}
