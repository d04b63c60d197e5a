package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xrkr80hd/EZApp/config"
	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/utils"
)

func Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	var consultant models.Consultant
	if err := config.DB.Where("username = ? AND active = ?", input.Username, true).First(&consultant).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if !utils.CheckPasswordHash(input.Password, consultant.PasswordHash) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := utils.GenerateToken(consultant.ID.String(), consultant.IsAdmin)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now()
	consultant.LastLogin = &now
	config.DB.Model(&consultant).Update("last_login", now)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    consultant,
	})
}

func Me(c *gin.Context) {
	consultantID := c.GetString("consultantId")

	var consultant models.Consultant
	if err := config.DB.First(&consultant, "id = ?", consultantID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Consultant not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": consultant})
}
