package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/services"
	"github.com/xrkr80hd/EZApp/utils"
)

// customerIDFrom resolves the customer a document request targets: the
// explicit query parameter wins, otherwise the current customer pointer.
func customerIDFrom(c *gin.Context) (string, bool) {
	if id := c.Query("customer"); id != "" {
		return utils.NormalizeCustomerID(id), true
	}
	return registry.Current()
}

func GetToolDocument(c *gin.Context) {
	tool := c.Param("tool")
	if !services.KnownTool(tool) {
		utils.RespondWithError(c, http.StatusNotFound, "Unknown tool")
		return
	}

	id, ok := customerIDFrom(c)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "No customer selected")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customerId": id, "data": documents.LoadTool(tool, id)})
}

func SaveToolDocument(c *gin.Context) {
	tool := c.Param("tool")
	if !services.KnownTool(tool) {
		utils.RespondWithError(c, http.StatusNotFound, "Unknown tool")
		return
	}

	id, ok := customerIDFrom(c)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "No customer selected")
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil || len(payload) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Request body is required")
		return
	}

	if err := documents.SaveTool(tool, id, payload); err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customerId": id, "data": documents.LoadTool(tool, id)})
}

func GetSurvey(c *gin.Context) {
	id, ok := customerIDFrom(c)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "No customer selected")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customerId": id, "survey": documents.LoadSurvey(id)})
}

func SaveSurvey(c *gin.Context) {
	id, ok := customerIDFrom(c)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "No customer selected")
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil || len(payload) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Request body is required")
		return
	}

	survey, err := documents.SaveSurvey(id, payload)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customerId": id, "survey": survey})
}

func GetPhotos(c *gin.Context) {
	id, ok := customerIDFrom(c)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "No customer selected")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customerId": id, "photos": documents.LoadPhotos(id)})
}

func SavePhotos(c *gin.Context) {
	id, ok := customerIDFrom(c)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "No customer selected")
		return
	}

	var input struct {
		Photos []models.PhotoEntry `json:"photos" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "photos array is required")
		return
	}

	photos, err := documents.SavePhotos(id, input.Photos)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customerId": id, "photos": photos})
}

// AutofillMeasurements reports which bathroom measurement fields can be
// pre-filled from the customer's annotated photos.
func AutofillMeasurements(c *gin.Context) {
	id, ok := customerIDFrom(c)
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "No customer selected")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customerId": id, "measurements": documents.AutofillMeasurements(id)})
}

func GetPageCache(c *gin.Context) {
	id, ok := customerIDFrom(c)
	if !ok {
		id = "temp"
	}

	payload, found := documents.LoadCache(c.Param("page"), id)
	if !found {
		utils.RespondWithError(c, http.StatusNotFound, "No cached data")
		return
	}

	c.Data(http.StatusOK, "application/json", []byte(payload))
}

func SavePageCache(c *gin.Context) {
	id, ok := customerIDFrom(c)
	if !ok {
		id = "temp"
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil || len(payload) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Request body is required")
		return
	}

	if err := documents.SaveCache(c.Param("page"), id, string(payload)); err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customerId": id, "cached": true})
}
