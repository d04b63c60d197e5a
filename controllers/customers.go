package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/services"
	"github.com/xrkr80hd/EZApp/store"
	"github.com/xrkr80hd/EZApp/utils"
)

func ListCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"customers": registry.List()})
}

func GetCustomer(c *gin.Context) {
	id := utils.NormalizeCustomerID(c.Param("id"))

	customer, ok := registry.Get(id)
	if !ok {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "customer": customer})
}

func UpsertCustomer(c *gin.Context) {
	var input struct {
		LastName string              `json:"lastName" binding:"required"`
		Customer models.CustomerFile `json:"customer"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "lastName is required")
		return
	}

	customer, err := registry.Upsert(input.LastName, &input.Customer)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       utils.NormalizeCustomerID(input.LastName),
		"customer": customer,
	})
}

// ImportCustomer accepts a raw customer document, typically pasted or
// uploaded from another device. Records without a last name are rejected.
func ImportCustomer(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Request body is required")
		return
	}

	customer, err := registry.ImportRaw(raw)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if customer == nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Customer data is missing a last name")
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

func DeleteCustomer(c *gin.Context) {
	id := utils.NormalizeCustomerID(c.Param("id"))
	confirm := c.Query("confirm") == "true"

	deleted, err := registry.Delete(id, confirm)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if !deleted {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func GetCurrentCustomer(c *gin.Context) {
	id, ok := registry.Current()
	if !ok {
		utils.RespondWithError(c, http.StatusNotFound, "No current customer")
		return
	}

	customer, _ := registry.Get(id)
	c.JSON(http.StatusOK, gin.H{"id": id, "customer": customer})
}

func SetCurrentCustomer(c *gin.Context) {
	var input struct {
		ID string `json:"id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "id is required")
		return
	}

	id := utils.NormalizeCustomerID(input.ID)
	if _, ok := registry.Get(id); !ok {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	if err := registry.SetCurrent(id); err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

func ListArchives(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"archives": registry.ListArchives()})
}

func ArchiveCurrentCustomer(c *gin.Context) {
	key, err := registry.ArchiveCurrent()
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if key == "" {
		utils.RespondWithError(c, http.StatusNotFound, "No current customer to archive")
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key})
}

func LoadArchive(c *gin.Context) {
	var input struct {
		Key     string `json:"key" binding:"required"`
		Confirm bool   `json:"confirm"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "key is required")
		return
	}

	customer, err := registry.LoadArchive(input.Key, input.Confirm)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

func DeleteArchive(c *gin.Context) {
	key := c.Param("key")
	confirm := c.Query("confirm") == "true"

	deleted, err := registry.DeleteArchive(key, confirm)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if !deleted {
		utils.RespondWithError(c, http.StatusNotFound, "Archive not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": key})
}

// respondStoreError maps service-layer failures onto HTTP statuses so
// every handler reports them the same way.
func respondStoreError(c *gin.Context, err error) {
	var normErr *services.NormalizationError
	var importErr *services.ImportValidationError
	var parseErr *services.ParseError

	switch {
	case errors.Is(err, services.ErrConfirmationRequired):
		utils.RespondWithError(c, http.StatusConflict, "Confirmation is required for this operation")
	case errors.Is(err, store.ErrQuotaExceeded):
		utils.RespondWithError(c, http.StatusInsufficientStorage, "Storage quota exceeded")
	case errors.As(err, &normErr):
		utils.RespondWithError(c, http.StatusBadRequest, normErr.Error())
	case errors.As(err, &importErr):
		utils.RespondWithError(c, http.StatusBadRequest, importErr.Error())
	case errors.As(err, &parseErr):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, parseErr.Error())
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, err.Error())
	}
}
