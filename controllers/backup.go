package controllers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xrkr80hd/EZApp/utils"
)

// ExportCustomerJSON returns a single customer's full record, every tool
// slot included, ready to be saved or moved to another device.
func ExportCustomerJSON(c *gin.Context) {
	id := utils.NormalizeCustomerID(c.Param("id"))

	export, err := engine.ExportCustomer(id)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=EZApp_%s_%s.json",
		utils.SanitizeFilePart(id), utils.DayStamp(time.Now())))
	c.JSON(http.StatusOK, export)
}

// ExportCustomerZip packages a customer's framed photos, survey and
// measurements into a downloadable zip archive.
func ExportCustomerZip(c *gin.Context) {
	id := utils.NormalizeCustomerID(c.Param("id"))

	data, err := engine.ExportCustomerZip(id)
	if err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	filename := fmt.Sprintf("EZApp_%s_%s.zip", utils.SanitizeFilePart(id), utils.DayStamp(time.Now()))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/zip", data)
}

// ExportFullBackup walks the whole store and returns one classified
// backup document. Nothing is dropped; unrecognized keys land in rawData.
func ExportFullBackup(c *gin.Context) {
	backup := engine.ExportFullBackup()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=EZApp_Backup_%s.json",
		utils.DayStamp(time.Now())))
	c.JSON(http.StatusOK, backup)
}

// ImportBackup restores a full backup document. The import is all or
// nothing: validation failures abort before anything is written, and an
// existing current customer must be confirmed away (it is archived first).
func ImportBackup(c *gin.Context) {
	confirm := c.Query("confirm") == "true"

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Request body is required")
		return
	}

	result, err := engine.ImportBundle(raw, confirm)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"restored": result.RestoredCount})
}

func GetStorageStats(c *gin.Context) {
	c.JSON(http.StatusOK, engine.StorageStats())
}
