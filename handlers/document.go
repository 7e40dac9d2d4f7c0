package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"fleetapi/database"
	"fleetapi/models"
	"fleetapi/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UploadVehicleDocument 上傳車輛附件。
// multipart 欄位：vehicle_id、title、description（選填）、file
func UploadVehicleDocument(c *gin.Context) {
	vehicleID, err := strconv.Atoi(c.PostForm("vehicle_id"))
	if err != nil || vehicleID <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛ID", "vehicle_id is required")
		return
	}
	title := c.PostForm("title")
	if title == "" {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "title is required")
		return
	}

	var vehicle models.Vehicle
	if err := database.DB.First(&vehicle, vehicleID).Error; err != nil {
		ErrorResponse(c, http.StatusBadRequest, "車輛不存在", "vehicle not found")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "未提供檔案", err.Error())
		return
	}

	relPath, err := utils.SaveUploadedFile(c, file, "documents")
	if err != nil {
		log.Printf("Failed to save vehicle document: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "檔案儲存失敗", err.Error())
		return
	}

	document := models.VehicleDocument{
		VehicleID:   vehicleID,
		Title:       title,
		FilePath:    relPath,
		Description: c.PostForm("description"),
	}
	if err := database.DB.Create(&document).Error; err != nil {
		utils.DeleteStoredFile(relPath)
		log.Printf("Failed to create vehicle document: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "新增附件失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "附件上傳成功", document.ToResponse())
}

// GetAllVehicleDocuments 查詢附件列表，可用 ?vehicle_id 過濾
func GetAllVehicleDocuments(c *gin.Context) {
	query := database.DB.Model(&models.VehicleDocument{})
	if vehicleID := c.Query("vehicle_id"); vehicleID != "" {
		query = query.Where("vehicle_id = ?", vehicleID)
	}

	var documents []models.VehicleDocument
	if err := query.Order("uploaded_at DESC").Find(&documents).Error; err != nil {
		log.Printf("Failed to get vehicle documents: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢附件失敗", err.Error())
		return
	}

	responses := make([]models.VehicleDocumentResponse, len(documents))
	for i := range documents {
		responses[i] = documents[i].ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetVehicleDocument 查詢單筆附件
func GetVehicleDocument(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的附件ID", err.Error())
		return
	}

	var document models.VehicleDocument
	if err := database.DB.First(&document, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "附件不存在", "document not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢附件失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", document.ToResponse())
}

// UpdateVehicleDocument 更新附件的標題與描述，檔案本身不可換（刪掉重傳）
func UpdateVehicleDocument(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的附件ID", err.Error())
		return
	}

	var document models.VehicleDocument
	if err := database.DB.First(&document, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "附件不存在", "document not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢附件失敗", err.Error())
		return
	}

	var input struct {
		Title       string `json:"title" binding:"required,max=200"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "title is required")
		return
	}

	document.Title = input.Title
	document.Description = input.Description
	if err := database.DB.Save(&document).Error; err != nil {
		log.Printf("Failed to update vehicle document %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "更新附件失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "附件更新成功", document.ToResponse())
}

// DeleteVehicleDocument 刪除附件，連同磁碟上的檔案
func DeleteVehicleDocument(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的附件ID", err.Error())
		return
	}

	var document models.VehicleDocument
	if err := database.DB.First(&document, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "附件不存在", "document not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢附件失敗", err.Error())
		return
	}

	if err := database.DB.Delete(&document).Error; err != nil {
		log.Printf("Failed to delete vehicle document %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "刪除附件失敗", err.Error())
		return
	}
	utils.DeleteStoredFile(document.FilePath)

	SuccessResponse(c, http.StatusOK, "附件刪除成功", nil)
}
