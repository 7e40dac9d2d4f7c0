package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"fleetapi/database"
	"fleetapi/models"
	"fleetapi/services"
	"fleetapi/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HandoverInput 定義開立交接單的輸入結構體
type HandoverInput struct {
	DriverID     int     `json:"driver_id" binding:"required"`
	VehicleID    int     `json:"vehicle_id" binding:"required"`
	IssueDate    string  `json:"issue_date" binding:"required"`
	StartMileage float64 `json:"start_mileage" binding:"min=0"`
	StartFuel    float64 `json:"start_fuel" binding:"min=0,max=100"`
	Notes        string  `json:"notes"`
}

// CreateHandover 開立交接單
func CreateHandover(c *gin.Context) {
	var input HandoverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid handover input: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的輸入資料",
			"error":   "請提供司機、車輛與交付日期",
			"code":    "ERR_INVALID_INPUT",
		})
		return
	}

	issueDate, err := parseDate(input.IssueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的交付日期格式",
			"error":   "issue_date must be YYYY-MM-DD",
			"code":    "ERR_INVALID_DATE_FORMAT",
		})
		return
	}

	handover := models.VehicleHandover{
		DriverID:     input.DriverID,
		VehicleID:    input.VehicleID,
		IssueDate:    issueDate,
		StartMileage: input.StartMileage,
		StartFuel:    input.StartFuel,
		Notes:        input.Notes,
	}

	if err := services.IssueHandover(database.DB, &handover); err != nil {
		log.Printf("Failed to issue handover: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "開立交接單失敗",
			"error":   err.Error(),
			"code":    "ERR_HANDOVER_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "交接單開立成功",
		"data":    handover.ToResponse(),
	})
}

// CloseHandover 結案交接單（歸還車輛）。
// POST /handovers/:id/close，body: {"return_date": "...", "end_mileage": ..., "end_fuel": ...}
func CloseHandover(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的交接單ID", err.Error())
		return
	}

	var input struct {
		ReturnDate string  `json:"return_date" binding:"required"`
		EndMileage float64 `json:"end_mileage" binding:"min=0"`
		EndFuel    float64 `json:"end_fuel" binding:"min=0,max=100"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "請提供歸還日期、歸還里程與油量")
		return
	}

	returnDate, err := parseDate(input.ReturnDate)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的歸還日期格式", "return_date must be YYYY-MM-DD")
		return
	}

	handover, err := services.CloseHandover(database.DB, id, services.CloseHandoverInput{
		ReturnDate: returnDate,
		EndMileage: input.EndMileage,
		EndFuel:    input.EndFuel,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "交接單不存在", "handover not found")
			return
		}
		log.Printf("Failed to close handover %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "結案失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "車輛歸還成功", handover.ToResponse())
}

// GetAllHandovers 查詢交接單列表：司機只看自己的
func GetAllHandovers(c *gin.Context) {
	query := database.DB.Preload("Driver.User").Preload("Vehicle")

	if c.GetString("role") == models.RoleDriver {
		var driver models.Driver
		if err := database.DB.Where("user_id = ?", c.GetInt("user_id")).First(&driver).Error; err != nil {
			SuccessResponse(c, http.StatusOK, "查詢成功", []models.HandoverResponse{})
			return
		}
		query = query.Where("driver_id = ?", driver.DriverID)
	}
	if vehicleID := c.Query("vehicle_id"); vehicleID != "" {
		query = query.Where("vehicle_id = ?", vehicleID)
	}
	if c.Query("open") == "true" {
		query = query.Where("return_date IS NULL")
	}

	var handovers []models.VehicleHandover
	if err := query.Order("issue_date DESC").Find(&handovers).Error; err != nil {
		log.Printf("Failed to get handovers: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢交接單失敗", err.Error())
		return
	}

	responses := make([]models.HandoverResponse, len(handovers))
	for i := range handovers {
		responses[i] = handovers[i].ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetHandover 查詢單筆交接單
func GetHandover(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的交接單ID", err.Error())
		return
	}

	var handover models.VehicleHandover
	if err := database.DB.Preload("Driver.User").Preload("Vehicle").First(&handover, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "交接單不存在", "handover not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢交接單失敗", err.Error())
		return
	}

	if c.GetString("role") == models.RoleDriver {
		var driver models.Driver
		if err := database.DB.Where("user_id = ?", c.GetInt("user_id")).First(&driver).Error; err != nil ||
			handover.DriverID != driver.DriverID {
			ErrorResponse(c, http.StatusForbidden, "無權限", "you can only view your own handovers")
			return
		}
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", handover.ToResponse())
}

// UploadHandoverScan 上傳交接單掃描檔。
// PUT /handovers/:id/scan，multipart 欄位 field 指定 scan_agreement / scan_handover_protocol / scan_return_protocol
func UploadHandoverScan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的交接單ID", err.Error())
		return
	}

	var handover models.VehicleHandover
	if err := database.DB.First(&handover, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "交接單不存在", "handover not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢交接單失敗", err.Error())
		return
	}

	var target *string
	switch c.PostForm("field") {
	case "scan_agreement":
		target = &handover.ScanAgreement
	case "scan_handover_protocol":
		target = &handover.ScanHandoverProtocol
	case "scan_return_protocol":
		target = &handover.ScanReturnProtocol
	default:
		ErrorResponse(c, http.StatusBadRequest, "無效的欄位名稱", "field must be one of scan_agreement, scan_handover_protocol, scan_return_protocol")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "未提供檔案", err.Error())
		return
	}

	relPath, err := utils.SaveUploadedFile(c, file, "handovers")
	if err != nil {
		log.Printf("Failed to save handover scan: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "檔案儲存失敗", err.Error())
		return
	}

	old := *target
	*target = relPath
	if err := database.DB.Save(&handover).Error; err != nil {
		utils.DeleteStoredFile(relPath)
		ErrorResponse(c, http.StatusInternalServerError, "更新交接單失敗", err.Error())
		return
	}
	if old != "" {
		utils.DeleteStoredFile(old)
	}

	SuccessResponse(c, http.StatusOK, "掃描檔上傳成功", handover.ToResponse())
}

// DeleteHandover 刪除交接單，未歸還的單不允許刪
func DeleteHandover(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的交接單ID", err.Error())
		return
	}

	var handover models.VehicleHandover
	if err := database.DB.First(&handover, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "交接單不存在", "handover not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢交接單失敗", err.Error())
		return
	}
	if handover.IsOpen() {
		ErrorResponse(c, http.StatusBadRequest, "無法刪除", "未歸還的交接單不能刪除，請先結案")
		return
	}

	if err := database.DB.Delete(&handover).Error; err != nil {
		log.Printf("Failed to delete handover %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "刪除交接單失敗", err.Error())
		return
	}

	for _, path := range []string{handover.ScanAgreement, handover.ScanHandoverProtocol, handover.ScanReturnProtocol} {
		if path != "" {
			utils.DeleteStoredFile(path)
		}
	}

	SuccessResponse(c, http.StatusOK, "交接單刪除成功", nil)
}
