package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"fleetapi/database"
	"fleetapi/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ServiceEventInput 定義保養維修紀錄的輸入結構體
type ServiceEventInput struct {
	VehicleID   int     `json:"vehicle_id" binding:"required,gt=0"`
	Description string  `json:"description" binding:"required"`
	ServiceDate string  `json:"service_date" binding:"required"`
	Cost        float64 `json:"cost" binding:"gte=0"`
	EventType   string  `json:"event_type"`
}

func isServiceEventType(t string) bool {
	for _, v := range models.ServiceEventTypes {
		if v == t {
			return true
		}
	}
	return false
}

// CreateServiceEvent 新增保養維修紀錄
func CreateServiceEvent(c *gin.Context) {
	var input ServiceEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid service event input: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的輸入資料",
			"error":   "請提供車輛、描述與服務日期",
			"code":    "ERR_INVALID_INPUT",
		})
		return
	}

	serviceDate, err := parseDate(input.ServiceDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的服務日期格式",
			"error":   "service_date must be YYYY-MM-DD",
			"code":    "ERR_INVALID_DATE_FORMAT",
		})
		return
	}

	if input.EventType == "" {
		input.EventType = "repair"
	}
	if !isServiceEventType(input.EventType) {
		ErrorResponse(c, http.StatusBadRequest, "無效的事件類型", "event_type must be one of inspection, repair, periodic_check, tech_exam, calibration")
		return
	}

	event := models.ServiceEvent{
		VehicleID:   input.VehicleID,
		Description: input.Description,
		ServiceDate: serviceDate,
		Cost:        input.Cost,
		EventType:   input.EventType,
	}

	var vehicle models.Vehicle
	if err := database.DB.First(&vehicle, event.VehicleID).Error; err != nil {
		ErrorResponse(c, http.StatusBadRequest, "車輛不存在", "vehicle not found")
		return
	}

	if err := database.DB.Create(&event).Error; err != nil {
		log.Printf("Failed to create service event: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "新增保養紀錄失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "保養紀錄新增成功", event.ToResponse())
}

// GetAllServiceEvents 查詢保養維修紀錄，可用 ?vehicle_id 過濾
func GetAllServiceEvents(c *gin.Context) {
	query := database.DB.Preload("Vehicle")
	if vehicleID := c.Query("vehicle_id"); vehicleID != "" {
		query = query.Where("vehicle_id = ?", vehicleID)
	}

	var events []models.ServiceEvent
	if err := query.Order("service_date DESC").Find(&events).Error; err != nil {
		log.Printf("Failed to get service events: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢保養紀錄失敗", err.Error())
		return
	}

	responses := make([]models.ServiceEventResponse, len(events))
	for i := range events {
		responses[i] = events[i].ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetServiceEvent 查詢單筆保養維修紀錄
func GetServiceEvent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的紀錄ID", err.Error())
		return
	}

	var event models.ServiceEvent
	if err := database.DB.Preload("Vehicle").First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "保養紀錄不存在", "service event not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢保養紀錄失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", event.ToResponse())
}

// UpdateServiceEvent 更新保養維修紀錄
func UpdateServiceEvent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的紀錄ID", err.Error())
		return
	}

	var event models.ServiceEvent
	if err := database.DB.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "保養紀錄不存在", "service event not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢保養紀錄失敗", err.Error())
		return
	}

	var input ServiceEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	serviceDate, err := parseDate(input.ServiceDate)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的服務日期格式", "service_date must be YYYY-MM-DD")
		return
	}
	if input.EventType != "" && !isServiceEventType(input.EventType) {
		ErrorResponse(c, http.StatusBadRequest, "無效的事件類型", "unknown event_type")
		return
	}

	event.VehicleID = input.VehicleID
	event.Description = input.Description
	event.ServiceDate = serviceDate
	event.Cost = input.Cost
	if input.EventType != "" {
		event.EventType = input.EventType
	}

	if err := database.DB.Save(&event).Error; err != nil {
		log.Printf("Failed to update service event %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "更新保養紀錄失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "保養紀錄更新成功", event.ToResponse())
}

// DeleteServiceEvent 刪除保養維修紀錄
func DeleteServiceEvent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的紀錄ID", err.Error())
		return
	}

	result := database.DB.Delete(&models.ServiceEvent{}, id)
	if result.Error != nil {
		log.Printf("Failed to delete service event %d: %v", id, result.Error)
		ErrorResponse(c, http.StatusInternalServerError, "刪除保養紀錄失敗", result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		ErrorResponse(c, http.StatusNotFound, "保養紀錄不存在", "service event not found")
		return
	}

	SuccessResponse(c, http.StatusOK, "保養紀錄刪除成功", nil)
}
