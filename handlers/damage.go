package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"fleetapi/database"
	"fleetapi/models"
	"fleetapi/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DamageEventInput 定義損壞事件的輸入結構體
type DamageEventInput struct {
	VehicleID         int     `json:"vehicle_id" binding:"required,gt=0"`
	Description       string  `json:"description" binding:"required"`
	EventDate         string  `json:"event_date" binding:"required"`
	EstimatedCost     float64 `json:"estimated_cost" binding:"gte=0"`
	ReportedToInsurer bool    `json:"reported_to_insurer"`
	RepairStatus      string  `json:"repair_status"`
}

// CreateDamageEvent 通報損壞事件，車輛狀態會在同一交易內重算
func CreateDamageEvent(c *gin.Context) {
	var input DamageEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid damage event input: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的輸入資料",
			"error":   "請提供車輛、描述與事件日期",
			"code":    "ERR_INVALID_INPUT",
		})
		return
	}

	eventDate, err := parseDate(input.EventDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的事件日期格式",
			"error":   "event_date must be YYYY-MM-DD",
			"code":    "ERR_INVALID_DATE_FORMAT",
		})
		return
	}

	event := models.DamageEvent{
		VehicleID:         input.VehicleID,
		Description:       input.Description,
		EventDate:         eventDate,
		EstimatedCost:     input.EstimatedCost,
		ReportedToInsurer: input.ReportedToInsurer,
		RepairStatus:      input.RepairStatus,
	}

	if err := services.CreateDamageEvent(database.DB, &event); err != nil {
		log.Printf("Failed to create damage event: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "通報損壞事件失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "損壞事件通報成功", event.ToResponse())
}

// GetAllDamageEvents 查詢損壞事件列表，可用 ?vehicle_id 過濾。
// 司機只看得到自己看得到的車的事件
func GetAllDamageEvents(c *gin.Context) {
	query := database.DB.Preload("Vehicle")

	if vehicleID := c.Query("vehicle_id"); vehicleID != "" {
		query = query.Where("vehicle_id = ?", vehicleID)
	}

	if c.GetString("role") == models.RoleDriver {
		ids, err := services.VisibleVehicleIDs(database.DB, c.GetInt("user_id"), true)
		if err != nil {
			ErrorResponse(c, http.StatusInternalServerError, "查詢損壞事件失敗", err.Error())
			return
		}
		query = query.Where("vehicle_id IN ?", ids)
	}

	var events []models.DamageEvent
	if err := query.Order("event_date DESC").Find(&events).Error; err != nil {
		log.Printf("Failed to get damage events: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢損壞事件失敗", err.Error())
		return
	}

	responses := make([]models.DamageEventResponse, len(events))
	for i := range events {
		responses[i] = events[i].ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetDamageEvent 查詢單筆損壞事件
func GetDamageEvent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的事件ID", err.Error())
		return
	}

	var event models.DamageEvent
	if err := database.DB.Preload("Vehicle").First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "損壞事件不存在", "damage event not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢損壞事件失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", event.ToResponse())
}

// UpdateDamageEvent 更新損壞事件（含處理狀態流轉），車輛狀態同交易重算
func UpdateDamageEvent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的事件ID", err.Error())
		return
	}

	var event models.DamageEvent
	if err := database.DB.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "損壞事件不存在", "damage event not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢損壞事件失敗", err.Error())
		return
	}

	var input DamageEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	eventDate, err := parseDate(input.EventDate)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的事件日期格式", "event_date must be YYYY-MM-DD")
		return
	}

	event.VehicleID = input.VehicleID
	event.Description = input.Description
	event.EventDate = eventDate
	event.EstimatedCost = input.EstimatedCost
	event.ReportedToInsurer = input.ReportedToInsurer
	if input.RepairStatus != "" {
		event.RepairStatus = input.RepairStatus
	}

	if err := services.UpdateDamageEvent(database.DB, &event); err != nil {
		log.Printf("Failed to update damage event %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "更新損壞事件失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "損壞事件更新成功", event.ToResponse())
}

// DeleteDamageEvent 刪除損壞事件，車輛狀態同交易重算
func DeleteDamageEvent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的事件ID", err.Error())
		return
	}

	if err := services.DeleteDamageEvent(database.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "損壞事件不存在", "damage event not found")
			return
		}
		log.Printf("Failed to delete damage event %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "刪除損壞事件失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "損壞事件刪除成功", nil)
}
