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

// ReservationInput 定義用於綁定預約請求的輸入結構體
type ReservationInput struct {
	FirstName         string `json:"first_name" binding:"required,max=100"`
	LastName          string `json:"last_name" binding:"required,max=100"`
	Company           string `json:"company" binding:"max=200"`
	DateFrom          string `json:"date_from" binding:"required"`
	DateTo            string `json:"date_to" binding:"required"`
	VehicleType       string `json:"vehicle_type"`
	AssignedVehicleID *int   `json:"assigned_vehicle_id"`
	DriverID          *int   `json:"driver_id"`
	AdditionalInfo    string `json:"additional_info"`
}

// CreateReservation 建立預約資料檢查。
// 司機角色沒帶 driver_id 時自動掛上自己的司機檔案
func CreateReservation(c *gin.Context) {
	var input ReservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid reservation input: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的輸入資料",
			"error":   "請提供申請人姓名與起訖日期",
			"code":    "ERR_INVALID_INPUT",
		})
		return
	}

	dateFrom, err := parseDate(input.DateFrom)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的開始日期格式",
			"error":   "date_from must be YYYY-MM-DD",
			"code":    "ERR_INVALID_DATE_FORMAT",
		})
		return
	}
	dateTo, err := parseDate(input.DateTo)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的結束日期格式",
			"error":   "date_to must be YYYY-MM-DD",
			"code":    "ERR_INVALID_DATE_FORMAT",
		})
		return
	}
	if dateFrom.After(dateTo) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "開始日期不能晚於結束日期",
			"error":   "date_from must be <= date_to",
			"code":    "ERR_INVALID_DATE",
		})
		return
	}

	reservation := models.Reservation{
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Company:           input.Company,
		DateFrom:          dateFrom,
		DateTo:            dateTo,
		VehicleType:       input.VehicleType,
		AssignedVehicleID: input.AssignedVehicleID,
		DriverID:          input.DriverID,
		AdditionalInfo:    input.AdditionalInfo,
		Status:            models.ReservationPending,
	}

	// 司機自己送的預約掛上自己的檔案
	if c.GetString("role") == models.RoleDriver && reservation.DriverID == nil {
		var driver models.Driver
		if err := database.DB.Where("user_id = ?", c.GetInt("user_id")).First(&driver).Error; err == nil {
			reservation.DriverID = &driver.DriverID
		}
	}

	if err := services.CreateReservation(database.DB, &reservation); err != nil {
		var conflict *services.ConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  false,
				"message": "車輛在指定時間範圍內不可用",
				"error":   conflict.Error(),
				"code":    "ERR_TIME_OVERLAP",
			})
			return
		}
		log.Printf("Failed to create reservation: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "建立預約失敗",
			"error":   err.Error(),
			"code":    "ERR_RESERVE_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "預約建立成功",
		"data":    reservation.ToResponse(),
	})
}

// GetAllReservations 查詢預約列表：司機只看自己的，管理層看全部
func GetAllReservations(c *gin.Context) {
	query := database.DB.Preload("AssignedVehicle").Preload("Driver.User")

	if c.GetString("role") == models.RoleDriver {
		var driver models.Driver
		if err := database.DB.Where("user_id = ?", c.GetInt("user_id")).First(&driver).Error; err != nil {
			SuccessResponse(c, http.StatusOK, "查詢成功", []models.ReservationResponse{})
			return
		}
		query = query.Where("driver_id = ?", driver.DriverID)
	}

	var reservations []models.Reservation
	if err := query.Order("date_from DESC").Find(&reservations).Error; err != nil {
		log.Printf("Failed to get reservations: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢預約失敗", err.Error())
		return
	}

	responses := make([]models.ReservationResponse, len(reservations))
	for i := range reservations {
		responses[i] = reservations[i].ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetReservation 查詢單筆預約
func GetReservation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的預約ID", err.Error())
		return
	}

	var reservation models.Reservation
	if err := database.DB.Preload("AssignedVehicle").Preload("Driver.User").First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "預約不存在", "reservation not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢預約失敗", err.Error())
		return
	}

	// 司機只能看自己的預約
	if c.GetString("role") == models.RoleDriver {
		var driver models.Driver
		if err := database.DB.Where("user_id = ?", c.GetInt("user_id")).First(&driver).Error; err != nil ||
			reservation.DriverID == nil || *reservation.DriverID != driver.DriverID {
			ErrorResponse(c, http.StatusForbidden, "無權限", "you can only view your own reservations")
			return
		}
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", reservation.ToResponse())
}

// UpdateReservation 編輯預約，重新驗證衝突時排除自己
func UpdateReservation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的預約ID", err.Error())
		return
	}

	var reservation models.Reservation
	if err := database.DB.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "預約不存在", "reservation not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢預約失敗", err.Error())
		return
	}

	if reservation.Status == models.ReservationApproved || reservation.Status == models.ReservationRejected {
		ErrorResponse(c, http.StatusBadRequest, "無法編輯", "已核准或已退回的預約不能再修改")
		return
	}

	var input ReservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	dateFrom, err := parseDate(input.DateFrom)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的開始日期格式", "date_from must be YYYY-MM-DD")
		return
	}
	dateTo, err := parseDate(input.DateTo)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的結束日期格式", "date_to must be YYYY-MM-DD")
		return
	}

	reservation.FirstName = input.FirstName
	reservation.LastName = input.LastName
	reservation.Company = input.Company
	reservation.DateFrom = dateFrom
	reservation.DateTo = dateTo
	reservation.VehicleType = input.VehicleType
	reservation.AssignedVehicleID = input.AssignedVehicleID
	reservation.DriverID = input.DriverID
	reservation.AdditionalInfo = input.AdditionalInfo

	if err := services.UpdateReservation(database.DB, &reservation); err != nil {
		var conflict *services.ConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  false,
				"message": "車輛在指定時間範圍內不可用",
				"error":   conflict.Error(),
				"code":    "ERR_TIME_OVERLAP",
			})
			return
		}
		log.Printf("Failed to update reservation %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "更新預約失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "預約更新成功", reservation.ToResponse())
}

// TransitionReservationStatus 預約狀態流轉。
// PUT /reservations/:id/status，body: {"status": "approved"}。
// 轉 approved 會在同一交易內自動產生交接單（重送不會重複產生）
func TransitionReservationStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的預約ID", err.Error())
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "請提供目標狀態")
		return
	}

	reservation, err := services.TransitionReservationStatus(database.DB, id, input.Status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "預約不存在", "reservation not found")
			return
		}
		var conflict *services.ConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  false,
				"message": "車輛在指定時間範圍內不可用",
				"error":   conflict.Error(),
				"code":    "ERR_TIME_OVERLAP",
			})
			return
		}
		log.Printf("Failed to transition reservation %d to %s: %v", id, input.Status, err)
		ErrorResponse(c, http.StatusBadRequest, "狀態變更失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "狀態變更成功", reservation.ToResponse())
}

// DeleteReservation 刪除預約（只允許管理層）
func DeleteReservation(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的預約ID", err.Error())
		return
	}

	result := database.DB.Delete(&models.Reservation{}, id)
	if result.Error != nil {
		log.Printf("Failed to delete reservation %d: %v", id, result.Error)
		ErrorResponse(c, http.StatusInternalServerError, "刪除預約失敗", result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		ErrorResponse(c, http.StatusNotFound, "預約不存在", "reservation not found")
		return
	}

	SuccessResponse(c, http.StatusOK, "預約刪除成功", nil)
}
