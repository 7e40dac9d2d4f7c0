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

// DriverInput 定義司機檔案的輸入結構體
type DriverInput struct {
	UserID            int    `json:"user_id" binding:"required,gt=0"`
	LicenseNumber     string `json:"license_number" binding:"required,max=50"`
	LicenseCategories string `json:"license_categories"`
	LicenseExpiry     string `json:"license_expiry"`
	MedicalExpiry     string `json:"medical_expiry"`
	Active            *bool  `json:"active"`
	CompanyID         *int   `json:"company_id"`
}

func (in *DriverInput) apply(driver *models.Driver) error {
	driver.UserID = in.UserID
	driver.LicenseNumber = in.LicenseNumber
	if in.LicenseCategories != "" {
		driver.LicenseCategories = in.LicenseCategories
	}
	driver.CompanyID = in.CompanyID
	if in.Active != nil {
		driver.Active = *in.Active
	}
	driver.LicenseExpiry = nil
	if in.LicenseExpiry != "" {
		d, err := parseDate(in.LicenseExpiry)
		if err != nil {
			return errors.New("license_expiry must be YYYY-MM-DD")
		}
		driver.LicenseExpiry = &d
	}
	driver.MedicalExpiry = nil
	if in.MedicalExpiry != "" {
		d, err := parseDate(in.MedicalExpiry)
		if err != nil {
			return errors.New("medical_expiry must be YYYY-MM-DD")
		}
		driver.MedicalExpiry = &d
	}
	return nil
}

// CreateDriver 建立司機檔案（帳號須已存在，一個帳號只能有一份檔案）
func CreateDriver(c *gin.Context) {
	var input DriverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid driver input: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的輸入資料",
			"error":   "請提供帳號ID與駕照號碼",
			"code":    "ERR_INVALID_INPUT",
		})
		return
	}

	var user models.User
	if err := database.DB.First(&user, input.UserID).Error; err != nil {
		ErrorResponse(c, http.StatusBadRequest, "帳號不存在", "user not found")
		return
	}

	var count int64
	database.DB.Model(&models.Driver{}).Where("user_id = ?", input.UserID).Count(&count)
	if count > 0 {
		ErrorResponse(c, http.StatusBadRequest, "該帳號已有司機檔案", "driver profile already exists for this user")
		return
	}

	driver := models.Driver{Active: true}
	if err := input.apply(&driver); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的日期格式", err.Error())
		return
	}

	if err := database.DB.Create(&driver).Error; err != nil {
		log.Printf("Failed to create driver: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "建立司機檔案失敗", err.Error())
		return
	}

	driver.User = user
	SuccessResponse(c, http.StatusOK, "司機檔案建立成功", driver.ToResponse())
}

// GetAllDrivers 查詢司機列表，可用 ?active=true 過濾
func GetAllDrivers(c *gin.Context) {
	query := database.DB.Preload("User").Preload("Company")
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	var drivers []models.Driver
	if err := query.Find(&drivers).Error; err != nil {
		log.Printf("Failed to get drivers: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢司機失敗", err.Error())
		return
	}

	responses := make([]models.DriverResponse, len(drivers))
	for i := range drivers {
		responses[i] = drivers[i].ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetDriver 查詢單筆司機檔案
func GetDriver(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的司機ID", err.Error())
		return
	}

	var driver models.Driver
	if err := database.DB.Preload("User").Preload("Company").First(&driver, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "司機不存在", "driver not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢司機失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", driver.ToResponse())
}

// UpdateDriver 更新司機檔案
func UpdateDriver(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的司機ID", err.Error())
		return
	}

	var driver models.Driver
	if err := database.DB.Preload("User").First(&driver, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "司機不存在", "driver not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢司機失敗", err.Error())
		return
	}

	var input DriverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}
	if input.UserID != driver.UserID {
		ErrorResponse(c, http.StatusBadRequest, "無法變更帳號", "driver profile cannot be moved to another user")
		return
	}
	if err := input.apply(&driver); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的日期格式", err.Error())
		return
	}

	if err := database.DB.Save(&driver).Error; err != nil {
		log.Printf("Failed to update driver %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "更新司機檔案失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "司機檔案更新成功", driver.ToResponse())
}

// DeleteDriver 刪除司機檔案：交接單連帶刪除，預約保留（外鍵清空）
func DeleteDriver(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的司機ID", err.Error())
		return
	}

	var openCount int64
	database.DB.Model(&models.VehicleHandover{}).
		Where("driver_id = ? AND return_date IS NULL", id).
		Count(&openCount)
	if openCount > 0 {
		ErrorResponse(c, http.StatusBadRequest, "無法刪除", "該司機還有未歸還的交接單")
		return
	}

	result := database.DB.Delete(&models.Driver{}, id)
	if result.Error != nil {
		log.Printf("Failed to delete driver %d: %v", id, result.Error)
		ErrorResponse(c, http.StatusInternalServerError, "刪除司機失敗", result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		ErrorResponse(c, http.StatusNotFound, "司機不存在", "driver not found")
		return
	}

	SuccessResponse(c, http.StatusOK, "司機刪除成功", nil)
}
