package handlers

import (
	"log"
	"net/http"

	"fleetapi/database"
	"fleetapi/models"
	"fleetapi/services"

	"github.com/gin-gonic/gin"
)

// GetSettings 查詢系統設定（單例，不存在會自動以預設值建立）
func GetSettings(c *gin.Context) {
	settings, err := services.GetSettings(database.DB)
	if err != nil {
		log.Printf("Failed to get settings: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢系統設定失敗", err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", settings)
}

// UpdateSettings 更新系統設定
func UpdateSettings(c *gin.Context) {
	var input struct {
		PerKmRate            float64 `json:"per_km_rate" binding:"gte=0"`
		MissingFuelSurcharge float64 `json:"missing_fuel_surcharge" binding:"gte=0"`
		DefaultFuelCapacity  float64 `json:"default_fuel_capacity" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的輸入資料",
			"error":   err.Error(),
			"code":    "ERR_INVALID_INPUT",
		})
		return
	}

	settings, err := services.UpdateSettings(database.DB, &models.AppSettings{
		PerKmRate:            input.PerKmRate,
		MissingFuelSurcharge: input.MissingFuelSurcharge,
		DefaultFuelCapacity:  input.DefaultFuelCapacity,
	})
	if err != nil {
		log.Printf("Failed to update settings: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "更新系統設定失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "系統設定更新成功", settings)
}
