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

// PolicyInput 定義保險單的輸入結構體
type PolicyInput struct {
	VehicleID    int     `json:"vehicle_id" binding:"required,gt=0"`
	PolicyNumber string  `json:"policy_number" binding:"required,max=100"`
	Insurer      string  `json:"insurer" binding:"max=100"`
	OCExpiry     string  `json:"oc_expiry" binding:"required"`
	ACExpiry     string  `json:"ac_expiry"`
	Cost         float64 `json:"cost" binding:"gte=0"`
}

func (in *PolicyInput) apply(policy *models.InsurancePolicy) error {
	ocExpiry, err := parseDate(in.OCExpiry)
	if err != nil {
		return errors.New("oc_expiry must be YYYY-MM-DD")
	}
	policy.VehicleID = in.VehicleID
	policy.PolicyNumber = in.PolicyNumber
	policy.Insurer = in.Insurer
	policy.OCExpiry = ocExpiry
	policy.Cost = in.Cost
	policy.ACExpiry = nil
	if in.ACExpiry != "" {
		acExpiry, err := parseDate(in.ACExpiry)
		if err != nil {
			return errors.New("ac_expiry must be YYYY-MM-DD")
		}
		policy.ACExpiry = &acExpiry
	}
	return nil
}

// CreatePolicy 新增保險單
func CreatePolicy(c *gin.Context) {
	var input PolicyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid policy input: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的輸入資料",
			"error":   "請提供車輛、保單號碼與強制險到期日",
			"code":    "ERR_INVALID_INPUT",
		})
		return
	}

	var policy models.InsurancePolicy
	if err := input.apply(&policy); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的日期格式", err.Error())
		return
	}

	var vehicle models.Vehicle
	if err := database.DB.First(&vehicle, policy.VehicleID).Error; err != nil {
		ErrorResponse(c, http.StatusBadRequest, "車輛不存在", "vehicle not found")
		return
	}

	if err := database.DB.Create(&policy).Error; err != nil {
		log.Printf("Failed to create policy: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "新增保險單失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "保險單新增成功", policy.ToResponse())
}

// GetAllPolicies 查詢保險單列表，可用 ?vehicle_id 過濾
func GetAllPolicies(c *gin.Context) {
	query := database.DB.Preload("Vehicle")
	if vehicleID := c.Query("vehicle_id"); vehicleID != "" {
		query = query.Where("vehicle_id = ?", vehicleID)
	}

	var policies []models.InsurancePolicy
	if err := query.Order("oc_expiry DESC").Find(&policies).Error; err != nil {
		log.Printf("Failed to get policies: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢保險單失敗", err.Error())
		return
	}

	responses := make([]models.InsurancePolicyResponse, len(policies))
	for i := range policies {
		responses[i] = policies[i].ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetPolicy 查詢單筆保險單
func GetPolicy(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的保單ID", err.Error())
		return
	}

	var policy models.InsurancePolicy
	if err := database.DB.Preload("Vehicle").First(&policy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "保險單不存在", "policy not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢保險單失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", policy.ToResponse())
}

// UpdatePolicy 更新保險單
func UpdatePolicy(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的保單ID", err.Error())
		return
	}

	var policy models.InsurancePolicy
	if err := database.DB.First(&policy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "保險單不存在", "policy not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢保險單失敗", err.Error())
		return
	}

	var input PolicyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}
	if err := input.apply(&policy); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的日期格式", err.Error())
		return
	}

	if err := database.DB.Save(&policy).Error; err != nil {
		log.Printf("Failed to update policy %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "更新保險單失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "保險單更新成功", policy.ToResponse())
}

// DeletePolicy 刪除保險單
func DeletePolicy(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的保單ID", err.Error())
		return
	}

	result := database.DB.Delete(&models.InsurancePolicy{}, id)
	if result.Error != nil {
		log.Printf("Failed to delete policy %d: %v", id, result.Error)
		ErrorResponse(c, http.StatusInternalServerError, "刪除保險單失敗", result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		ErrorResponse(c, http.StatusNotFound, "保險單不存在", "policy not found")
		return
	}

	SuccessResponse(c, http.StatusOK, "保險單刪除成功", nil)
}
