package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"fleetapi/database"
	"fleetapi/models"
	"fleetapi/services"
	"fleetapi/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// parseDate 解析 YYYY-MM-DD 日期字串
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// 車輛掃描欄位與 multipart 表單欄名的對照
var vehicleScanFields = map[string]func(*models.Vehicle) *string{
	"scan_registration_card": func(v *models.Vehicle) *string { return &v.ScanRegistrationCard },
	"scan_policy_oc":         func(v *models.Vehicle) *string { return &v.ScanPolicyOC },
	"scan_policy_ac":         func(v *models.Vehicle) *string { return &v.ScanPolicyAC },
	"scan_tech_inspection":   func(v *models.Vehicle) *string { return &v.ScanTechInspection },
	"scan_service_book":      func(v *models.Vehicle) *string { return &v.ScanServiceBook },
	"scan_purchase_invoice":  func(v *models.Vehicle) *string { return &v.ScanPurchaseInvoice },
}

// GetAllVehicles 查詢車輛列表：司機角色只看得到自己的可見集合，
// 每一列帶出解析後的佔用人
func GetAllVehicles(c *gin.Context) {
	roleStr := c.GetString("role")
	userID := c.GetInt("user_id")

	query := database.DB.Preload("Company")
	if roleStr == models.RoleDriver {
		ids, err := services.VisibleVehicleIDs(database.DB, userID, false)
		if err != nil {
			log.Printf("Failed to compute visible vehicles for user %d: %v", userID, err)
			ErrorResponse(c, http.StatusInternalServerError, "查詢失敗", err.Error())
			return
		}
		if len(ids) == 0 {
			SuccessResponse(c, http.StatusOK, "查詢成功", []models.VehicleResponse{})
			return
		}
		query = query.Where("vehicle_id IN ?", ids)
	}

	var vehicles []models.Vehicle
	if err := query.Find(&vehicles).Error; err != nil {
		log.Printf("Failed to get vehicles: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢車輛失敗", err.Error())
		return
	}

	now := time.Now()
	responses := make([]models.VehicleResponse, len(vehicles))
	for i := range vehicles {
		occupant := services.ResolveOccupant(database.DB, &vehicles[i], now)
		responses[i] = vehicles[i].ToResponse(occupant)
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetMyVehicles 司機查自己的車：含歷史交接與預約，還車後仍可見
func GetMyVehicles(c *gin.Context) {
	userID := c.GetInt("user_id")

	ids, err := services.VisibleVehicleIDs(database.DB, userID, true)
	if err != nil {
		log.Printf("Failed to compute visible vehicles for user %d: %v", userID, err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢失敗", err.Error())
		return
	}
	if len(ids) == 0 {
		SuccessResponse(c, http.StatusOK, "查詢成功", []models.VehicleResponse{})
		return
	}

	var vehicles []models.Vehicle
	if err := database.DB.Preload("Company").Where("vehicle_id IN ?", ids).Find(&vehicles).Error; err != nil {
		log.Printf("Failed to get vehicles: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢車輛失敗", err.Error())
		return
	}

	now := time.Now()
	responses := make([]models.VehicleResponse, len(vehicles))
	for i := range vehicles {
		responses[i] = vehicles[i].ToResponse(services.ResolveOccupant(database.DB, &vehicles[i], now))
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// GetVehicle 查詢單一車輛
func GetVehicle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛ID", err.Error())
		return
	}

	var vehicle models.Vehicle
	if err := database.DB.Preload("Company").First(&vehicle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "車輛不存在", "vehicle not found")
			return
		}
		log.Printf("Failed to get vehicle %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢車輛失敗", err.Error())
		return
	}

	occupant := services.ResolveOccupant(database.DB, &vehicle, time.Now())
	SuccessResponse(c, http.StatusOK, "查詢成功", vehicle.ToResponse(occupant))
}

// CreateVehicle 建立車輛資料檢查
func CreateVehicle(c *gin.Context) {
	var vehicle models.Vehicle
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		log.Printf("Invalid vehicle input: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}

	if err := services.CreateVehicle(database.DB, &vehicle); err != nil {
		log.Printf("Failed to create vehicle: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "建立車輛失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "車輛建立成功", vehicle.ToResponse(services.OccupantUnassigned))
}

// UpdateVehicle 更新車輛：一般欄位走 JSON 欄位更新，
// 掃描文件另外支援 remove_<欄位> 旗標，刪檔並清空欄位。
// status 與 assigned_user_id 不開放直接改
func UpdateVehicle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛ID", err.Error())
		return
	}

	var vehicle models.Vehicle
	if err := database.DB.First(&vehicle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "車輛不存在", "vehicle not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢車輛失敗", err.Error())
		return
	}

	var updatedFields map[string]interface{}
	if err := c.ShouldBindJSON(&updatedFields); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error())
		return
	}
	if len(updatedFields) == 0 {
		ErrorResponse(c, http.StatusBadRequest, "未提供任何更新字段", "empty update")
		return
	}

	// 先處理 remove_* 旗標
	var removedPaths []string
	for field, getter := range vehicleScanFields {
		flag, ok := updatedFields["remove_"+field]
		delete(updatedFields, "remove_"+field)
		if !ok {
			continue
		}
		if b, ok := flag.(bool); ok && b {
			ptr := getter(&vehicle)
			if *ptr != "" {
				removedPaths = append(removedPaths, *ptr)
			}
			updatedFields[field] = ""
		}
	}

	// 這兩個欄位由服務層維護
	delete(updatedFields, "status")
	delete(updatedFields, "assigned_user_id")

	if vin, ok := updatedFields["vin"].(string); ok {
		probe := vehicle
		probe.VIN = vin
		if err := services.ValidateVehicle(&probe); err != nil {
			ErrorResponse(c, http.StatusBadRequest, "無效的 VIN", err.Error())
			return
		}
	}
	if mileage, ok := updatedFields["mileage"].(float64); ok && mileage < 0 {
		ErrorResponse(c, http.StatusBadRequest, "里程不能為負值", "mileage must be >= 0")
		return
	}

	if err := database.DB.Model(&vehicle).Updates(updatedFields).Error; err != nil {
		log.Printf("Failed to update vehicle %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "更新車輛失敗", err.Error())
		return
	}

	// 更新成功才刪檔
	for _, path := range removedPaths {
		utils.DeleteStoredFile(path)
	}

	if err := database.DB.Preload("Company").First(&vehicle, id).Error; err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "載入車輛資料失敗", err.Error())
		return
	}
	occupant := services.ResolveOccupant(database.DB, &vehicle, time.Now())
	SuccessResponse(c, http.StatusOK, "車輛更新成功", vehicle.ToResponse(occupant))
}

// DeleteVehicle 刪除車輛資料檢查
func DeleteVehicle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛ID", err.Error())
		return
	}

	if err := services.DeleteVehicle(database.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "車輛不存在", "vehicle not found")
			return
		}
		log.Printf("Failed to delete vehicle %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "刪除車輛失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "車輛刪除成功", nil)
}

// GetVehicleHistory 查詢車輛完整歷史
func GetVehicleHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛ID", err.Error())
		return
	}

	// 司機只能看自己可見集合內的車（含歷史）
	if c.GetString("role") == models.RoleDriver {
		ids, err := services.VisibleVehicleIDs(database.DB, c.GetInt("user_id"), true)
		if err != nil {
			ErrorResponse(c, http.StatusInternalServerError, "查詢失敗", err.Error())
			return
		}
		allowed := false
		for _, vid := range ids {
			if vid == id {
				allowed = true
				break
			}
		}
		if !allowed {
			ErrorResponse(c, http.StatusForbidden, "無權限", "you can only view vehicles assigned to you")
			return
		}
	}

	history, err := services.GetVehicleHistory(database.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "車輛不存在", "vehicle not found")
			return
		}
		log.Printf("Failed to get vehicle history for %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢歷史失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", history)
}

// UploadVehicleScan 上傳車輛掃描文件。
// PUT /vehicles/:id/scan，multipart 欄位 field 指定目標欄位（見 vehicleScanFields）
func UploadVehicleScan(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛ID", err.Error())
		return
	}

	var vehicle models.Vehicle
	if err := database.DB.First(&vehicle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "車輛不存在", "vehicle not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "查詢車輛失敗", err.Error())
		return
	}

	getter, ok := vehicleScanFields[c.PostForm("field")]
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, "無效的欄位名稱", "unknown scan field")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "未提供檔案", err.Error())
		return
	}

	relPath, err := utils.SaveUploadedFile(c, file, "vehicles")
	if err != nil {
		log.Printf("Failed to save vehicle scan: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "檔案儲存失敗", err.Error())
		return
	}

	ptr := getter(&vehicle)
	old := *ptr
	*ptr = relPath
	if err := database.DB.Save(&vehicle).Error; err != nil {
		utils.DeleteStoredFile(relPath)
		ErrorResponse(c, http.StatusInternalServerError, "更新車輛失敗", err.Error())
		return
	}
	if old != "" {
		utils.DeleteStoredFile(old)
	}

	occupant := services.ResolveOccupant(database.DB, &vehicle, time.Now())
	SuccessResponse(c, http.StatusOK, "掃描文件上傳成功", vehicle.ToResponse(occupant))
}

// GetVehicleAvailability 查詢車輛在指定時段是否可約
// GET /vehicles/:id/availability?start=YYYY-MM-DD&end=YYYY-MM-DD&exclude_id=N
func GetVehicleAvailability(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的車輛ID", err.Error())
		return
	}

	start, err := parseDate(c.Query("start"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的開始日期", "start must be YYYY-MM-DD")
		return
	}
	end, err := parseDate(c.Query("end"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的結束日期", "end must be YYYY-MM-DD")
		return
	}
	if start.After(end) {
		ErrorResponse(c, http.StatusBadRequest, "開始日期不能晚於結束日期", "start must be <= end")
		return
	}

	excludeID := 0
	if s := c.Query("exclude_id"); s != "" {
		excludeID, err = strconv.Atoi(s)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "無效的 exclude_id", err.Error())
			return
		}
	}

	availability, err := services.CheckVehicleAvailability(database.DB, id, start, end, excludeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusNotFound, "車輛不存在", "vehicle not found")
			return
		}
		log.Printf("Failed to check availability for vehicle %d: %v", id, err)
		ErrorResponse(c, http.StatusInternalServerError, "查詢失敗", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", availability)
}
