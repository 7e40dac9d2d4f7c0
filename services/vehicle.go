package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"fleetapi/models"
	"fleetapi/utils"

	"gorm.io/gorm"
)

// VIN：17 碼英數字
var vinRegex = regexp.MustCompile(`^[A-Za-z0-9]{17}$`)

// ValidateVehicle 檢查車輛欄位的硬性限制
func ValidateVehicle(vehicle *models.Vehicle) error {
	if !vinRegex.MatchString(vehicle.VIN) {
		return fmt.Errorf("VIN 必須是 17 碼英數字")
	}
	if vehicle.Mileage < 0 {
		return fmt.Errorf("里程不能為負值")
	}
	return nil
}

// CreateVehicle 建立車輛，VIN 不可重複
func CreateVehicle(db *gorm.DB, vehicle *models.Vehicle) error {
	if err := ValidateVehicle(vehicle); err != nil {
		return err
	}

	var existing models.Vehicle
	if err := db.Where("vin = ?", vehicle.VIN).First(&existing).Error; err == nil {
		return fmt.Errorf("VIN %s 已存在", vehicle.VIN)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for duplicate VIN: %w", err)
	}

	if vehicle.Status == "" {
		vehicle.Status = models.VehicleStatusFit
	}
	if err := db.Create(vehicle).Error; err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	log.Printf("Created vehicle %d (%s)", vehicle.VehicleID, vehicle.RegistrationNumber)
	return nil
}

// DeleteVehicle 刪除車輛與所有子紀錄，並清掉磁碟上的掃描檔。
// 引用此車的預約保留，外鍵由資料庫清空
func DeleteVehicle(db *gorm.DB, vehicleID int) error {
	var vehicle models.Vehicle
	if err := db.Preload("Documents").First(&vehicle, vehicleID).Error; err != nil {
		return err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// 子表逐一清掉，避免依賴 DB 層的 cascade 設定
		children := []interface{}{
			&models.VehicleHandover{}, &models.DamageEvent{}, &models.ServiceEvent{},
			&models.InsurancePolicy{}, &models.VehicleDocument{},
		}
		for _, child := range children {
			if err := tx.Where("vehicle_id = ?", vehicleID).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to delete vehicle children: %w", err)
			}
		}

		if err := tx.Model(&models.Reservation{}).
			Where("assigned_vehicle_id = ?", vehicleID).
			Update("assigned_vehicle_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach reservations: %w", err)
		}

		if err := tx.Delete(&vehicle).Error; err != nil {
			return fmt.Errorf("failed to delete vehicle: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 交易成功後才動磁碟
	for _, path := range []string{
		vehicle.ScanRegistrationCard, vehicle.ScanPolicyOC, vehicle.ScanPolicyAC,
		vehicle.ScanTechInspection, vehicle.ScanServiceBook, vehicle.ScanPurchaseInvoice,
	} {
		utils.DeleteStoredFile(path)
	}
	for _, doc := range vehicle.Documents {
		utils.DeleteStoredFile(doc.FilePath)
	}

	log.Printf("Deleted vehicle %d (%s) with all child records", vehicleID, vehicle.RegistrationNumber)
	return nil
}

// VehicleAvailability 單一車輛在某個時段是否可約
type VehicleAvailability struct {
	Available bool                `json:"available"`
	Conflict  *models.Reservation `json:"-"`
	Message   string              `json:"message,omitempty"`
}

// CheckVehicleAvailability 查詢車輛在 [start,end] 是否可約，唯讀不落鎖
func CheckVehicleAvailability(db *gorm.DB, vehicleID int, start, end time.Time, excludeID int) (*VehicleAvailability, error) {
	var vehicle models.Vehicle
	if err := db.First(&vehicle, vehicleID).Error; err != nil {
		return nil, err
	}

	conflict, err := CheckReservationConflict(db, vehicleID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		ce := &ConflictError{
			RegistrationNumber: vehicle.RegistrationNumber,
			ConflictFrom:       conflict.DateFrom,
			ConflictTo:         conflict.DateTo,
		}
		return &VehicleAvailability{Available: false, Conflict: conflict, Message: ce.Error()}, nil
	}
	return &VehicleAvailability{Available: true}, nil
}

// VehicleHistory 車輛完整歷史：保養、損壞、保單、交接
type VehicleHistory struct {
	Vehicle       models.VehicleResponse           `json:"vehicle"`
	ServiceEvents []models.ServiceEventResponse    `json:"service_events"`
	DamageEvents  []models.DamageEventResponse     `json:"damage_events"`
	Policies      []models.InsurancePolicyResponse `json:"policies"`
	Handovers     []models.HandoverResponse        `json:"handovers"`
}

// GetVehicleHistory 彙整車輛歷史資料
func GetVehicleHistory(db *gorm.DB, vehicleID int) (*VehicleHistory, error) {
	var vehicle models.Vehicle
	if err := db.Preload("Company").First(&vehicle, vehicleID).Error; err != nil {
		return nil, err
	}

	history := &VehicleHistory{
		Vehicle: vehicle.ToResponse(ResolveOccupant(db, &vehicle, time.Now())),
	}

	var serviceEvents []models.ServiceEvent
	if err := db.Preload("Vehicle").Where("vehicle_id = ?", vehicleID).
		Order("service_date DESC").Find(&serviceEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to load service history: %w", err)
	}
	for i := range serviceEvents {
		history.ServiceEvents = append(history.ServiceEvents, serviceEvents[i].ToResponse())
	}

	var damageEvents []models.DamageEvent
	if err := db.Preload("Vehicle").Where("vehicle_id = ?", vehicleID).
		Order("event_date DESC").Find(&damageEvents).Error; err != nil {
		return nil, fmt.Errorf("failed to load damage history: %w", err)
	}
	for i := range damageEvents {
		history.DamageEvents = append(history.DamageEvents, damageEvents[i].ToResponse())
	}

	var policies []models.InsurancePolicy
	if err := db.Preload("Vehicle").Where("vehicle_id = ?", vehicleID).
		Order("oc_expiry DESC").Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	for i := range policies {
		history.Policies = append(history.Policies, policies[i].ToResponse())
	}

	var handovers []models.VehicleHandover
	if err := db.Preload("Driver.User").Preload("Vehicle").Where("vehicle_id = ?", vehicleID).
		Order("issue_date DESC").Find(&handovers).Error; err != nil {
		return nil, fmt.Errorf("failed to load handovers: %w", err)
	}
	for i := range handovers {
		history.Handovers = append(history.Handovers, handovers[i].ToResponse())
	}

	return history, nil
}
