package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"fleetapi/models"

	"gorm.io/gorm"
)

// 未指派時的佔用人標記
const OccupantUnassigned = "unassigned"

// RecomputeVehicleStatus 重新計算並寫回車輛狀態，是 status 欄位唯一的寫入者。
// 優先序：unfit（有未結案損壞）> rented（有未歸還交接單）> fit。
// 損壞與交接兩邊的寫入操作都要在同一交易內呼叫這裡，避免互相覆蓋。
func RecomputeVehicleStatus(db *gorm.DB, vehicleID int) (string, error) {
	var blockingDamage int64
	if err := db.Model(&models.DamageEvent{}).
		Where("vehicle_id = ? AND repair_status IN (?, ?)", vehicleID, models.DamageReported, models.DamageInRepair).
		Count(&blockingDamage).Error; err != nil {
		return "", fmt.Errorf("failed to count open damage events: %w", err)
	}

	status := models.VehicleStatusFit
	if blockingDamage > 0 {
		status = models.VehicleStatusUnfit
	} else {
		var openHandovers int64
		if err := db.Model(&models.VehicleHandover{}).
			Where("vehicle_id = ? AND return_date IS NULL", vehicleID).
			Count(&openHandovers).Error; err != nil {
			return "", fmt.Errorf("failed to count open handovers: %w", err)
		}
		if openHandovers > 0 {
			status = models.VehicleStatusRented
		}
	}

	if err := db.Model(&models.Vehicle{}).
		Where("vehicle_id = ?", vehicleID).
		Update("status", status).Error; err != nil {
		return "", fmt.Errorf("failed to update vehicle status: %w", err)
	}
	return status, nil
}

// ResolveOccupant 解析某個日期下車輛的實際使用者。
// 優先序（高到低）：
//  1. 未歸還的交接單上的司機
//  2. 日期落在區間內且未退回的預約（無司機帳號時直接用申請人姓名）
//  3. 車輛的常駐指派人
//  4. unassigned
// 關聯資料已被刪除時往下一層退，不回錯誤
func ResolveOccupant(db *gorm.DB, vehicle *models.Vehicle, asOf time.Time) string {
	// 1. 未歸還的交接單
	var handover models.VehicleHandover
	err := db.Preload("Driver.User").
		Where("vehicle_id = ? AND return_date IS NULL", vehicle.VehicleID).
		Order("issue_date DESC").
		First(&handover).Error
	if err == nil {
		if handover.Driver.User.UserID != 0 {
			return handover.Driver.User.FullName()
		}
		// 司機帳號已刪，往下退
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to query open handover for vehicle %d: %v", vehicle.VehicleID, err)
	}

	// 2. 日期落在區間內的有效預約
	var reservations []models.Reservation
	if err := db.Preload("Driver.User").
		Where("assigned_vehicle_id = ? AND status <> ?", vehicle.VehicleID, models.ReservationRejected).
		Order("date_from").
		Find(&reservations).Error; err != nil {
		log.Printf("Failed to query reservations for vehicle %d: %v", vehicle.VehicleID, err)
	}
	for i := range reservations {
		r := &reservations[i]
		if !ContainsDate(r.DateFrom, r.DateTo, asOf) {
			continue
		}
		if r.Driver != nil && r.Driver.User.UserID != 0 {
			return r.Driver.User.FullName() + " (預約)"
		}
		if name := r.RequesterName(); name != "" {
			return name
		}
	}

	// 3. 常駐指派人
	if vehicle.AssignedUserID != nil {
		var user models.User
		if err := db.First(&user, *vehicle.AssignedUserID).Error; err == nil {
			return user.FullName()
		}
	}

	// 4. 都沒有
	return OccupantUnassigned
}

// VisibleVehicleIDs 計算司機角色可見的車輛集合：
// 常駐指派 ∪ 未歸還或尚未到期的交接單 ∪ 今天落在區間內的預約。
// includeHistory 開啟時改成聯集所有歷史交接與預約，
// 讓司機還車之後仍查得到損壞／保養歷史
func VisibleVehicleIDs(db *gorm.DB, userID int, includeHistory bool) ([]int, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	ids := map[int]struct{}{}

	// 常駐指派
	var assigned []int
	if err := db.Model(&models.Vehicle{}).
		Where("assigned_user_id = ?", userID).
		Pluck("vehicle_id", &assigned).Error; err != nil {
		return nil, fmt.Errorf("failed to query assigned vehicles: %w", err)
	}
	for _, id := range assigned {
		ids[id] = struct{}{}
	}

	// 司機檔案不存在就只剩常駐指派
	var driver models.Driver
	if err := db.Where("user_id = ?", userID).First(&driver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return mapKeys(ids), nil
		}
		return nil, fmt.Errorf("failed to query driver profile: %w", err)
	}

	// 交接單
	handoverQuery := db.Model(&models.VehicleHandover{}).Where("driver_id = ?", driver.DriverID)
	if !includeHistory {
		handoverQuery = handoverQuery.Where("return_date IS NULL OR return_date >= ?", today)
	}
	var handoverIDs []int
	if err := handoverQuery.Pluck("vehicle_id", &handoverIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to query handover vehicles: %w", err)
	}
	for _, id := range handoverIDs {
		ids[id] = struct{}{}
	}

	// 預約
	reservationQuery := db.Model(&models.Reservation{}).
		Where("driver_id = ? AND assigned_vehicle_id IS NOT NULL AND status <> ?", driver.DriverID, models.ReservationRejected)
	if !includeHistory {
		reservationQuery = reservationQuery.Where("date_from <= ? AND date_to >= ?", today, today)
	}
	var reservationIDs []int
	if err := reservationQuery.Pluck("assigned_vehicle_id", &reservationIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to query reservation vehicles: %w", err)
	}
	for _, id := range reservationIDs {
		ids[id] = struct{}{}
	}

	return mapKeys(ids), nil
}

func mapKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}
