package services

import (
	"fmt"
	"sort"

	"fleetapi/models"

	"gorm.io/gorm"
)

// isDamageStatus 檢查處理狀態是否合法
func isDamageStatus(s string) bool {
	switch s {
	case models.DamageReported, models.DamageQuoting, models.DamageInRepair, models.DamageClosed:
		return true
	}
	return false
}

// CreateDamageEvent 新增損壞事件並重算車輛狀態
func CreateDamageEvent(db *gorm.DB, event *models.DamageEvent) error {
	if event.RepairStatus == "" {
		event.RepairStatus = models.DamageReported
	}
	if !isDamageStatus(event.RepairStatus) {
		return fmt.Errorf("無效的處理狀態: %s", event.RepairStatus)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockVehicleRow(tx, event.VehicleID); err != nil {
			return fmt.Errorf("vehicle %d not found", event.VehicleID)
		}
		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to create damage event: %w", err)
		}
		_, err := RecomputeVehicleStatus(tx, event.VehicleID)
		return err
	})
}

// UpdateDamageEvent 更新損壞事件並重算車輛狀態。
// 事件改掛到別台車時，新舊兩台都要鎖定並重算，原車才不會殘留 unfit
func UpdateDamageEvent(db *gorm.DB, event *models.DamageEvent) error {
	if !isDamageStatus(event.RepairStatus) {
		return fmt.Errorf("無效的處理狀態: %s", event.RepairStatus)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var stored models.DamageEvent
		if err := tx.First(&stored, event.DamageEventID).Error; err != nil {
			return err
		}

		vehicleIDs := []int{event.VehicleID}
		if stored.VehicleID != event.VehicleID {
			vehicleIDs = append(vehicleIDs, stored.VehicleID)
		}
		// 固定由小到大鎖定，避免兩筆互換車輛的更新互相死鎖
		sort.Ints(vehicleIDs)
		for _, vehicleID := range vehicleIDs {
			if _, err := lockVehicleRow(tx, vehicleID); err != nil {
				return fmt.Errorf("vehicle %d not found", vehicleID)
			}
		}

		if err := tx.Save(event).Error; err != nil {
			return fmt.Errorf("failed to update damage event: %w", err)
		}
		for _, vehicleID := range vehicleIDs {
			if _, err := RecomputeVehicleStatus(tx, vehicleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteDamageEvent 刪除損壞事件並重算車輛狀態
func DeleteDamageEvent(db *gorm.DB, eventID int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var event models.DamageEvent
		if err := tx.First(&event, eventID).Error; err != nil {
			return err
		}
		if _, err := lockVehicleRow(tx, event.VehicleID); err != nil {
			return fmt.Errorf("vehicle %d not found", event.VehicleID)
		}
		if err := tx.Delete(&event).Error; err != nil {
			return fmt.Errorf("failed to delete damage event: %w", err)
		}
		_, err := RecomputeVehicleStatus(tx, event.VehicleID)
		return err
	})
}
