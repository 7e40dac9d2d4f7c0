package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"fleetapi/models"

	"gorm.io/gorm"
)

// IssueHandover 開立交接單（車輛交付司機）。
// 同一台車只能有一張未歸還的交接單，檢查與寫入收在同一交易的鎖內。
// 副作用：車輛常駐指派人改成該司機、狀態重算（通常變 rented）
func IssueHandover(db *gorm.DB, handover *models.VehicleHandover) error {
	return db.Transaction(func(tx *gorm.DB) error {
		vehicle, err := lockVehicleRow(tx, handover.VehicleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("vehicle %d not found", handover.VehicleID)
			}
			return fmt.Errorf("failed to lock vehicle: %w", err)
		}

		var driver models.Driver
		if err := tx.First(&driver, handover.DriverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("driver %d not found", handover.DriverID)
			}
			return fmt.Errorf("failed to load driver: %w", err)
		}

		var openCount int64
		if err := tx.Model(&models.VehicleHandover{}).
			Where("vehicle_id = ? AND return_date IS NULL", vehicle.VehicleID).
			Count(&openCount).Error; err != nil {
			return fmt.Errorf("failed to count open handovers: %w", err)
		}
		if openCount > 0 {
			return fmt.Errorf("車輛 %s 已有未歸還的交接單", vehicle.RegistrationNumber)
		}

		if err := tx.Create(handover).Error; err != nil {
			return fmt.Errorf("failed to create handover: %w", err)
		}

		if err := tx.Model(&models.Vehicle{}).
			Where("vehicle_id = ?", vehicle.VehicleID).
			Update("assigned_user_id", driver.UserID).Error; err != nil {
			return fmt.Errorf("failed to assign vehicle occupant: %w", err)
		}

		if _, err := RecomputeVehicleStatus(tx, vehicle.VehicleID); err != nil {
			return err
		}

		log.Printf("Issued handover %d: vehicle %d -> driver %d", handover.HandoverID, vehicle.VehicleID, driver.DriverID)
		return nil
	})
}

// CloseHandoverInput 歸還參數
type CloseHandoverInput struct {
	ReturnDate time.Time
	EndMileage float64
	EndFuel    float64
}

// CloseHandover 結案交接單（司機歸還車輛）。
// 里程差夾到 >= 0，費用 = 里程差 × 每公里費率 + 缺油 × 補油費。
// 車輛目前的佔用人還是這張單的司機時才清空並重算狀態，里程回寫車輛
func CloseHandover(db *gorm.DB, handoverID int, input CloseHandoverInput) (*models.VehicleHandover, error) {
	var handover models.VehicleHandover

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&handover, handoverID).Error; err != nil {
			return err
		}
		if !handover.IsOpen() {
			return fmt.Errorf("交接單 %d 已結案", handoverID)
		}
		if input.ReturnDate.Before(handover.IssueDate) {
			return fmt.Errorf("歸還日不能早於交付日")
		}
		if input.EndMileage < handover.StartMileage {
			return fmt.Errorf("歸還里程 %.1f 不能小於交付里程 %.1f", input.EndMileage, handover.StartMileage)
		}

		vehicle, err := lockVehicleRow(tx, handover.VehicleID)
		if err != nil {
			return fmt.Errorf("failed to lock vehicle: %w", err)
		}

		settings, err := GetSettings(tx)
		if err != nil {
			return err
		}

		distance := input.EndMileage - handover.StartMileage
		if distance < 0 {
			distance = 0
		}
		missingFuel := handover.StartFuel - input.EndFuel
		if missingFuel < 0 {
			missingFuel = 0
		}
		totalCost := distance*settings.PerKmRate + missingFuel*settings.MissingFuelSurcharge

		returnDate := input.ReturnDate
		endMileage := input.EndMileage
		endFuel := input.EndFuel
		handover.ReturnDate = &returnDate
		handover.EndMileage = &endMileage
		handover.EndFuel = &endFuel
		handover.Distance = distance
		handover.TotalCost = totalCost

		if err := tx.Save(&handover).Error; err != nil {
			return fmt.Errorf("failed to close handover: %w", err)
		}

		updates := map[string]interface{}{"mileage": endMileage}

		// 佔用人可能已被後續操作改掉，只有還是本單司機時才清空
		var driver models.Driver
		if err := tx.First(&driver, handover.DriverID).Error; err == nil {
			if vehicle.AssignedUserID != nil && *vehicle.AssignedUserID == driver.UserID {
				updates["assigned_user_id"] = nil
			}
		}

		if err := tx.Model(&models.Vehicle{}).
			Where("vehicle_id = ?", vehicle.VehicleID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update vehicle after return: %w", err)
		}

		if _, err := RecomputeVehicleStatus(tx, vehicle.VehicleID); err != nil {
			return err
		}

		log.Printf("Closed handover %d: distance=%.1f, total_cost=%.2f", handoverID, distance, totalCost)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &handover, nil
}

// MaterializeHandoverFromReservation 預約核准時自動開交接單。
// 冪等：已有引用這筆預約的交接單就不再產生。
// 交付日取預約起日，交付里程取車輛目前里程；
// 單子開立為未歸還狀態，預定歸還日記在備註，實際歸還走 CloseHandover
func MaterializeHandoverFromReservation(tx *gorm.DB, reservation *models.Reservation, vehicle *models.Vehicle) (*models.VehicleHandover, bool, error) {
	var existing models.VehicleHandover
	err := tx.Where("reservation_id = ?", reservation.ReservationID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to check existing handover: %w", err)
	}

	var openCount int64
	if err := tx.Model(&models.VehicleHandover{}).
		Where("vehicle_id = ? AND return_date IS NULL", vehicle.VehicleID).
		Count(&openCount).Error; err != nil {
		return nil, false, fmt.Errorf("failed to count open handovers: %w", err)
	}
	if openCount > 0 {
		return nil, false, fmt.Errorf("車輛 %s 已有未歸還的交接單", vehicle.RegistrationNumber)
	}

	handover := &models.VehicleHandover{
		DriverID:      *reservation.DriverID,
		VehicleID:     vehicle.VehicleID,
		ReservationID: &reservation.ReservationID,
		IssueDate:     reservation.DateFrom,
		StartMileage:  vehicle.Mileage,
		Notes: fmt.Sprintf("由預約 %d 自動產生，預定歸還日 %s",
			reservation.ReservationID, reservation.DateTo.Format("2006-01-02")),
	}
	if err := tx.Create(handover).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create handover from reservation: %w", err)
	}
	return handover, true, nil
}
