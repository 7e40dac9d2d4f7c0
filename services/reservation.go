package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"fleetapi/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConflictError 預約撞期：訊息帶車牌與卡住的區間，讓申請人改期
type ConflictError struct {
	RegistrationNumber string
	ConflictFrom       time.Time
	ConflictTo         time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("車輛 %s 在 %s ~ %s 已有預約",
		e.RegistrationNumber,
		e.ConflictFrom.Format("2006-01-02"),
		e.ConflictTo.Format("2006-01-02"))
}

// lockVehicleRow 在交易內鎖住車輛列，把衝突檢查與寫入收進同一臨界區。
// SQLite 不支援 FOR UPDATE，靠交易本身序列化
func lockVehicleRow(tx *gorm.DB, vehicleID int) (*models.Vehicle, error) {
	q := tx
	if tx.Dialector.Name() == "mysql" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var vehicle models.Vehicle
	if err := q.First(&vehicle, vehicleID).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// CheckReservationConflict 掃描該車所有未退回的預約，
// 回傳第一筆與 [dateFrom,dateTo] 重疊的預約；excludeID > 0 時跳過該筆
// （編輯既有預約重新驗證用）。退回的預約永遠不算衝突
func CheckReservationConflict(db *gorm.DB, vehicleID int, dateFrom, dateTo time.Time, excludeID int) (*models.Reservation, error) {
	query := db.Where("assigned_vehicle_id = ? AND status <> ?", vehicleID, models.ReservationRejected)
	if excludeID > 0 {
		query = query.Where("reservation_id <> ?", excludeID)
	}

	var reservations []models.Reservation
	if err := query.Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to query reservations for vehicle %d: %w", vehicleID, err)
	}

	for i := range reservations {
		r := &reservations[i]
		if Overlaps(dateFrom, dateTo, r.DateFrom, r.DateTo) {
			return r, nil
		}
	}
	return nil, nil
}

// CreateReservation 建立預約。指派了車輛時，鎖列 + 衝突檢查 + 寫入
// 收在同一交易，兩個並發申請不會都過
func CreateReservation(db *gorm.DB, reservation *models.Reservation) error {
	if reservation.DateFrom.After(reservation.DateTo) {
		return fmt.Errorf("date_from 不能晚於 date_to")
	}
	if reservation.Status == "" {
		reservation.Status = models.ReservationPending
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if reservation.AssignedVehicleID != nil {
			vehicle, err := lockVehicleRow(tx, *reservation.AssignedVehicleID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("vehicle %d not found", *reservation.AssignedVehicleID)
				}
				return fmt.Errorf("failed to lock vehicle: %w", err)
			}

			conflict, err := CheckReservationConflict(tx, vehicle.VehicleID, reservation.DateFrom, reservation.DateTo, 0)
			if err != nil {
				return err
			}
			if conflict != nil {
				return &ConflictError{
					RegistrationNumber: vehicle.RegistrationNumber,
					ConflictFrom:       conflict.DateFrom,
					ConflictTo:         conflict.DateTo,
				}
			}
		}

		if err := tx.Create(reservation).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}

		// pending/accepted 不會動車輛，直接核准的要跑核准副作用
		if reservation.Status == models.ReservationApproved {
			if err := applyApprovalSideEffects(tx, reservation); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateReservation 編輯既有預約，重新驗證時排除自己
func UpdateReservation(db *gorm.DB, reservation *models.Reservation) error {
	if reservation.DateFrom.After(reservation.DateTo) {
		return fmt.Errorf("date_from 不能晚於 date_to")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if reservation.AssignedVehicleID != nil {
			vehicle, err := lockVehicleRow(tx, *reservation.AssignedVehicleID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("vehicle %d not found", *reservation.AssignedVehicleID)
				}
				return fmt.Errorf("failed to lock vehicle: %w", err)
			}

			conflict, err := CheckReservationConflict(tx, vehicle.VehicleID, reservation.DateFrom, reservation.DateTo, reservation.ReservationID)
			if err != nil {
				return err
			}
			if conflict != nil {
				return &ConflictError{
					RegistrationNumber: vehicle.RegistrationNumber,
					ConflictFrom:       conflict.DateFrom,
					ConflictTo:         conflict.DateTo,
				}
			}
		}

		if err := tx.Save(reservation).Error; err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		return nil
	})
}

// TransitionReservationStatus 依狀態機流轉預約狀態。
// 轉入 approved 時在同一交易內重驗衝突並自動產生交接單
func TransitionReservationStatus(db *gorm.DB, reservationID int, newStatus string) (*models.Reservation, error) {
	var reservation models.Reservation

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			return err
		}

		if !models.CanTransitReservation(reservation.Status, newStatus) {
			return fmt.Errorf("預約狀態不可由 %s 轉為 %s", reservation.Status, newStatus)
		}
		if reservation.Status == newStatus {
			return nil // 重送同一狀態視為 no-op
		}

		reservation.Status = newStatus
		if err := tx.Save(&reservation).Error; err != nil {
			return fmt.Errorf("failed to update reservation status: %w", err)
		}

		if newStatus == models.ReservationApproved {
			if err := applyApprovalSideEffects(tx, &reservation); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// applyApprovalSideEffects 核准後的副作用：鎖車、重驗衝突、自動開交接單。
// 車輛或司機缺一個就只改狀態，不產單
func applyApprovalSideEffects(tx *gorm.DB, reservation *models.Reservation) error {
	if reservation.AssignedVehicleID == nil || reservation.DriverID == nil {
		log.Printf("Reservation %d approved without vehicle or driver, skipping handover creation", reservation.ReservationID)
		return nil
	}

	vehicle, err := lockVehicleRow(tx, *reservation.AssignedVehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("vehicle %d not found", *reservation.AssignedVehicleID)
		}
		return fmt.Errorf("failed to lock vehicle: %w", err)
	}

	conflict, err := CheckReservationConflict(tx, vehicle.VehicleID, reservation.DateFrom, reservation.DateTo, reservation.ReservationID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return &ConflictError{
			RegistrationNumber: vehicle.RegistrationNumber,
			ConflictFrom:       conflict.DateFrom,
			ConflictTo:         conflict.DateTo,
		}
	}

	handover, created, err := MaterializeHandoverFromReservation(tx, reservation, vehicle)
	if err != nil {
		return err
	}
	if created {
		// 自動開單後把車輛指派給該司機並重算狀態
		var driver models.Driver
		if err := tx.First(&driver, handover.DriverID).Error; err == nil {
			if err := tx.Model(&models.Vehicle{}).
				Where("vehicle_id = ?", vehicle.VehicleID).
				Update("assigned_user_id", driver.UserID).Error; err != nil {
				return fmt.Errorf("failed to assign vehicle occupant: %w", err)
			}
		}
		if _, err := RecomputeVehicleStatus(tx, vehicle.VehicleID); err != nil {
			return err
		}
		log.Printf("Auto-created handover %d for approved reservation %d (vehicle %d, driver %d)",
			handover.HandoverID, reservation.ReservationID, vehicle.VehicleID, *reservation.DriverID)
	}
	return nil
}

// CheckExpiredReservations 定時任務：把結束日已過仍在 pending 的預約退回
func CheckExpiredReservations(db *gorm.DB) error {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	result := db.Model(&models.Reservation{}).
		Where("status = ? AND date_to < ?", models.ReservationPending, today).
		Update("status", models.ReservationRejected)
	if result.Error != nil {
		return fmt.Errorf("failed to expire stale reservations: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("Expired %d stale pending reservations", result.RowsAffected)
	}
	return nil
}
