package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fleetapi/models"
)

func TestCheckReservationConflict(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db)

	existing := &models.Reservation{
		FirstName:         "Jan",
		LastName:          "Kowalski",
		DateFrom:          date(t, "2026-03-10"),
		DateTo:            date(t, "2026-03-20"),
		Status:            models.ReservationAccepted,
		AssignedVehicleID: &vehicle.VehicleID,
	}
	if err := db.Create(existing).Error; err != nil {
		t.Fatalf("failed to seed reservation: %v", err)
	}

	conflict, err := CheckReservationConflict(db, vehicle.VehicleID, date(t, "2026-03-15"), date(t, "2026-03-25"), 0)
	if err != nil {
		t.Fatalf("conflict check failed: %v", err)
	}
	if conflict == nil {
		t.Fatal("expected overlap to be reported as conflict")
	}
	if conflict.ReservationID != existing.ReservationID {
		t.Fatalf("expected conflict with reservation %d, got %d", existing.ReservationID, conflict.ReservationID)
	}

	// 端點相接也算衝突
	conflict, err = CheckReservationConflict(db, vehicle.VehicleID, date(t, "2026-03-20"), date(t, "2026-03-25"), 0)
	if err != nil {
		t.Fatalf("conflict check failed: %v", err)
	}
	if conflict == nil {
		t.Fatal("expected touching endpoints to conflict")
	}

	// 不重疊就沒事
	conflict, err = CheckReservationConflict(db, vehicle.VehicleID, date(t, "2026-03-21"), date(t, "2026-03-25"), 0)
	if err != nil {
		t.Fatalf("conflict check failed: %v", err)
	}
	if conflict != nil {
		t.Fatal("expected disjoint interval to pass")
	}

	// 排除自己之後不應撞到自己
	conflict, err = CheckReservationConflict(db, vehicle.VehicleID, date(t, "2026-03-10"), date(t, "2026-03-20"), existing.ReservationID)
	if err != nil {
		t.Fatalf("conflict check failed: %v", err)
	}
	if conflict != nil {
		t.Fatal("expected own reservation to be excluded")
	}
}

func TestRejectedReservationNeverConflicts(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db)

	rejected := &models.Reservation{
		FirstName:         "Anna",
		LastName:          "Nowak",
		DateFrom:          date(t, "2026-03-10"),
		DateTo:            date(t, "2026-03-20"),
		Status:            models.ReservationRejected,
		AssignedVehicleID: &vehicle.VehicleID,
	}
	if err := db.Create(rejected).Error; err != nil {
		t.Fatalf("failed to seed rejected reservation: %v", err)
	}

	conflict, err := CheckReservationConflict(db, vehicle.VehicleID, date(t, "2026-03-10"), date(t, "2026-03-20"), 0)
	if err != nil {
		t.Fatalf("conflict check failed: %v", err)
	}
	if conflict != nil {
		t.Fatal("rejected reservation must never block new reservations")
	}

	// 同一區間可以直接再建立
	replacement := &models.Reservation{
		FirstName:         "Piotr",
		LastName:          "Wisniewski",
		DateFrom:          date(t, "2026-03-10"),
		DateTo:            date(t, "2026-03-20"),
		AssignedVehicleID: &vehicle.VehicleID,
	}
	if err := CreateReservation(db, replacement); err != nil {
		t.Fatalf("expected replacement over rejected slot to succeed, got %v", err)
	}
}

func TestCreateReservationConflictError(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db)

	first := &models.Reservation{
		FirstName:         "Jan",
		LastName:          "Kowalski",
		DateFrom:          date(t, "2026-04-01"),
		DateTo:            date(t, "2026-04-10"),
		AssignedVehicleID: &vehicle.VehicleID,
	}
	if err := CreateReservation(db, first); err != nil {
		t.Fatalf("first reservation should succeed: %v", err)
	}
	if first.Status != models.ReservationPending {
		t.Fatalf("expected default status pending, got %s", first.Status)
	}

	second := &models.Reservation{
		FirstName:         "Anna",
		LastName:          "Nowak",
		DateFrom:          date(t, "2026-04-05"),
		DateTo:            date(t, "2026-04-15"),
		AssignedVehicleID: &vehicle.VehicleID,
	}
	err := CreateReservation(db, second)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.RegistrationNumber != vehicle.RegistrationNumber {
		t.Fatalf("expected conflict message to name plate %s, got %s", vehicle.RegistrationNumber, conflict.RegistrationNumber)
	}
	if !strings.Contains(conflict.Error(), vehicle.RegistrationNumber) {
		t.Fatalf("conflict message should carry the plate: %s", conflict.Error())
	}
	if !strings.Contains(conflict.Error(), "2026-04-01") || !strings.Contains(conflict.Error(), "2026-04-10") {
		t.Fatalf("conflict message should carry the blocking interval: %s", conflict.Error())
	}

	// 失敗的那筆不應落庫
	var count int64
	db.Model(&models.Reservation{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 reservation after conflict, got %d", count)
	}
}

func TestCreateReservationInvalidInterval(t *testing.T) {
	db := newTestDB(t)

	r := &models.Reservation{
		FirstName: "Jan",
		LastName:  "Kowalski",
		DateFrom:  date(t, "2026-04-10"),
		DateTo:    date(t, "2026-04-01"),
	}
	if err := CreateReservation(db, r); err == nil {
		t.Fatal("expected error when date_from is after date_to")
	}
}

func TestApproveReservationCreatesHandoverOnce(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db)
	driver := makeDriver(t, db, "Jan", "Kowalski")

	reservation := &models.Reservation{
		FirstName:         "Jan",
		LastName:          "Kowalski",
		DateFrom:          date(t, "2026-05-01"),
		DateTo:            date(t, "2026-05-10"),
		AssignedVehicleID: &vehicle.VehicleID,
		DriverID:          &driver.DriverID,
	}
	if err := CreateReservation(db, reservation); err != nil {
		t.Fatalf("failed to create reservation: %v", err)
	}

	if _, err := TransitionReservationStatus(db, reservation.ReservationID, models.ReservationApproved); err != nil {
		t.Fatalf("approval failed: %v", err)
	}

	var handovers []models.VehicleHandover
	if err := db.Where("reservation_id = ?", reservation.ReservationID).Find(&handovers).Error; err != nil {
		t.Fatalf("failed to query handovers: %v", err)
	}
	if len(handovers) != 1 {
		t.Fatalf("expected exactly 1 handover after approval, got %d", len(handovers))
	}
	h := handovers[0]
	if !h.IsOpen() {
		t.Fatal("auto-created handover should be open")
	}
	if !h.IssueDate.Equal(reservation.DateFrom) {
		t.Fatalf("expected issue date %s, got %s", reservation.DateFrom, h.IssueDate)
	}
	if h.StartMileage != vehicle.Mileage {
		t.Fatalf("expected start mileage %.1f, got %.1f", vehicle.Mileage, h.StartMileage)
	}

	// 重送同一狀態是 no-op，不能多開一張單
	if _, err := TransitionReservationStatus(db, reservation.ReservationID, models.ReservationApproved); err != nil {
		t.Fatalf("repeated approval should be a no-op, got %v", err)
	}
	var count int64
	db.Model(&models.VehicleHandover{}).Where("reservation_id = ?", reservation.ReservationID).Count(&count)
	if count != 1 {
		t.Fatalf("expected still 1 handover after repeated approval, got %d", count)
	}

	// 車輛要轉為出借中並指派給該司機
	var updated models.Vehicle
	if err := db.First(&updated, vehicle.VehicleID).Error; err != nil {
		t.Fatalf("failed to reload vehicle: %v", err)
	}
	if updated.Status != models.VehicleStatusRented {
		t.Fatalf("expected vehicle status rented, got %s", updated.Status)
	}
	if updated.AssignedUserID == nil || *updated.AssignedUserID != driver.UserID {
		t.Fatalf("expected vehicle assigned to user %d, got %v", driver.UserID, updated.AssignedUserID)
	}
}

func TestApproveWithoutVehicleSkipsHandover(t *testing.T) {
	db := newTestDB(t)

	reservation := &models.Reservation{
		FirstName: "Anna",
		LastName:  "Nowak",
		DateFrom:  date(t, "2026-05-01"),
		DateTo:    date(t, "2026-05-10"),
	}
	if err := CreateReservation(db, reservation); err != nil {
		t.Fatalf("failed to create reservation: %v", err)
	}

	updated, err := TransitionReservationStatus(db, reservation.ReservationID, models.ReservationApproved)
	if err != nil {
		t.Fatalf("approval without vehicle should still succeed: %v", err)
	}
	if updated.Status != models.ReservationApproved {
		t.Fatalf("expected status approved, got %s", updated.Status)
	}

	var count int64
	db.Model(&models.VehicleHandover{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no handover without vehicle and driver, got %d", count)
	}
}

func TestTransitionFromTerminalStatusRejected(t *testing.T) {
	db := newTestDB(t)

	reservation := &models.Reservation{
		FirstName: "Jan",
		LastName:  "Kowalski",
		DateFrom:  date(t, "2026-05-01"),
		DateTo:    date(t, "2026-05-10"),
	}
	if err := CreateReservation(db, reservation); err != nil {
		t.Fatalf("failed to create reservation: %v", err)
	}
	if _, err := TransitionReservationStatus(db, reservation.ReservationID, models.ReservationRejected); err != nil {
		t.Fatalf("rejection failed: %v", err)
	}

	if _, err := TransitionReservationStatus(db, reservation.ReservationID, models.ReservationApproved); err == nil {
		t.Fatal("expected rejected -> approved to be refused")
	}
}

func TestCheckExpiredReservations(t *testing.T) {
	db := newTestDB(t)

	yesterday := time.Now().AddDate(0, 0, -1)
	tomorrow := time.Now().AddDate(0, 0, 1)

	stale := &models.Reservation{
		FirstName: "Jan", LastName: "Kowalski",
		DateFrom: yesterday.AddDate(0, 0, -5), DateTo: yesterday,
		Status: models.ReservationPending,
	}
	upcoming := &models.Reservation{
		FirstName: "Anna", LastName: "Nowak",
		DateFrom: tomorrow, DateTo: tomorrow.AddDate(0, 0, 5),
		Status: models.ReservationPending,
	}
	acceptedPast := &models.Reservation{
		FirstName: "Piotr", LastName: "Wisniewski",
		DateFrom: yesterday.AddDate(0, 0, -5), DateTo: yesterday,
		Status: models.ReservationAccepted,
	}
	for _, r := range []*models.Reservation{stale, upcoming, acceptedPast} {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("failed to seed reservation: %v", err)
		}
	}

	if err := CheckExpiredReservations(db); err != nil {
		t.Fatalf("expiry sweep failed: %v", err)
	}

	var reloadedStale models.Reservation
	db.First(&reloadedStale, stale.ReservationID)
	if reloadedStale.Status != models.ReservationRejected {
		t.Fatalf("expected stale pending reservation to be rejected, got %s", reloadedStale.Status)
	}
	var reloadedUpcoming models.Reservation
	db.First(&reloadedUpcoming, upcoming.ReservationID)
	if reloadedUpcoming.Status != models.ReservationPending {
		t.Fatalf("expected upcoming reservation to stay pending, got %s", reloadedUpcoming.Status)
	}
	var reloadedAccepted models.Reservation
	db.First(&reloadedAccepted, acceptedPast.ReservationID)
	if reloadedAccepted.Status != models.ReservationAccepted {
		t.Fatalf("expected accepted reservation to be untouched, got %s", reloadedAccepted.Status)
	}
}
