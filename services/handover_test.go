package services

import (
	"testing"

	"fleetapi/models"
)

func TestIssueHandoverMarksVehicleRented(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db)
	driver := makeDriver(t, db, "Jan", "Kowalski")

	handover := &models.VehicleHandover{
		DriverID:     driver.DriverID,
		VehicleID:    vehicle.VehicleID,
		IssueDate:    date(t, "2026-06-01"),
		StartMileage: vehicle.Mileage,
		StartFuel:    80,
	}
	if err := IssueHandover(db, handover); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	var updated models.Vehicle
	if err := db.First(&updated, vehicle.VehicleID).Error; err != nil {
		t.Fatalf("failed to reload vehicle: %v", err)
	}
	if updated.Status != models.VehicleStatusRented {
		t.Fatalf("expected status rented, got %s", updated.Status)
	}
	if updated.AssignedUserID == nil || *updated.AssignedUserID != driver.UserID {
		t.Fatalf("expected vehicle assigned to user %d, got %v", driver.UserID, updated.AssignedUserID)
	}

	// 同一台車不能再開第二張未歸還的單
	second := &models.VehicleHandover{
		DriverID:     driver.DriverID,
		VehicleID:    vehicle.VehicleID,
		IssueDate:    date(t, "2026-06-02"),
		StartMileage: vehicle.Mileage,
	}
	if err := IssueHandover(db, second); err == nil {
		t.Fatal("expected second open handover for same vehicle to be refused")
	}
}

func TestCloseHandoverComputesDistanceAndCost(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db) // mileage 1000
	driver := makeDriver(t, db, "Jan", "Kowalski")

	handover := &models.VehicleHandover{
		DriverID:     driver.DriverID,
		VehicleID:    vehicle.VehicleID,
		IssueDate:    date(t, "2026-06-01"),
		StartMileage: 1000,
		StartFuel:    80,
	}
	if err := IssueHandover(db, handover); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	closed, err := CloseHandover(db, handover.HandoverID, CloseHandoverInput{
		ReturnDate: date(t, "2026-06-05"),
		EndMileage: 1250,
		EndFuel:    50,
	})
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if closed.Distance != 250 {
		t.Fatalf("expected distance 250, got %.1f", closed.Distance)
	}
	// 預設費率：250 km × 1.5 + 缺油 30% × 8 = 615
	if closed.TotalCost != 615 {
		t.Fatalf("expected total cost 615, got %.2f", closed.TotalCost)
	}
	if closed.IsOpen() {
		t.Fatal("handover should be closed")
	}

	var updated models.Vehicle
	if err := db.First(&updated, vehicle.VehicleID).Error; err != nil {
		t.Fatalf("failed to reload vehicle: %v", err)
	}
	if updated.Mileage != 1250 {
		t.Fatalf("expected vehicle mileage 1250, got %.1f", updated.Mileage)
	}
	if updated.Status != models.VehicleStatusFit {
		t.Fatalf("expected status fit after return, got %s", updated.Status)
	}
	if updated.AssignedUserID != nil {
		t.Fatalf("expected occupant cleared after return, got %v", *updated.AssignedUserID)
	}
}

func TestCloseHandoverValidation(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db)
	driver := makeDriver(t, db, "Jan", "Kowalski")

	handover := &models.VehicleHandover{
		DriverID:     driver.DriverID,
		VehicleID:    vehicle.VehicleID,
		IssueDate:    date(t, "2026-06-10"),
		StartMileage: 1000,
		StartFuel:    50,
	}
	if err := IssueHandover(db, handover); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// 歸還日早於交付日
	if _, err := CloseHandover(db, handover.HandoverID, CloseHandoverInput{
		ReturnDate: date(t, "2026-06-09"),
		EndMileage: 1100,
	}); err == nil {
		t.Fatal("expected return date before issue date to be refused")
	}

	// 歸還里程小於交付里程
	if _, err := CloseHandover(db, handover.HandoverID, CloseHandoverInput{
		ReturnDate: date(t, "2026-06-12"),
		EndMileage: 900,
	}); err == nil {
		t.Fatal("expected end mileage below start mileage to be refused")
	}

	// 正常結案後不能再結一次
	if _, err := CloseHandover(db, handover.HandoverID, CloseHandoverInput{
		ReturnDate: date(t, "2026-06-12"),
		EndMileage: 1100,
		EndFuel:    50,
	}); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := CloseHandover(db, handover.HandoverID, CloseHandoverInput{
		ReturnDate: date(t, "2026-06-13"),
		EndMileage: 1200,
		EndFuel:    50,
	}); err == nil {
		t.Fatal("expected closing an already closed handover to be refused")
	}
}

func TestMaterializeHandoverIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db)
	driver := makeDriver(t, db, "Anna", "Nowak")

	reservation := &models.Reservation{
		FirstName:         "Anna",
		LastName:          "Nowak",
		DateFrom:          date(t, "2026-07-01"),
		DateTo:            date(t, "2026-07-10"),
		Status:            models.ReservationApproved,
		AssignedVehicleID: &vehicle.VehicleID,
		DriverID:          &driver.DriverID,
	}
	if err := db.Create(reservation).Error; err != nil {
		t.Fatalf("failed to seed reservation: %v", err)
	}

	first, created, err := MaterializeHandoverFromReservation(db, reservation, vehicle)
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}
	if !created {
		t.Fatal("expected first call to create a handover")
	}

	second, created, err := MaterializeHandoverFromReservation(db, reservation, vehicle)
	if err != nil {
		t.Fatalf("second materialize failed: %v", err)
	}
	if created {
		t.Fatal("expected second call to reuse the existing handover")
	}
	if second.HandoverID != first.HandoverID {
		t.Fatalf("expected same handover %d, got %d", first.HandoverID, second.HandoverID)
	}
}
