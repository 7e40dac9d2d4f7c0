package services

import (
	"testing"
	"time"

	"fleetapi/models"
)

func TestDamageOverridesOpenHandover(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db)
	driver := makeDriver(t, db, "Jan", "Kowalski")

	handover := &models.VehicleHandover{
		DriverID:     driver.DriverID,
		VehicleID:    vehicle.VehicleID,
		IssueDate:    date(t, "2026-06-01"),
		StartMileage: vehicle.Mileage,
	}
	if err := IssueHandover(db, handover); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// 出借中又通報損壞 -> unfit 蓋過 rented
	damage := &models.DamageEvent{
		VehicleID:   vehicle.VehicleID,
		Description: "stłuczka na parkingu",
		EventDate:   date(t, "2026-06-03"),
	}
	if err := CreateDamageEvent(db, damage); err != nil {
		t.Fatalf("damage creation failed: %v", err)
	}

	var v models.Vehicle
	db.First(&v, vehicle.VehicleID)
	if v.Status != models.VehicleStatusUnfit {
		t.Fatalf("expected unfit while damaged and rented, got %s", v.Status)
	}

	// 估價中不擋車
	damage.RepairStatus = models.DamageQuoting
	if err := UpdateDamageEvent(db, damage); err != nil {
		t.Fatalf("damage update failed: %v", err)
	}
	db.First(&v, vehicle.VehicleID)
	if v.Status != models.VehicleStatusRented {
		t.Fatalf("expected rented once damage moves to quoting, got %s", v.Status)
	}

	// 進廠維修又擋回去
	damage.RepairStatus = models.DamageInRepair
	if err := UpdateDamageEvent(db, damage); err != nil {
		t.Fatalf("damage update failed: %v", err)
	}
	db.First(&v, vehicle.VehicleID)
	if v.Status != models.VehicleStatusUnfit {
		t.Fatalf("expected unfit while in repair, got %s", v.Status)
	}

	// 損壞結案 -> 回到 rented
	damage.RepairStatus = models.DamageClosed
	if err := UpdateDamageEvent(db, damage); err != nil {
		t.Fatalf("damage update failed: %v", err)
	}
	db.First(&v, vehicle.VehicleID)
	if v.Status != models.VehicleStatusRented {
		t.Fatalf("expected rented after damage closed, got %s", v.Status)
	}

	// 歸還車輛 -> fit
	if _, err := CloseHandover(db, handover.HandoverID, CloseHandoverInput{
		ReturnDate: date(t, "2026-06-10"),
		EndMileage: vehicle.Mileage + 100,
	}); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	db.First(&v, vehicle.VehicleID)
	if v.Status != models.VehicleStatusFit {
		t.Fatalf("expected fit after return, got %s", v.Status)
	}
}

func TestDeleteDamageEventRecomputesStatus(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db)

	damage := &models.DamageEvent{
		VehicleID:   vehicle.VehicleID,
		Description: "pęknięta szyba",
		EventDate:   date(t, "2026-06-03"),
	}
	if err := CreateDamageEvent(db, damage); err != nil {
		t.Fatalf("damage creation failed: %v", err)
	}

	var v models.Vehicle
	db.First(&v, vehicle.VehicleID)
	if v.Status != models.VehicleStatusUnfit {
		t.Fatalf("expected unfit after report, got %s", v.Status)
	}

	if err := DeleteDamageEvent(db, damage.DamageEventID); err != nil {
		t.Fatalf("damage deletion failed: %v", err)
	}
	db.First(&v, vehicle.VehicleID)
	if v.Status != models.VehicleStatusFit {
		t.Fatalf("expected fit after damage removed, got %s", v.Status)
	}
}

func TestMoveDamageEventRecomputesBothVehicles(t *testing.T) {
	db := newTestDB(t)
	first := makeVehicle(t, db)
	second := makeVehicle(t, db)

	damage := &models.DamageEvent{
		VehicleID:   first.VehicleID,
		Description: "urwane lusterko",
		EventDate:   date(t, "2026-06-03"),
	}
	if err := CreateDamageEvent(db, damage); err != nil {
		t.Fatalf("damage creation failed: %v", err)
	}

	var v models.Vehicle
	db.First(&v, first.VehicleID)
	if v.Status != models.VehicleStatusUnfit {
		t.Fatalf("expected first vehicle unfit after report, got %s", v.Status)
	}

	// 事件改掛到另一台車：原車要放行，新車要被擋
	damage.VehicleID = second.VehicleID
	if err := UpdateDamageEvent(db, damage); err != nil {
		t.Fatalf("damage update failed: %v", err)
	}

	var va models.Vehicle
	db.First(&va, first.VehicleID)
	if va.Status != models.VehicleStatusFit {
		t.Fatalf("expected first vehicle fit after damage moved away, got %s", va.Status)
	}
	var vb models.Vehicle
	db.First(&vb, second.VehicleID)
	if vb.Status != models.VehicleStatusUnfit {
		t.Fatalf("expected second vehicle unfit after damage moved in, got %s", vb.Status)
	}
}

func TestResolveOccupantPrecedence(t *testing.T) {
	db := newTestDB(t)
	vehicle := makeVehicle(t, db)
	today := time.Now()

	// 4. 什麼都沒有
	if got := ResolveOccupant(db, vehicle, today); got != OccupantUnassigned {
		t.Fatalf("expected unassigned, got %s", got)
	}

	// 3. 常駐指派人
	owner := &models.User{Username: "owner1", Password: "x", FirstName: "Marek", LastName: "Zielinski", Role: models.RoleEmployee}
	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	vehicle.AssignedUserID = &owner.UserID
	if err := db.Save(vehicle).Error; err != nil {
		t.Fatalf("failed to assign vehicle: %v", err)
	}
	if got := ResolveOccupant(db, vehicle, today); got != "Marek Zielinski" {
		t.Fatalf("expected assigned user name, got %s", got)
	}

	// 2. 今天落在區間內的預約蓋過常駐指派，無司機帳號時用申請人姓名
	reservation := &models.Reservation{
		FirstName:         "Ewa",
		LastName:          "Kaminska",
		DateFrom:          today.AddDate(0, 0, -1),
		DateTo:            today.AddDate(0, 0, 1),
		Status:            models.ReservationAccepted,
		AssignedVehicleID: &vehicle.VehicleID,
	}
	if err := db.Create(reservation).Error; err != nil {
		t.Fatalf("failed to seed reservation: %v", err)
	}
	if got := ResolveOccupant(db, vehicle, today); got != "Ewa Kaminska" {
		t.Fatalf("expected requester name from active reservation, got %s", got)
	}

	// 退回的預約視同不存在
	if err := db.Model(reservation).Update("status", models.ReservationRejected).Error; err != nil {
		t.Fatalf("failed to reject reservation: %v", err)
	}
	if got := ResolveOccupant(db, vehicle, today); got != "Marek Zielinski" {
		t.Fatalf("expected fallback to assigned user after rejection, got %s", got)
	}

	// 1. 未歸還的交接單司機優先於一切
	driver := makeDriver(t, db, "Jan", "Kowalski")
	handover := &models.VehicleHandover{
		DriverID:     driver.DriverID,
		VehicleID:    vehicle.VehicleID,
		IssueDate:    today.AddDate(0, 0, -1),
		StartMileage: vehicle.Mileage,
	}
	if err := db.Create(handover).Error; err != nil {
		t.Fatalf("failed to seed handover: %v", err)
	}
	if got := ResolveOccupant(db, vehicle, today); got != "Jan Kowalski" {
		t.Fatalf("expected open handover driver, got %s", got)
	}
}

func TestVisibleVehicleIDs(t *testing.T) {
	db := newTestDB(t)
	driver := makeDriver(t, db, "Jan", "Kowalski")
	today := time.Now()

	assigned := makeVehicle(t, db)
	if err := db.Model(assigned).Update("assigned_user_id", driver.UserID).Error; err != nil {
		t.Fatalf("failed to assign vehicle: %v", err)
	}

	rented := makeVehicle(t, db)
	if err := db.Create(&models.VehicleHandover{
		DriverID:     driver.DriverID,
		VehicleID:    rented.VehicleID,
		IssueDate:    today.AddDate(0, 0, -2),
		StartMileage: rented.Mileage,
	}).Error; err != nil {
		t.Fatalf("failed to seed open handover: %v", err)
	}

	reserved := makeVehicle(t, db)
	if err := db.Create(&models.Reservation{
		FirstName: "Jan", LastName: "Kowalski",
		DateFrom: today.AddDate(0, 0, -1), DateTo: today.AddDate(0, 0, 1),
		Status:            models.ReservationAccepted,
		AssignedVehicleID: &reserved.VehicleID,
		DriverID:          &driver.DriverID,
	}).Error; err != nil {
		t.Fatalf("failed to seed reservation: %v", err)
	}

	// 已歸還很久的車，平常看不到
	returned := makeVehicle(t, db)
	past := today.AddDate(0, 0, -30)
	if err := db.Create(&models.VehicleHandover{
		DriverID:     driver.DriverID,
		VehicleID:    returned.VehicleID,
		IssueDate:    past.AddDate(0, 0, -5),
		ReturnDate:   &past,
		StartMileage: returned.Mileage,
	}).Error; err != nil {
		t.Fatalf("failed to seed closed handover: %v", err)
	}

	// 完全無關的車
	makeVehicle(t, db)

	ids, err := VisibleVehicleIDs(db, driver.UserID, false)
	if err != nil {
		t.Fatalf("visibility query failed: %v", err)
	}
	want := map[int]bool{assigned.VehicleID: true, rented.VehicleID: true, reserved.VehicleID: true}
	if len(ids) != len(want) {
		t.Fatalf("expected %d visible vehicles, got %d (%v)", len(want), len(ids), ids)
	}
	for _, id := range ids {
		if !want[id] {
			t.Fatalf("unexpected visible vehicle %d", id)
		}
	}

	// includeHistory 要把早已歸還的車也放進來
	ids, err = VisibleVehicleIDs(db, driver.UserID, true)
	if err != nil {
		t.Fatalf("history visibility query failed: %v", err)
	}
	found := false
	for _, id := range ids {
		if id == returned.VehicleID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected returned vehicle to be visible with history enabled")
	}
}

func TestVisibleVehicleIDsWithoutDriverProfile(t *testing.T) {
	db := newTestDB(t)

	user := &models.User{Username: "plain", Password: "x", Role: models.RoleEmployee}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	vehicle := makeVehicle(t, db)
	if err := db.Model(vehicle).Update("assigned_user_id", user.UserID).Error; err != nil {
		t.Fatalf("failed to assign vehicle: %v", err)
	}

	ids, err := VisibleVehicleIDs(db, user.UserID, false)
	if err != nil {
		t.Fatalf("visibility query failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != vehicle.VehicleID {
		t.Fatalf("expected only the assigned vehicle, got %v", ids)
	}
}
