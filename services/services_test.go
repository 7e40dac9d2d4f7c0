package services

import (
	"fmt"
	"testing"
	"time"

	"fleetapi/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 開一個 in-memory SQLite，限制單一連線避免每條連線各拿一個空庫
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.FleetCompany{},
		&models.Driver{},
		&models.Vehicle{},
		&models.Reservation{},
		&models.VehicleHandover{},
		&models.DamageEvent{},
		&models.ServiceEvent{},
		&models.InsurancePolicy{},
		&models.VehicleDocument{},
		&models.AppSettings{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

var fixtureSeq int

func makeVehicle(t *testing.T, db *gorm.DB) *models.Vehicle {
	t.Helper()
	fixtureSeq++
	vehicle := &models.Vehicle{
		VIN:                fmt.Sprintf("WVWZZZ1JZ%08d", fixtureSeq),
		RegistrationNumber: fmt.Sprintf("WX%05d", fixtureSeq),
		Brand:              "Volkswagen",
		Model:              "Transporter",
		IsActive:           true,
		Status:             models.VehicleStatusFit,
		Mileage:            1000,
	}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("failed to create test vehicle: %v", err)
	}
	return vehicle
}

func makeDriver(t *testing.T, db *gorm.DB, firstName, lastName string) *models.Driver {
	t.Helper()
	fixtureSeq++
	user := &models.User{
		Username:  fmt.Sprintf("driver%d", fixtureSeq),
		Password:  "x",
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleDriver,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	driver := &models.Driver{
		UserID:        user.UserID,
		LicenseNumber: fmt.Sprintf("LIC%d", fixtureSeq),
		Active:        true,
	}
	if err := db.Create(driver).Error; err != nil {
		t.Fatalf("failed to create test driver: %v", err)
	}
	driver.User = *user
	return driver
}
