package services

import (
	"errors"
	"strings"
	"testing"

	"fleetapi/models"
	"fleetapi/utils"
)

func TestRegisterDriverReusesCompany(t *testing.T) {
	db := newTestDB(t)

	first, err := RegisterDriver(db, RegisterDriverInput{
		Username:      "jkowalski",
		Password:      "secret123",
		FirstName:     "Jan",
		LastName:      "Kowalski",
		CompanyName:   "Trans-Pol",
		CompanyNIP:    "1234567890",
		LicenseNumber: "PL111",
	})
	if err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if first.CompanyID == nil {
		t.Fatal("expected first driver to be linked to a company")
	}

	second, err := RegisterDriver(db, RegisterDriverInput{
		Username:      "anowak",
		Password:      "secret123",
		FirstName:     "Anna",
		LastName:      "Nowak",
		CompanyName:   "Trans-Pol",
		LicenseNumber: "PL222",
	})
	if err != nil {
		t.Fatalf("second registration failed: %v", err)
	}
	if second.CompanyID == nil || *second.CompanyID != *first.CompanyID {
		t.Fatalf("expected company to be reused, got %v and %v", first.CompanyID, second.CompanyID)
	}

	var count int64
	db.Model(&models.FleetCompany{}).Where("name = ?", "Trans-Pol").Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly 1 company row, got %d", count)
	}
}

func TestRegisterDriverDuplicateUsername(t *testing.T) {
	db := newTestDB(t)

	input := RegisterDriverInput{
		Username:      "jkowalski",
		Password:      "secret123",
		LicenseNumber: "PL111",
	}
	if _, err := RegisterDriver(db, input); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	_, err := RegisterDriver(db, input)
	if err == nil {
		t.Fatal("expected duplicate username to be refused")
	}
	// 吃到的要是友善訊息，不是底層 uniqueIndex 錯誤
	if !strings.Contains(err.Error(), "已被使用") {
		t.Fatalf("expected friendly duplicate message, got %q", err.Error())
	}

	var users int64
	db.Model(&models.User{}).Where("username = ?", input.Username).Count(&users)
	if users != 1 {
		t.Fatalf("expected exactly one user row, got %d", users)
	}
}

func TestRegisterDriverDefaults(t *testing.T) {
	db := newTestDB(t)

	driver, err := RegisterDriver(db, RegisterDriverInput{
		Username:      "defaults",
		Password:      "secret123",
		LicenseNumber: "PL333",
	})
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	if driver.LicenseCategories != "B" {
		t.Fatalf("expected default license category B, got %s", driver.LicenseCategories)
	}
	if driver.User.Role != models.RoleDriver {
		t.Fatalf("expected DRIVER role, got %s", driver.User.Role)
	}
	if !driver.Active {
		t.Fatal("expected new driver to be active")
	}
}

func TestLoginManagerRequiresPin(t *testing.T) {
	t.Setenv("AES_KEY", "0123456789abcdef0123456789abcdef")
	db := newTestDB(t)

	hashed, err := utils.HashPassword("managerpass1")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	encryptedPin, err := utils.EncryptPin("654321")
	if err != nil {
		t.Fatalf("failed to encrypt pin: %v", err)
	}
	manager := &models.User{
		Username: "manager1",
		Password: hashed,
		Role:     models.RoleManager,
		Pin2FA:   encryptedPin,
	}
	if err := db.Create(manager).Error; err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	if _, err := Login(db, "manager1", "managerpass1", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected missing PIN to fail with ErrInvalidCredentials, got %v", err)
	}
	if _, err := Login(db, "manager1", "managerpass1", "000000"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrong PIN to fail with ErrInvalidCredentials, got %v", err)
	}
	if _, err := Login(db, "manager1", "wrong", "654321"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrong password to fail with ErrInvalidCredentials, got %v", err)
	}

	user, err := Login(db, "manager1", "managerpass1", "654321")
	if err != nil {
		t.Fatalf("expected login with correct PIN to succeed: %v", err)
	}
	if user.Role != models.RoleManager {
		t.Fatalf("expected MANAGER role, got %s", user.Role)
	}
}

func TestLoginDriverWithoutPin(t *testing.T) {
	db := newTestDB(t)

	hashed, err := utils.HashPassword("driverpass1")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(&models.User{
		Username: "driver1",
		Password: hashed,
		Role:     models.RoleDriver,
	}).Error; err != nil {
		t.Fatalf("failed to create driver: %v", err)
	}

	if _, err := Login(db, "driver1", "driverpass1", ""); err != nil {
		t.Fatalf("driver login without PIN should succeed: %v", err)
	}
	if _, err := Login(db, "nosuchuser", "driverpass1", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected unknown user to fail with ErrInvalidCredentials, got %v", err)
	}
}
