package services

import (
	"errors"
	"fmt"
	"log"

	"fleetapi/database"
	"fleetapi/models"
	"fleetapi/utils"

	"gorm.io/gorm"
)

// 登入失敗統一回這個錯誤，不透露是哪個憑證錯了
var ErrInvalidCredentials = errors.New("帳號、密碼或 PIN 錯誤")

// RegisterDriverInput 司機註冊入參
type RegisterDriverInput struct {
	Username      string
	Password      string
	FirstName     string
	LastName      string
	Email         string
	CompanyName   string
	CompanyNIP    string
	LicenseNumber string
	Categories    string
}

// RegisterDriver 註冊司機帳號：同一交易內建立 User（DRIVER 角色）、
// 依名稱 get-or-create 車隊公司、建立司機檔案。
// 同名公司重複註冊必須沿用既有那筆，不得新開
func RegisterDriver(db *gorm.DB, input RegisterDriverInput) (*models.Driver, error) {
	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var driver models.Driver
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.Where("username = ?", input.Username).First(&existing).Error; err == nil {
			return fmt.Errorf("帳號 %s 已被使用", input.Username)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check for duplicate username: %w", err)
		}

		user := models.User{
			Username:  input.Username,
			Password:  hashedPassword,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Role:      models.RoleDriver,
		}
		if err := tx.Create(&user).Error; err != nil {
			// 兩個併發註冊同名帳號時，先查後寫還是可能撞 uniqueIndex
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("帳號 %s 已被使用", input.Username)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		var company models.FleetCompany
		if input.CompanyName != "" {
			err := tx.Where("name = ?", input.CompanyName).First(&company).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				company = models.FleetCompany{Name: input.CompanyName, NIP: input.CompanyNIP}
				if err := tx.Create(&company).Error; err != nil {
					return fmt.Errorf("failed to create company: %w", err)
				}
				log.Printf("Created fleet company %q (id=%d)", company.Name, company.CompanyID)
			} else if err != nil {
				return fmt.Errorf("failed to look up company: %w", err)
			}
		}

		categories := input.Categories
		if categories == "" {
			categories = "B"
		}
		driver = models.Driver{
			UserID:            user.UserID,
			LicenseNumber:     input.LicenseNumber,
			LicenseCategories: categories,
			Active:            true,
		}
		if company.CompanyID != 0 {
			driver.CompanyID = &company.CompanyID
		}
		if err := tx.Create(&driver).Error; err != nil {
			return fmt.Errorf("failed to create driver profile: %w", err)
		}

		driver.User = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Registered driver %s (user_id=%d, driver_id=%d)", input.Username, driver.UserID, driver.DriverID)
	return &driver, nil
}

// Login 驗證帳密，管理層（ADMIN / MANAGER)另外要核對 2FA PIN。
// 任何一關失敗都回同一個 ErrInvalidCredentials
func Login(db *gorm.DB, username, password, pin string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Login failed: user %s not found", username)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		log.Printf("Login failed: wrong password for user %s", username)
		return nil, ErrInvalidCredentials
	}

	if user.Role == models.RoleAdmin || user.Role == models.RoleManager {
		if pin == "" {
			log.Printf("Login failed: missing 2FA PIN for %s user %s", user.Role, username)
			return nil, ErrInvalidCredentials
		}
		storedPin, err := utils.DecryptPin(user.Pin2FA)
		if err != nil {
			log.Printf("Login failed: cannot decrypt stored PIN for user %s: %v", username, err)
			return nil, ErrInvalidCredentials
		}
		if storedPin != pin {
			log.Printf("Login failed: wrong 2FA PIN for user %s", username)
			return nil, ErrInvalidCredentials
		}
	}

	log.Printf("User %s (role=%s) logged in successfully", username, user.Role)
	return &user, nil
}

// GetUserByID 依 ID 查帳號，找不到回 nil
func GetUserByID(id int) (*models.User, error) {
	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}
