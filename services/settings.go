package services

import (
	"errors"
	"fmt"

	"fleetapi/models"

	"gorm.io/gorm"
)

// GetSettings 讀取系統設定，固定操作 id=1，不存在就用預設值建立
func GetSettings(db *gorm.DB) (*models.AppSettings, error) {
	var settings models.AppSettings
	err := db.First(&settings, 1).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings = models.AppSettings{
		ID:                   1,
		PerKmRate:            1.5,
		MissingFuelSurcharge: 8,
		DefaultFuelCapacity:  100,
	}
	if err := db.Create(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}
	return &settings, nil
}

// UpdateSettings 更新系統設定，一樣鎖定 id=1
func UpdateSettings(db *gorm.DB, updated *models.AppSettings) (*models.AppSettings, error) {
	settings, err := GetSettings(db)
	if err != nil {
		return nil, err
	}

	settings.PerKmRate = updated.PerKmRate
	settings.MissingFuelSurcharge = updated.MissingFuelSurcharge
	settings.DefaultFuelCapacity = updated.DefaultFuelCapacity

	if err := db.Save(settings).Error; err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return settings, nil
}
