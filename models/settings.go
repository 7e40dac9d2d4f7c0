package models

// AppSettings 系統設定，固定操作 id=1 那一筆（get-or-create）
type AppSettings struct {
	ID                   int     `json:"id" gorm:"primaryKey"`
	PerKmRate            float64 `json:"per_km_rate" gorm:"default:1.5" binding:"gte=0"`           // 每公里費率
	MissingFuelSurcharge float64 `json:"missing_fuel_surcharge" gorm:"default:8" binding:"gte=0"` // 每缺 1% 油量的補油費
	DefaultFuelCapacity  float64 `json:"default_fuel_capacity" gorm:"default:100" binding:"gte=0"`
}

func (AppSettings) TableName() string {
	return "app_settings"
}
