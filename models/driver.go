package models

import "time"

// Driver 司機檔案：包一層帳號，附駕照與體檢資料
type Driver struct {
	DriverID          int        `json:"driver_id" gorm:"primaryKey;autoIncrement;type:INT"`
	UserID            int        `json:"user_id" gorm:"uniqueIndex;not null;type:INT" binding:"required,gt=0"`
	LicenseNumber     string     `json:"license_number" gorm:"type:varchar(50)" binding:"required,max=50"`
	LicenseCategories string     `json:"license_categories" gorm:"type:varchar(100);default:'B'"` // 例：B, C, C+E
	LicenseExpiry     *time.Time `json:"license_expiry" gorm:"type:date"`
	MedicalExpiry     *time.Time `json:"medical_expiry" gorm:"type:date"`
	Active            bool       `json:"active" gorm:"default:true"`

	CompanyID *int          `json:"company_id" gorm:"index"`
	Company   *FleetCompany `json:"-" gorm:"foreignKey:CompanyID;references:CompanyID;constraint:OnDelete:SET NULL"`

	User User `json:"-" gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
}

func (Driver) TableName() string {
	return "app_drivers"
}

type DriverResponse struct {
	DriverID          int    `json:"driver_id"`
	UserID            int    `json:"user_id"`
	Username          string `json:"username,omitempty"`
	FullName          string `json:"full_name,omitempty"`
	LicenseNumber     string `json:"license_number"`
	LicenseCategories string `json:"license_categories"`
	LicenseExpiry     string `json:"license_expiry,omitempty"`
	MedicalExpiry     string `json:"medical_expiry,omitempty"`
	Active            bool   `json:"active"`
	CompanyID         *int   `json:"company_id"`
	CompanyName       string `json:"company_name,omitempty"`
}

func (d *Driver) ToResponse() DriverResponse {
	resp := DriverResponse{
		DriverID:          d.DriverID,
		UserID:            d.UserID,
		LicenseNumber:     d.LicenseNumber,
		LicenseCategories: d.LicenseCategories,
		Active:            d.Active,
		CompanyID:         d.CompanyID,
	}
	if d.User.UserID != 0 {
		resp.Username = d.User.Username
		resp.FullName = d.User.FullName()
	}
	if d.LicenseExpiry != nil {
		resp.LicenseExpiry = d.LicenseExpiry.Format("2006-01-02")
	}
	if d.MedicalExpiry != nil {
		resp.MedicalExpiry = d.MedicalExpiry.Format("2006-01-02")
	}
	if d.Company != nil {
		resp.CompanyName = d.Company.Name
	}
	return resp
}
