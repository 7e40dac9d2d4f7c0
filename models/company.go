package models

import "time"

// FleetCompany 車隊公司：註冊時依名稱 get-or-create，不重複建立
type FleetCompany struct {
	CompanyID int       `json:"company_id" gorm:"primaryKey;autoIncrement;type:INT"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;index" binding:"required,max=255"`
	NIP       string    `json:"nip" gorm:"type:varchar(10)" binding:"omitempty,len=10"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (FleetCompany) TableName() string {
	return "fleet_company"
}
