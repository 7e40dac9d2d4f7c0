package models

import "time"

// InsurancePolicy 保險單，只做讀寫歷史，不進任何狀態計算
type InsurancePolicy struct {
	PolicyID     int        `json:"policy_id" gorm:"primaryKey;autoIncrement;type:INT"`
	VehicleID    int        `json:"vehicle_id" gorm:"index;not null;type:INT" binding:"required,gt=0"`
	Vehicle      Vehicle    `json:"-" gorm:"foreignKey:VehicleID;references:VehicleID;constraint:OnDelete:CASCADE"`
	PolicyNumber string     `json:"policy_number" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	Insurer      string     `json:"insurer" gorm:"type:varchar(100)" binding:"max=100"`
	OCExpiry     time.Time  `json:"oc_expiry" gorm:"type:date;not null"`
	ACExpiry     *time.Time `json:"ac_expiry" gorm:"type:date"`
	Cost         float64    `json:"cost" gorm:"type:decimal(10,2);default:0" binding:"gte=0"`
}

func (InsurancePolicy) TableName() string {
	return "app_insurance_policies"
}

type InsurancePolicyResponse struct {
	PolicyID         int     `json:"policy_id"`
	VehicleID        int     `json:"vehicle_id"`
	VehicleRegNumber string  `json:"vehicle_registration_number,omitempty"`
	PolicyNumber     string  `json:"policy_number"`
	Insurer          string  `json:"insurer"`
	OCExpiry         string  `json:"oc_expiry"`
	ACExpiry         string  `json:"ac_expiry,omitempty"`
	Cost             float64 `json:"cost"`
}

func (p *InsurancePolicy) ToResponse() InsurancePolicyResponse {
	resp := InsurancePolicyResponse{
		PolicyID:     p.PolicyID,
		VehicleID:    p.VehicleID,
		PolicyNumber: p.PolicyNumber,
		Insurer:      p.Insurer,
		OCExpiry:     p.OCExpiry.Format("2006-01-02"),
		Cost:         p.Cost,
	}
	if p.ACExpiry != nil {
		resp.ACExpiry = p.ACExpiry.Format("2006-01-02")
	}
	if p.Vehicle.VehicleID != 0 {
		resp.VehicleRegNumber = p.Vehicle.RegistrationNumber
	}
	return resp
}
