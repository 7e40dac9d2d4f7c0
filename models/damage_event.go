package models

import "time"

// 損壞事件處理狀態
const (
	DamageReported = "reported"  // 已通報
	DamageQuoting  = "quoting"   // 估價中
	DamageInRepair = "in_repair" // 維修中
	DamageClosed   = "closed"    // 已結案
)

// DamageEvent 損壞事件：reported 與 in_repair 會把車輛標成 unfit
type DamageEvent struct {
	DamageEventID     int       `json:"damage_event_id" gorm:"primaryKey;autoIncrement;type:INT"`
	VehicleID         int       `json:"vehicle_id" gorm:"index;not null;type:INT" binding:"required,gt=0"`
	Vehicle           Vehicle   `json:"-" gorm:"foreignKey:VehicleID;references:VehicleID;constraint:OnDelete:CASCADE"`
	Description       string    `json:"description" gorm:"type:text" binding:"required"`
	EventDate         time.Time `json:"event_date" gorm:"type:date;not null"`
	EstimatedCost     float64   `json:"estimated_cost" gorm:"type:decimal(10,2);default:0" binding:"gte=0"`
	ReportedToInsurer bool      `json:"reported_to_insurer" gorm:"default:false"`
	RepairStatus      string    `json:"repair_status" gorm:"type:varchar(50);not null;default:'reported'"`
}

func (DamageEvent) TableName() string {
	return "app_damage_events"
}

// BlocksVehicle 此事件是否讓車輛不可用
func (d *DamageEvent) BlocksVehicle() bool {
	return d.RepairStatus == DamageReported || d.RepairStatus == DamageInRepair
}

type DamageEventResponse struct {
	DamageEventID     int     `json:"damage_event_id"`
	VehicleID         int     `json:"vehicle_id"`
	VehicleRegNumber  string  `json:"vehicle_registration_number,omitempty"`
	Description       string  `json:"description"`
	EventDate         string  `json:"event_date"`
	EstimatedCost     float64 `json:"estimated_cost"`
	ReportedToInsurer bool    `json:"reported_to_insurer"`
	RepairStatus      string  `json:"repair_status"`
}

func (d *DamageEvent) ToResponse() DamageEventResponse {
	resp := DamageEventResponse{
		DamageEventID:     d.DamageEventID,
		VehicleID:         d.VehicleID,
		Description:       d.Description,
		EventDate:         d.EventDate.Format("2006-01-02"),
		EstimatedCost:     d.EstimatedCost,
		ReportedToInsurer: d.ReportedToInsurer,
		RepairStatus:      d.RepairStatus,
	}
	if d.Vehicle.VehicleID != 0 {
		resp.VehicleRegNumber = d.Vehicle.RegistrationNumber
	}
	return resp
}
