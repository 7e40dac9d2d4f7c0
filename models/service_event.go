package models

import "time"

// 服務事件類型
var ServiceEventTypes = []string{
	"inspection", "repair", "periodic_check", "tech_exam", "calibration",
}

// ServiceEvent 保養維修紀錄，純歷史資料，不影響車輛狀態
type ServiceEvent struct {
	ServiceEventID int       `json:"service_event_id" gorm:"primaryKey;autoIncrement;type:INT"`
	VehicleID      int       `json:"vehicle_id" gorm:"index;not null;type:INT" binding:"required,gt=0"`
	Vehicle        Vehicle   `json:"-" gorm:"foreignKey:VehicleID;references:VehicleID;constraint:OnDelete:CASCADE"`
	Description    string    `json:"description" gorm:"type:text" binding:"required"`
	ServiceDate    time.Time `json:"service_date" gorm:"type:date;not null"`
	Cost           float64   `json:"cost" gorm:"type:decimal(10,2);default:0" binding:"gte=0"`
	EventType      string    `json:"event_type" gorm:"type:varchar(50);default:'repair'"`
}

func (ServiceEvent) TableName() string {
	return "app_service_events"
}

type ServiceEventResponse struct {
	ServiceEventID   int     `json:"service_event_id"`
	VehicleID        int     `json:"vehicle_id"`
	VehicleRegNumber string  `json:"vehicle_registration_number,omitempty"`
	Description      string  `json:"description"`
	ServiceDate      string  `json:"service_date"`
	Cost             float64 `json:"cost"`
	EventType        string  `json:"event_type"`
}

func (s *ServiceEvent) ToResponse() ServiceEventResponse {
	resp := ServiceEventResponse{
		ServiceEventID: s.ServiceEventID,
		VehicleID:      s.VehicleID,
		Description:    s.Description,
		ServiceDate:    s.ServiceDate.Format("2006-01-02"),
		Cost:           s.Cost,
		EventType:      s.EventType,
	}
	if s.Vehicle.VehicleID != 0 {
		resp.VehicleRegNumber = s.Vehicle.RegistrationNumber
	}
	return resp
}
