package models

import "time"

// VehicleHandover 車輛交接單：記錄一位司機實際持有一台車的期間。
// return_date 為空代表尚未歸還（Open），填入後即結案（Closed）。
// 同一台車同時間只允許一張未歸還的交接單，由服務層在鎖內保證。
type VehicleHandover struct {
	HandoverID int `json:"handover_id" gorm:"primaryKey;autoIncrement;type:INT"`

	DriverID int    `json:"driver_id" gorm:"index;not null;type:INT" binding:"required,gt=0"`
	Driver   Driver `json:"-" gorm:"foreignKey:DriverID;references:DriverID;constraint:OnDelete:CASCADE"`

	VehicleID int     `json:"vehicle_id" gorm:"index;not null;type:INT" binding:"required,gt=0"`
	Vehicle   Vehicle `json:"-" gorm:"foreignKey:VehicleID;references:VehicleID;constraint:OnDelete:CASCADE"`

	// 由預約核准自動產生時回填，作為冪等判斷依據
	ReservationID *int         `json:"reservation_id" gorm:"index"`
	Reservation   *Reservation `json:"-" gorm:"foreignKey:ReservationID;references:ReservationID;constraint:OnDelete:SET NULL"`

	IssueDate  time.Time  `json:"issue_date" gorm:"type:date;not null"`
	ReturnDate *time.Time `json:"return_date" gorm:"type:date"`

	StartMileage float64  `json:"start_mileage" gorm:"default:0" binding:"gte=0"`
	EndMileage   *float64 `json:"end_mileage"`
	StartFuel    float64  `json:"start_fuel" gorm:"default:0" binding:"gte=0,lte=100"` // 油量百分比
	EndFuel      *float64 `json:"end_fuel"`

	Distance  float64 `json:"distance" gorm:"default:0"`
	TotalCost float64 `json:"total_cost" gorm:"default:0"`
	Notes     string  `json:"notes" gorm:"type:text"`

	ScanAgreement        string `json:"scan_agreement" gorm:"type:varchar(255)"`
	ScanHandoverProtocol string `json:"scan_handover_protocol" gorm:"type:varchar(255)"`
	ScanReturnProtocol   string `json:"scan_return_protocol" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (VehicleHandover) TableName() string {
	return "app_handovers"
}

// IsOpen 是否尚未歸還
func (h *VehicleHandover) IsOpen() bool {
	return h.ReturnDate == nil
}

type HandoverResponse struct {
	HandoverID       int      `json:"handover_id"`
	DriverID         int      `json:"driver_id"`
	DriverName       string   `json:"driver_name,omitempty"`
	VehicleID        int      `json:"vehicle_id"`
	VehicleRegNumber string   `json:"vehicle_registration_number,omitempty"`
	ReservationID    *int     `json:"reservation_id"`
	IssueDate        string   `json:"issue_date"`
	ReturnDate       string   `json:"return_date,omitempty"`
	Open             bool     `json:"open"`
	StartMileage     float64  `json:"start_mileage"`
	EndMileage       *float64 `json:"end_mileage"`
	StartFuel        float64  `json:"start_fuel"`
	EndFuel          *float64 `json:"end_fuel"`
	Distance         float64  `json:"distance"`
	TotalCost        float64  `json:"total_cost"`
	Notes            string   `json:"notes,omitempty"`
}

func (h *VehicleHandover) ToResponse() HandoverResponse {
	resp := HandoverResponse{
		HandoverID:    h.HandoverID,
		DriverID:      h.DriverID,
		VehicleID:     h.VehicleID,
		ReservationID: h.ReservationID,
		IssueDate:     h.IssueDate.Format("2006-01-02"),
		Open:          h.IsOpen(),
		StartMileage:  h.StartMileage,
		EndMileage:    h.EndMileage,
		StartFuel:     h.StartFuel,
		EndFuel:       h.EndFuel,
		Distance:      h.Distance,
		TotalCost:     h.TotalCost,
		Notes:         h.Notes,
	}
	if h.ReturnDate != nil {
		resp.ReturnDate = h.ReturnDate.Format("2006-01-02")
	}
	if h.Driver.User.UserID != 0 {
		resp.DriverName = h.Driver.User.FullName()
	}
	if h.Vehicle.VehicleID != 0 {
		resp.VehicleRegNumber = h.Vehicle.RegistrationNumber
	}
	return resp
}
