package models

import "time"

// 預約狀態
const (
	ReservationPending  = "pending"  // 剛送出，等待處理
	ReservationAccepted = "accepted" // 已受理，尚未派車
	ReservationApproved = "approved" // 已核准，會自動產生交接單
	ReservationRejected = "rejected" // 已退回，視同不存在的預約
)

// AllowReservationTransition 預約狀態機允許的流轉關係，
// approved 與 rejected 為終態
var AllowReservationTransition = map[string][]string{
	ReservationPending:  {ReservationAccepted, ReservationApproved, ReservationRejected},
	ReservationAccepted: {ReservationApproved, ReservationRejected},
	ReservationApproved: {},
	ReservationRejected: {},
}

// CanTransitReservation 判斷 from -> to 是否允許
func CanTransitReservation(from, to string) bool {
	if from == to {
		return true
	}
	for _, s := range AllowReservationTransition[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Reservation 用車預約：
// 申請人可能沒有司機帳號，所以姓名與公司留成純文字欄位；
// 車輛或司機被刪除時預約保留、外鍵清空
type Reservation struct {
	ReservationID  int       `json:"reservation_id" gorm:"primaryKey;autoIncrement;type:INT"`
	FirstName      string    `json:"first_name" gorm:"type:varchar(100)" binding:"required,max=100"`
	LastName       string    `json:"last_name" gorm:"type:varchar(100)" binding:"required,max=100"`
	Company        string    `json:"company" gorm:"type:varchar(200)"`
	DateFrom       time.Time `json:"date_from" gorm:"type:date;not null"`
	DateTo         time.Time `json:"date_to" gorm:"type:date;not null"`
	VehicleType    string    `json:"vehicle_type" gorm:"type:varchar(30)"`
	AdditionalInfo string    `json:"additional_info" gorm:"type:text"`
	Status         string    `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	AssignedVehicleID *int     `json:"assigned_vehicle_id" gorm:"index"`
	AssignedVehicle   *Vehicle `json:"-" gorm:"foreignKey:AssignedVehicleID;references:VehicleID;constraint:OnDelete:SET NULL"`

	DriverID *int    `json:"driver_id" gorm:"index"`
	Driver   *Driver `json:"-" gorm:"foreignKey:DriverID;references:DriverID;constraint:OnDelete:SET NULL"`

	ScanAgreement string    `json:"scan_agreement" gorm:"type:varchar(255)"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Reservation) TableName() string {
	return "app_reservations"
}

// RequesterName 申請人顯示名稱
func (r *Reservation) RequesterName() string {
	if r.FirstName == "" && r.LastName == "" {
		return ""
	}
	return r.FirstName + " " + r.LastName
}

type ReservationResponse struct {
	ReservationID     int    `json:"reservation_id"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Company           string `json:"company"`
	DateFrom          string `json:"date_from"`
	DateTo            string `json:"date_to"`
	VehicleType       string `json:"vehicle_type"`
	AdditionalInfo    string `json:"additional_info,omitempty"`
	Status            string `json:"status"`
	AssignedVehicleID *int   `json:"assigned_vehicle_id"`
	VehicleRegNumber  string `json:"vehicle_registration_number,omitempty"`
	DriverID          *int   `json:"driver_id"`
	DriverName        string `json:"driver_name,omitempty"`
	ScanAgreement     string `json:"scan_agreement,omitempty"`
	CreatedAt         string `json:"created_at"`
}

func (r *Reservation) ToResponse() ReservationResponse {
	resp := ReservationResponse{
		ReservationID:     r.ReservationID,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Company:           r.Company,
		DateFrom:          r.DateFrom.Format("2006-01-02"),
		DateTo:            r.DateTo.Format("2006-01-02"),
		VehicleType:       r.VehicleType,
		AdditionalInfo:    r.AdditionalInfo,
		Status:            r.Status,
		AssignedVehicleID: r.AssignedVehicleID,
		DriverID:          r.DriverID,
		ScanAgreement:     r.ScanAgreement,
		CreatedAt:         r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if r.AssignedVehicle != nil {
		resp.VehicleRegNumber = r.AssignedVehicle.RegistrationNumber
	}
	if r.Driver != nil && r.Driver.User.UserID != 0 {
		resp.DriverName = r.Driver.User.FullName()
	}
	return resp
}
