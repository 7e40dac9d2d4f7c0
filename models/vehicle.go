package models

import "time"

// 車輛狀態
const (
	VehicleStatusFit    = "fit"    // 可用
	VehicleStatusUnfit  = "unfit"  // 待修，有未結案的損壞事件
	VehicleStatusRented = "rented" // 已出借，有未歸還的交接單
)

// 車輛類型
var VehicleTypes = []string{
	"OSOBOWE", "CIEZAROWE", "AUTOBUSY", "MOTOCYKLE",
	"SEDAN", "SUV", "HATCHBACK", "KOMBI", "COUPE",
}

// 燃料類型
var FuelTypes = []string{
	"BENZYNA", "DIESEL", "ELECTRIC", "HYBRID", "PHEV", "LPG", "CNG", "HYDROGEN",
}

// Vehicle 車輛表：status 與 assigned_user_id 由服務層統一維護，
// 任何處理器都不要直接改寫這兩個欄位
type Vehicle struct {
	VehicleID             int        `json:"vehicle_id" gorm:"primaryKey;autoIncrement;type:INT"`
	VIN                   string     `json:"vin" gorm:"column:vin;type:varchar(17);uniqueIndex;not null" binding:"required"`
	RegistrationNumber    string     `json:"registration_number" gorm:"type:varchar(10);index;not null" binding:"required,max=10"`
	Brand                 string     `json:"brand" gorm:"type:varchar(100)"`
	Model                 string     `json:"model" gorm:"type:varchar(100)"`
	FirstRegistrationDate *time.Time `json:"first_registration_date" gorm:"type:date"`
	IsActive              bool       `json:"is_active" gorm:"default:true"`
	Status                string     `json:"status" gorm:"type:varchar(20);not null;default:'fit'"` // fit / unfit / rented
	VehicleType           string     `json:"vehicle_type" gorm:"type:varchar(30);default:'OSOBOWE'"`
	FuelType              string     `json:"fuel_type" gorm:"type:varchar(20);default:'DIESEL'"`
	Notes                 string     `json:"notes" gorm:"type:text"`
	Mileage               float64    `json:"mileage" gorm:"default:0" binding:"gte=0"`

	AssignedUserID *int  `json:"assigned_user_id" gorm:"index"`
	AssignedUser   *User `json:"-" gorm:"foreignKey:AssignedUserID;references:UserID;constraint:OnDelete:SET NULL"`

	CompanyID *int          `json:"company_id" gorm:"index"`
	Company   *FleetCompany `json:"-" gorm:"foreignKey:CompanyID;references:CompanyID;constraint:OnDelete:SET NULL"`

	// 掃描文件路徑，上傳後存相對路徑，更新時可用 remove_* 旗標清除
	ScanRegistrationCard string `json:"scan_registration_card" gorm:"type:varchar(255)"`
	ScanPolicyOC         string `json:"scan_policy_oc" gorm:"type:varchar(255)"`
	ScanPolicyAC         string `json:"scan_policy_ac" gorm:"type:varchar(255)"`
	ScanTechInspection   string `json:"scan_tech_inspection" gorm:"type:varchar(255)"`
	ScanServiceBook      string `json:"scan_service_book" gorm:"type:varchar(255)"`
	ScanPurchaseInvoice  string `json:"scan_purchase_invoice" gorm:"type:varchar(255)"`

	ServiceHistory []ServiceEvent    `json:"-" gorm:"foreignKey:VehicleID;references:VehicleID;constraint:OnDelete:CASCADE"`
	DamageHistory  []DamageEvent     `json:"-" gorm:"foreignKey:VehicleID;references:VehicleID;constraint:OnDelete:CASCADE"`
	Policies       []InsurancePolicy `json:"-" gorm:"foreignKey:VehicleID;references:VehicleID;constraint:OnDelete:CASCADE"`
	Handovers      []VehicleHandover `json:"-" gorm:"foreignKey:VehicleID;references:VehicleID;constraint:OnDelete:CASCADE"`
	Documents      []VehicleDocument `json:"-" gorm:"foreignKey:VehicleID;references:VehicleID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Vehicle) TableName() string {
	return "app_vehicles"
}

type VehicleResponse struct {
	VehicleID             int     `json:"vehicle_id"`
	VIN                   string  `json:"vin"`
	RegistrationNumber    string  `json:"registration_number"`
	Brand                 string  `json:"brand"`
	Model                 string  `json:"model"`
	FirstRegistrationDate string  `json:"first_registration_date,omitempty"`
	IsActive              bool    `json:"is_active"`
	Status                string  `json:"status"`
	VehicleType           string  `json:"vehicle_type"`
	FuelType              string  `json:"fuel_type"`
	Notes                 string  `json:"notes,omitempty"`
	Mileage               float64 `json:"mileage"`
	AssignedUserID        *int    `json:"assigned_user_id"`
	CompanyID             *int    `json:"company_id"`
	CompanyName           string  `json:"company_name,omitempty"`
	Occupant              string  `json:"occupant"`
	ScanRegistrationCard  string  `json:"scan_registration_card,omitempty"`
	ScanPolicyOC          string  `json:"scan_policy_oc,omitempty"`
	ScanPolicyAC          string  `json:"scan_policy_ac,omitempty"`
	ScanTechInspection    string  `json:"scan_tech_inspection,omitempty"`
	ScanServiceBook       string  `json:"scan_service_book,omitempty"`
	ScanPurchaseInvoice   string  `json:"scan_purchase_invoice,omitempty"`
}

// ToResponse 轉換為回應結構，occupant 由服務層的解析結果帶入
func (v *Vehicle) ToResponse(occupant string) VehicleResponse {
	resp := VehicleResponse{
		VehicleID:            v.VehicleID,
		VIN:                  v.VIN,
		RegistrationNumber:   v.RegistrationNumber,
		Brand:                v.Brand,
		Model:                v.Model,
		IsActive:             v.IsActive,
		Status:               v.Status,
		VehicleType:          v.VehicleType,
		FuelType:             v.FuelType,
		Notes:                v.Notes,
		Mileage:              v.Mileage,
		AssignedUserID:       v.AssignedUserID,
		CompanyID:            v.CompanyID,
		Occupant:             occupant,
		ScanRegistrationCard: v.ScanRegistrationCard,
		ScanPolicyOC:         v.ScanPolicyOC,
		ScanPolicyAC:         v.ScanPolicyAC,
		ScanTechInspection:   v.ScanTechInspection,
		ScanServiceBook:      v.ScanServiceBook,
		ScanPurchaseInvoice:  v.ScanPurchaseInvoice,
	}
	if v.FirstRegistrationDate != nil {
		resp.FirstRegistrationDate = v.FirstRegistrationDate.Format("2006-01-02")
	}
	if v.Company != nil {
		resp.CompanyName = v.Company.Name
	}
	return resp
}
