package models

import "time"

// VehicleDocument 車輛附件：檔案存本機磁碟，這裡只記相對路徑
type VehicleDocument struct {
	DocumentID  int       `json:"document_id" gorm:"primaryKey;autoIncrement;type:INT"`
	VehicleID   int       `json:"vehicle_id" gorm:"index;not null;type:INT"`
	Vehicle     Vehicle   `json:"-" gorm:"foreignKey:VehicleID;references:VehicleID;constraint:OnDelete:CASCADE"`
	Title       string    `json:"title" gorm:"type:varchar(200);not null"`
	FilePath    string    `json:"file_path" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	UploadedAt  time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}

func (VehicleDocument) TableName() string {
	return "app_vehicle_documents"
}

type VehicleDocumentResponse struct {
	DocumentID  int    `json:"document_id"`
	VehicleID   int    `json:"vehicle_id"`
	Title       string `json:"title"`
	FilePath    string `json:"file_path"`
	Description string `json:"description,omitempty"`
	UploadedAt  string `json:"uploaded_at"`
}

func (d *VehicleDocument) ToResponse() VehicleDocumentResponse {
	return VehicleDocumentResponse{
		DocumentID:  d.DocumentID,
		VehicleID:   d.VehicleID,
		Title:       d.Title,
		FilePath:    d.FilePath,
		Description: d.Description,
		UploadedAt:  d.UploadedAt.Format("2006-01-02 15:04:05"),
	}
}
