package models

// 系統角色
const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleDriver   = "DRIVER"
	RoleEmployee = "EMPLOYEE"
)

// User 系統帳號：管理員、車隊經理、司機與一般員工共用同一張表
type User struct {
	UserID    int    `json:"user_id" gorm:"primaryKey;autoIncrement;type:INT"`
	Username  string `json:"username" gorm:"type:varchar(100);uniqueIndex;not null" binding:"required,max=100"`
	Password  string `json:"password,omitempty" gorm:"type:varchar(100);not null"`
	FirstName string `json:"first_name" gorm:"type:varchar(100)"`
	LastName  string `json:"last_name" gorm:"type:varchar(100)"`
	Email     string `json:"email" gorm:"type:varchar(100)"`
	Role      string `json:"role" gorm:"type:varchar(20);not null;default:'EMPLOYEE'"` // ADMIN / MANAGER / DRIVER / EMPLOYEE

	// 管理層登入需要的第二因子 PIN，AES 加密後存放，司機與員工可為空
	Pin2FA string `json:"-" gorm:"column:pin_2fa;type:varchar(255)"`
}

func (User) TableName() string {
	return "app_users"
}

// FullName 組合顯示名稱，找不到姓名時退回帳號名
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type UserResponse struct {
	UserID    int    `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		UserID:    u.UserID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}
