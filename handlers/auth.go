package handlers

import (
	"errors"
	"log"
	"net/http"
	"regexp"

	"fleetapi/database"
	"fleetapi/services"
	"fleetapi/utils"

	"github.com/gin-gonic/gin"
)

// 2FA PIN 必須是 4~6 碼數字
var pinRegex = regexp.MustCompile(`^[0-9]{4,6}$`)

// 電子郵件驗證 regex
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// LoginInput 登入入參
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Pin2FA   string `json:"pin_2fa"`
}

// Login 登入資料檢查：管理層帳號另外要通過 2FA PIN
func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid login input: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的輸入資料",
			"error":   "請提供帳號與密碼",
			"code":    "ERR_INVALID_INPUT",
		})
		return
	}

	if input.Pin2FA != "" && !pinRegex.MatchString(input.Pin2FA) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的 PIN 格式",
			"error":   "pin_2fa must be 4-6 digits",
			"code":    "ERR_INVALID_PIN_FORMAT",
		})
		return
	}

	user, err := services.Login(database.DB, input.Username, input.Password, input.Pin2FA)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			// 統一訊息，不透露哪個環節錯了
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "登入失敗",
				"error":   "帳號、密碼或 PIN 錯誤",
				"code":    "ERR_INVALID_CREDENTIALS",
			})
			return
		}
		log.Printf("Login failed for user %s: %v", input.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  false,
			"message": "登入失敗",
			"error":   "internal error",
			"code":    "ERR_DATABASE",
		})
		return
	}

	accessToken, err := utils.GenerateAccessToken(user.UserID, user.Username, user.Role)
	if err != nil {
		log.Printf("Failed to generate access token for user %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  false,
			"message": "登入失敗",
			"error":   "failed to generate token",
			"code":    "ERR_TOKEN",
		})
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(user.UserID)
	if err != nil {
		log.Printf("Failed to generate refresh token for user %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  false,
			"message": "登入失敗",
			"error":   "failed to generate token",
			"code":    "ERR_TOKEN",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        true,
		"message":       "登入成功",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"role":          user.Role,
		"username":      user.Username,
	})
}

// RegisterInput 司機註冊入參
type RegisterInput struct {
	Username      string `json:"username" binding:"required,max=100"`
	Password      string `json:"password" binding:"required"`
	FirstName     string `json:"first_name" binding:"required,max=100"`
	LastName      string `json:"last_name" binding:"required,max=100"`
	Email         string `json:"email"`
	CompanyName   string `json:"company_name" binding:"required,max=255"`
	CompanyNIP    string `json:"company_nip"`
	LicenseNumber string `json:"license_number" binding:"required,max=50"`
	Categories    string `json:"license_categories"`
}

// Register 司機註冊資料檢查：建立帳號 + 公司（同名沿用）+ 司機檔案
func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid register input: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "無效的輸入資料",
			"error":   "請提供帳號、密碼、姓名、公司與駕照號碼",
			"code":    "ERR_INVALID_INPUT",
		})
		return
	}

	// 驗證密碼（最少 8 個字元，至少一個字母和一個數字）
	if len(input.Password) < 8 ||
		!regexp.MustCompile(`[a-zA-Z]`).MatchString(input.Password) ||
		!regexp.MustCompile(`[0-9]`).MatchString(input.Password) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "密碼必須至少8個字符，包含字母和數字",
			"error":   "password too weak",
			"code":    "ERR_WEAK_PASSWORD",
		})
		return
	}

	if input.Email != "" && !emailRegex.MatchString(input.Email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "請提供有效的電子郵件地址",
			"error":   "invalid email format",
			"code":    "ERR_INVALID_EMAIL",
		})
		return
	}

	driver, err := services.RegisterDriver(database.DB, services.RegisterDriverInput{
		Username:      input.Username,
		Password:      input.Password,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Email:         input.Email,
		CompanyName:   input.CompanyName,
		CompanyNIP:    input.CompanyNIP,
		LicenseNumber: input.LicenseNumber,
		Categories:    input.Categories,
	})
	if err != nil {
		log.Printf("Failed to register driver %s: %v", input.Username, err)
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "註冊失敗",
			"error":   err.Error(),
			"code":    "ERR_REGISTER_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "司機註冊成功",
		"data":    driver.ToResponse(),
	})
}
