package main

import (
	"log"
	"os"

	"fleetapi/database"
	"fleetapi/models"
	"fleetapi/routes"
	"fleetapi/services"
	"fleetapi/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// 載入 .env 檔案
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using default environment variables: %v", err)
	}

	// 調用 AES_KEY 是否加載成功
	if err := utils.InitCrypto(); err != nil {
		log.Fatalf("Failed to initialize crypto: %v", err)
	}
	log.Println("Crypto initialized successfully")

	// 初始化 JWTSecret
	utils.InitJWTSecret()

	// 初始化資料庫
	database.InitDB()

	// 執行資料庫遷移
	database.DB.AutoMigrate(
		&models.User{},
		&models.FleetCompany{},
		&models.Driver{},
		&models.Vehicle{},
		&models.Reservation{},
		&models.VehicleHandover{},
		&models.DamageEvent{},
		&models.ServiceEvent{},
		&models.InsurancePolicy{},
		&models.VehicleDocument{},
		&models.AppSettings{},
	)
	log.Println("Database migration completed")

	// 確保預設管理員存在
	ensureAdminExists()

	// 設置 Gin 模式
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = gin.ReleaseMode
	}
	gin.SetMode(ginMode)
	log.Printf("Gin mode set to %s", ginMode)

	// 初始化 Gin 路由器
	r := gin.Default()

	// 上傳檔案直接走靜態路徑
	r.Static("/uploads", utils.UploadDir())

	// 創建一個 API 路由組
	api := r.Group("/api")
	{
		routes.Path(api)
	}

	// 啟動定時任務
	c := cron.New()

	// 逾期未處理的預約自動退回（每小時執行一次）
	_, err := c.AddFunc("0 * * * *", func() {
		log.Println("Checking for expired reservations...")
		if err := services.CheckExpiredReservations(database.DB); err != nil {
			log.Printf("Failed to check expired reservations: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule expired reservations check cron job: %v", err)
	}

	c.Start()
	log.Println("Cron jobs started")

	// 啟動伺服器
	log.Println("Starting server on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureAdminExists 檢查並創建預設管理員。
// 預設密碼與 PIN 只在第一次啟動時生效，上線後要立刻改掉
func ensureAdminExists() {
	var admin models.User
	if err := database.DB.Where("role = ?", models.RoleAdmin).First(&admin).Error; err == nil {
		log.Printf("Admin already exists: username=%s", admin.Username)
		return
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin12345"
	}
	pin := os.Getenv("ADMIN_PIN")
	if pin == "" {
		pin = "123456"
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	encryptedPin, err := utils.EncryptPin(pin)
	if err != nil {
		log.Fatalf("Failed to encrypt admin PIN: %v", err)
	}

	admin = models.User{
		Username:  "admin",
		Password:  hashedPassword,
		FirstName: "System",
		LastName:  "Admin",
		Role:      models.RoleAdmin,
		Pin2FA:    encryptedPin,
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create default admin: %v", err)
	}

	log.Printf("Default admin created: username=%s", admin.Username)
}
