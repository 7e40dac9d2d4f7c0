package routes

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"fleetapi/handlers"
	"fleetapi/models"
	"fleetapi/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware 驗證 JWT token，並提取 user_id 和 role
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "缺少 Authorization 標頭",
				"error":   "Authorization header is required",
				"code":    "ERR_NO_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 Authorization 格式",
				"error":   "Authorization header must be in the format 'Bearer <token>'",
				"code":    "ERR_INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		// 明確要求檢查 exp 字段
		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return utils.JWTSecret, nil
		}, jwt.WithExpirationRequired())

		if err != nil {
			log.Printf("Token parsing error: %v", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "token 已過期",
					"error":   "Token has expired",
					"code":    "ERR_TOKEN_EXPIRED",
				})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "無效的 token",
					"error":   err.Error(),
					"code":    "ERR_INVALID_TOKEN",
				})
			}
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 token 內容",
				"error":   "Invalid token claims or token is not valid",
				"code":    "ERR_INVALID_CLAIMS",
			})
			c.Abort()
			return
		}

		if exp, ok := claims["exp"].(float64); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 token 內容",
				"error":   "Missing or invalid exp claim",
				"code":    "ERR_INVALID_CLAIMS",
			})
			c.Abort()
			return
		} else {
			log.Printf("Token verified: exp=%v, current_time=%v", exp, time.Now().Unix())
		}

		userID, ok := claims["user_id"].(float64)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的帳號 ID",
				"error":   "Invalid user_id in token",
				"code":    "ERR_INVALID_USER_ID",
			})
			c.Abort()
			return
		}

		role, ok := claims["role"].(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的角色",
				"error":   "Invalid role in token",
				"code":    "ERR_INVALID_ROLE",
			})
			c.Abort()
			return
		}
		switch role {
		case models.RoleAdmin, models.RoleManager, models.RoleDriver, models.RoleEmployee:
		default:
			log.Printf("Unknown role in token: %v", role)
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的角色",
				"error":   "Invalid role in token",
				"code":    "ERR_INVALID_ROLE",
			})
			c.Abort()
			return
		}

		c.Set("user_id", int(userID))
		c.Set("role", role)
		c.Next()
	}
}

// RoleMiddleware 檢查帳號角色是否符合要求，ADMIN 不受限制
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無法獲取角色資訊",
				"error":   "Role not found in context",
				"code":    "ERR_ROLE_NOT_FOUND",
			})
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的角色類型",
				"error":   "Invalid role type",
				"code":    "ERR_INVALID_ROLE_TYPE",
			})
			c.Abort()
			return
		}

		// 允許 ADMIN 角色訪問所有端點
		if roleStr == models.RoleAdmin {
			c.Next()
			return
		}

		allowed := false
		for _, allowedRole := range allowedRoles {
			if roleStr == allowedRole {
				allowed = true
				break
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"status":  false,
				"message": "權限不足",
				"error":   "Insufficient role permissions",
				"code":    "ERR_INSUFFICIENT_PERMISSIONS",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func Path(router *gin.RouterGroup) {
	// 版本控制
	v1 := router.Group("/v1")
	{
		// 測試路由
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "pong"})
		})

		// 公開路由：不需要 token 驗證
		v1.POST("/login", handlers.Login)       // 登入並獲取 token（管理層需附 PIN）
		v1.POST("/register", handlers.Register) // 註冊司機帳號

		// 車輛路由
		vehicles := v1.Group("/vehicles")
		vehicles.Use(AuthMiddleware())
		{
			// 列表：司機只看到跟自己有關的車
			vehicles.GET("", RoleMiddleware(models.RoleManager, models.RoleDriver, models.RoleEmployee), handlers.GetAllVehicles)
			// 我的車輛（含歷史關聯）
			vehicles.GET("/my_list", RoleMiddleware(models.RoleManager, models.RoleDriver, models.RoleEmployee), handlers.GetMyVehicles)
			vehicles.GET("/:id", RoleMiddleware(models.RoleManager, models.RoleDriver, models.RoleEmployee), handlers.GetVehicle)
			vehicles.GET("/:id/history", RoleMiddleware(models.RoleManager, models.RoleDriver), handlers.GetVehicleHistory)
			vehicles.GET("/:id/availability", RoleMiddleware(models.RoleManager, models.RoleDriver, models.RoleEmployee), handlers.GetVehicleAvailability)
			// 建立與維護：僅管理層
			vehicles.POST("", RoleMiddleware(models.RoleManager), handlers.CreateVehicle)
			vehicles.PUT("/:id", RoleMiddleware(models.RoleManager), handlers.UpdateVehicle)
			vehicles.PUT("/:id/scan", RoleMiddleware(models.RoleManager), handlers.UploadVehicleScan)
			vehicles.DELETE("/:id", RoleMiddleware(models.RoleManager), handlers.DeleteVehicle)
		}

		// 司機路由
		drivers := v1.Group("/drivers")
		drivers.Use(AuthMiddleware())
		{
			drivers.GET("", RoleMiddleware(models.RoleManager), handlers.GetAllDrivers)
			drivers.GET("/:id", RoleMiddleware(models.RoleManager), handlers.GetDriver)
			drivers.POST("", RoleMiddleware(models.RoleManager), handlers.CreateDriver)
			drivers.PUT("/:id", RoleMiddleware(models.RoleManager), handlers.UpdateDriver)
			drivers.DELETE("/:id", RoleMiddleware(models.RoleManager), handlers.DeleteDriver)
		}

		// 預約路由
		reservations := v1.Group("/reservations")
		reservations.Use(AuthMiddleware())
		{
			// 司機可以送自己的預約，管理層可以代送
			reservations.POST("", RoleMiddleware(models.RoleManager, models.RoleDriver, models.RoleEmployee), handlers.CreateReservation)
			reservations.GET("", RoleMiddleware(models.RoleManager, models.RoleDriver, models.RoleEmployee), handlers.GetAllReservations)
			reservations.GET("/:id", RoleMiddleware(models.RoleManager, models.RoleDriver, models.RoleEmployee), handlers.GetReservation)
			reservations.PUT("/:id", RoleMiddleware(models.RoleManager), handlers.UpdateReservation)
			// 狀態流轉（核准會自動產生交接單）：僅管理層
			reservations.PUT("/:id/status", RoleMiddleware(models.RoleManager), handlers.TransitionReservationStatus)
			reservations.DELETE("/:id", RoleMiddleware(models.RoleManager), handlers.DeleteReservation)
		}

		// 交接單路由
		handovers := v1.Group("/handovers")
		handovers.Use(AuthMiddleware())
		{
			handovers.POST("", RoleMiddleware(models.RoleManager), handlers.CreateHandover)
			handovers.POST("/:id/close", RoleMiddleware(models.RoleManager), handlers.CloseHandover)
			handovers.GET("", RoleMiddleware(models.RoleManager, models.RoleDriver), handlers.GetAllHandovers)
			handovers.GET("/:id", RoleMiddleware(models.RoleManager, models.RoleDriver), handlers.GetHandover)
			handovers.PUT("/:id/scan", RoleMiddleware(models.RoleManager), handlers.UploadHandoverScan)
			handovers.DELETE("/:id", RoleMiddleware(models.RoleManager), handlers.DeleteHandover)
		}

		// 損壞事件路由
		damage := v1.Group("/damage_events")
		damage.Use(AuthMiddleware())
		{
			// 司機可以通報自己車的損壞
			damage.POST("", RoleMiddleware(models.RoleManager, models.RoleDriver), handlers.CreateDamageEvent)
			damage.GET("", RoleMiddleware(models.RoleManager, models.RoleDriver), handlers.GetAllDamageEvents)
			damage.GET("/:id", RoleMiddleware(models.RoleManager), handlers.GetDamageEvent)
			damage.PUT("/:id", RoleMiddleware(models.RoleManager), handlers.UpdateDamageEvent)
			damage.DELETE("/:id", RoleMiddleware(models.RoleManager), handlers.DeleteDamageEvent)
		}

		// 保養維修路由
		service := v1.Group("/service_events")
		service.Use(AuthMiddleware())
		{
			service.POST("", RoleMiddleware(models.RoleManager), handlers.CreateServiceEvent)
			service.GET("", RoleMiddleware(models.RoleManager, models.RoleEmployee), handlers.GetAllServiceEvents)
			service.GET("/:id", RoleMiddleware(models.RoleManager, models.RoleEmployee), handlers.GetServiceEvent)
			service.PUT("/:id", RoleMiddleware(models.RoleManager), handlers.UpdateServiceEvent)
			service.DELETE("/:id", RoleMiddleware(models.RoleManager), handlers.DeleteServiceEvent)
		}

		// 保險單路由
		policies := v1.Group("/policies")
		policies.Use(AuthMiddleware())
		{
			policies.POST("", RoleMiddleware(models.RoleManager), handlers.CreatePolicy)
			policies.GET("", RoleMiddleware(models.RoleManager, models.RoleEmployee), handlers.GetAllPolicies)
			policies.GET("/:id", RoleMiddleware(models.RoleManager, models.RoleEmployee), handlers.GetPolicy)
			policies.PUT("/:id", RoleMiddleware(models.RoleManager), handlers.UpdatePolicy)
			policies.DELETE("/:id", RoleMiddleware(models.RoleManager), handlers.DeletePolicy)
		}

		// 車輛附件路由
		documents := v1.Group("/vehicle_documents")
		documents.Use(AuthMiddleware())
		{
			documents.POST("", RoleMiddleware(models.RoleManager), handlers.UploadVehicleDocument)
			documents.GET("", RoleMiddleware(models.RoleManager, models.RoleEmployee), handlers.GetAllVehicleDocuments)
			documents.GET("/:id", RoleMiddleware(models.RoleManager, models.RoleEmployee), handlers.GetVehicleDocument)
			documents.PUT("/:id", RoleMiddleware(models.RoleManager), handlers.UpdateVehicleDocument)
			documents.DELETE("/:id", RoleMiddleware(models.RoleManager), handlers.DeleteVehicleDocument)
		}

		// 系統設定路由（單例）
		settings := v1.Group("/settings")
		settings.Use(AuthMiddleware())
		{
			settings.GET("", RoleMiddleware(models.RoleManager), handlers.GetSettings)
			settings.PUT("", RoleMiddleware(models.RoleAdmin), handlers.UpdateSettings)
		}
	}
}
