package utils

import (
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadDir 回傳上傳根目錄，可用 UPLOAD_DIR 覆寫
func UploadDir() string {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return dir
}

// SaveUploadedFile 存上傳檔案到 uploads/<subdir>/，用 UUID 當檔名避免覆蓋，
// 回傳存進資料庫的相對路徑
func SaveUploadedFile(c *gin.Context, file *multipart.FileHeader, subdir string) (string, error) {
	ext := filepath.Ext(file.Filename)
	name := uuid.NewString() + ext
	relPath := filepath.Join(subdir, name)
	dst := filepath.Join(UploadDir(), relPath)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", fmt.Errorf("failed to save uploaded file: %w", err)
	}
	log.Printf("Saved uploaded file %s as %s", file.Filename, relPath)
	return relPath, nil
}

// DeleteStoredFile 刪除已存檔案，檔案不存在不視為錯誤
func DeleteStoredFile(relPath string) {
	if relPath == "" {
		return
	}
	full := filepath.Join(UploadDir(), relPath)
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to delete stored file %s: %v", full, err)
	}
}
