package global

import (
	"folk_academy/config"
	"folk_academy/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	Classrooms string // Tên collection cho lớp học (cây phân cấp)
	Contents   string // Tên collection cho nội dung bài học
}

// Các biến toàn cục
var Validate *validator.Validate                  // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client                 // Phiên kết nối tới MongoDB
var MongoDB_ServerConfig *config.Configuration    // Cấu hình của server
var MongoDB_ColNames = MongoDB_CollectionName{
	Classrooms: "classrooms",
	Contents:   "contents",
}

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
