package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"folk_academy/config"
	"folk_academy/internal/database"
	"folk_academy/internal/global"
)

// Hàm khởi tạo các biến toàn cục
func InitGlobal() {
	initColNames()         // Khởi tạo tên các collection trong database
	initValidator()        // Khởi tạo validator
	initConfig()           // Khởi tạo cấu hình server
	initDatabase_MongoDB() // Khởi tạo kết nối database
}

// Hàm khởi tạo tên các collection trong database
func initColNames() {
	global.MongoDB_ColNames.Classrooms = "classrooms"
	global.MongoDB_ColNames.Contents = "contents"

	logrus.Info("Initialized collection names")
}

// Hàm khởi tạo validator (đăng ký custom validators: no_xss, ...)
func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

// Hàm khởi tạo cấu hình server
func initConfig() {
	global.MongoDB_ServerConfig = config.NewConfig()
	if global.MongoDB_ServerConfig == nil {
		logrus.Fatalf("Failed to initialize config: config is nil")
	}
	logrus.Info("Initialized server config")
}

// Hàm khởi tạo kết nối database
func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	// Khởi tạo index cho cây lớp học và content
	dbName := global.MongoDB_ServerConfig.MongoDB_DBName
	if err := database.CreateTreeIndexes(context.TODO(), global.MongoDB_Session.Database(dbName)); err != nil {
		logrus.Errorf("Failed to create indexes: %v", err)
	} else {
		logrus.Info("Ensured collection indexes")
	}
}
