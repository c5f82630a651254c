// Package database - Index cho cây lớp học và nội dung bài học.
package database

import (
	"context"
	"strings"

	"folk_academy/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateTreeIndexes tạo các index phục vụ truy vấn cây lớp học.
// Gọi một lần lúc khởi động; index đã tồn tại không phải lỗi.
func CreateTreeIndexes(ctx context.Context, db *mongo.Database) error {
	// classrooms: parentId — thu thập con/hậu duệ (BFS theo parent-id)
	classrooms := db.Collection(global.MongoDB_ColNames.Classrooms)
	if _, err := classrooms.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "parentId", Value: 1},
		},
		Options: options.Index().SetName("classroom_parent").SetSparse(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// classrooms: (parentId, order) — liệt kê con theo thứ tự sibling
	if _, err := classrooms.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "parentId", Value: 1},
			{Key: "order", Value: 1},
		},
		Options: options.Index().SetName("classroom_parent_order").SetSparse(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// contents: classroomId — đếm và xóa content theo lớp học
	contents := db.Collection(global.MongoDB_ColNames.Contents)
	if _, err := contents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "classroomId", Value: 1},
		},
		Options: options.Index().SetName("content_classroom"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// contents: (classroomId, isActive) — đếm content đang active cho sync
	if _, err := contents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "classroomId", Value: 1},
			{Key: "isActive", Value: 1},
		},
		Options: options.Index().SetName("content_classroom_active"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// contents: (classroomId, order) — liệt kê bài học theo thứ tự
	if _, err := contents.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "classroomId", Value: 1},
			{Key: "order", Value: 1},
		},
		Options: options.Index().SetName("content_classroom_order"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	return nil
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "duplicate")
}
