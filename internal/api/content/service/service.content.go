// Package contentsvc quản lý content (bài học) thuộc các lớp học.
// Tạo/xóa content cập nhật contentCount denormalized trên lớp học sở hữu;
// sweep SyncContentCounts của classroom service là lưới an toàn cho counter.
package contentsvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	basesvc "folk_academy/internal/api/base/service"
	classroommodels "folk_academy/internal/api/classroom/models"
	contentmodels "folk_academy/internal/api/content/models"
	"folk_academy/internal/common"
	"folk_academy/internal/drive"
	"folk_academy/internal/global"
	"folk_academy/internal/logger"
)

// ContentDeletionResult là kết quả xóa content: metadata đã xóa, danh sách
// file ngoài không xóa được (nếu có) để caller xử lý tiếp.
type ContentDeletionResult struct {
	DeletedContents int64    `json:"deletedContents"`
	FailedFileIds   []string `json:"failedFileIds"`
}

// ContentService quản lý CRUD content và bookkeeping contentCount
type ContentService struct {
	contents   basesvc.BaseServiceMongo[contentmodels.Content]
	classrooms basesvc.BaseServiceMongo[classroommodels.Classroom]
	files      drive.Deleter // nil nếu không cấu hình drive-proxy
}

// NewContentService tạo service từ các collection đã đăng ký trong registry
func NewContentService() (*ContentService, error) {
	colContents, ok := global.RegistryCollections.Get(global.MongoDB_ColNames.Contents)
	if !ok {
		return nil, fmt.Errorf("collection %s chưa được đăng ký", global.MongoDB_ColNames.Contents)
	}
	colClassrooms, ok := global.RegistryCollections.Get(global.MongoDB_ColNames.Classrooms)
	if !ok {
		return nil, fmt.Errorf("collection %s chưa được đăng ký", global.MongoDB_ColNames.Classrooms)
	}

	var deleter drive.Deleter
	if cfg := global.MongoDB_ServerConfig; cfg != nil && cfg.DriveProxyURL != "" {
		deleter = drive.NewClient(cfg.DriveProxyURL, cfg.DriveProxyToken)
	}

	return NewContentServiceWithDeps(
		basesvc.NewBaseServiceMongo[contentmodels.Content](colContents),
		basesvc.NewBaseServiceMongo[classroommodels.Classroom](colClassrooms),
		deleter,
	), nil
}

// NewContentServiceWithDeps tạo service với dependencies tường minh (dùng cho test)
func NewContentServiceWithDeps(
	contents basesvc.BaseServiceMongo[contentmodels.Content],
	classrooms basesvc.BaseServiceMongo[classroommodels.Classroom],
	files drive.Deleter,
) *ContentService {
	return &ContentService{
		contents:   contents,
		classrooms: classrooms,
		files:      files,
	}
}

// Create tạo content mới dưới một lớp học.
// Lớp học không tồn tại → ErrNotFound trước mọi write. Sau khi insert,
// contentCount của lớp học được tăng bằng một write riêng (best-effort).
func (s *ContentService) Create(ctx context.Context, content contentmodels.Content) (contentmodels.Content, error) {
	var zero contentmodels.Content

	if _, err := s.classrooms.FindOneById(ctx, content.ClassroomID); err != nil {
		return zero, err
	}

	content.IsActive = true

	created, err := s.contents.InsertOne(ctx, content)
	if err != nil {
		return zero, err
	}

	if _, err := s.classrooms.UpdateById(ctx, content.ClassroomID, &basesvc.UpdateData{
		Inc: map[string]interface{}{"contentCount": int64(1)},
	}); err != nil {
		logger.GetAppLogger().WithError(err).WithField("classroomId", content.ClassroomID.Hex()).
			Warn("Không tăng được contentCount của lớp học, sweep sẽ đồng bộ lại")
	}

	return created, nil
}

// Update merge các field vào content. Không cho đổi classroomId qua đường này.
// Nếu isActive thay đổi, contentCount của lớp học được điều chỉnh best-effort.
func (s *ContentService) Update(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) (contentmodels.Content, error) {
	var zero contentmodels.Content

	delete(set, "classroomId")
	delete(set, "_id")

	if len(set) == 0 {
		return zero, common.NewError(
			common.ErrCodeValidationInput,
			"Không có field nào để cập nhật",
			common.StatusBadRequest,
			nil,
		)
	}

	existing, err := s.contents.FindOneById(ctx, id)
	if err != nil {
		return zero, err
	}

	updated, err := s.contents.UpdateById(ctx, id, &basesvc.UpdateData{Set: set})
	if err != nil {
		return zero, err
	}

	// Điều chỉnh counter nếu trạng thái active thay đổi
	if updated.IsActive != existing.IsActive {
		delta := int64(1)
		if !updated.IsActive {
			delta = -1
		}
		if _, err := s.classrooms.UpdateById(ctx, updated.ClassroomID, &basesvc.UpdateData{
			Inc: map[string]interface{}{"contentCount": delta},
		}); err != nil {
			logger.GetAppLogger().WithError(err).WithField("classroomId", updated.ClassroomID.Hex()).
				Warn("Không điều chỉnh được contentCount của lớp học, sweep sẽ đồng bộ lại")
		}
	}

	return updated, nil
}

// Delete xóa một content: xóa file ngoài best-effort, xóa metadata, giảm
// contentCount của lớp học. File xóa thất bại được báo trong kết quả,
// metadata vẫn bị xóa.
func (s *ContentService) Delete(ctx context.Context, id primitive.ObjectID) (*ContentDeletionResult, error) {
	content, err := s.contents.FindOneById(ctx, id)
	if err != nil {
		return nil, err
	}

	var failedFiles []string
	if s.files != nil {
		for _, fileID := range content.FileIDs() {
			if err := s.files.DeleteFile(ctx, fileID); err != nil {
				logger.GetAppLogger().WithError(err).WithField("fileId", fileID).
					Warn("Không xóa được file ngoài, metadata vẫn sẽ bị xóa")
				failedFiles = append(failedFiles, fileID)
			}
		}
	}

	if err := s.contents.DeleteById(ctx, id); err != nil {
		return nil, err
	}

	if content.IsActive {
		if _, err := s.classrooms.UpdateById(ctx, content.ClassroomID, &basesvc.UpdateData{
			Inc: map[string]interface{}{"contentCount": int64(-1)},
		}); err != nil {
			logger.GetAppLogger().WithError(err).WithField("classroomId", content.ClassroomID.Hex()).
				Warn("Không giảm được contentCount của lớp học, sweep sẽ đồng bộ lại")
		}
	}

	return &ContentDeletionResult{
		DeletedContents: 1,
		FailedFileIds:   failedFiles,
	}, nil
}

// UpdateOrders gán order = vị trí trong danh sách cho từng content, trong một
// atomic batch. Caller đảm bảo các id cùng lớp học.
func (s *ContentService) UpdateOrders(ctx context.Context, orderedIDs []primitive.ObjectID) (int64, error) {
	if len(orderedIDs) == 0 {
		return 0, nil
	}

	now := time.Now().UnixMilli()
	writes := make([]mongo.WriteModel, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"order": i, "updatedAt": now}}))
	}

	return s.contents.BulkWrite(ctx, writes)
}

// GetByClassroom liệt kê content của một lớp học theo thứ tự order
func (s *ContentService) GetByClassroom(ctx context.Context, classroomID primitive.ObjectID) ([]contentmodels.Content, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	return s.contents.Find(ctx, bson.M{"classroomId": classroomID}, opts)
}

// GetById trả về một content theo id
func (s *ContentService) GetById(ctx context.Context, id primitive.ObjectID) (contentmodels.Content, error) {
	return s.contents.FindOneById(ctx, id)
}
