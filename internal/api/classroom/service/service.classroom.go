// Package classroomsvc quản lý cây lớp học phân cấp (tối đa 3 tầng).
//
// Các bất biến của cây:
//  1. depth(node) = depth(parent) + 1, hoặc 0 với node gốc; depth <= MaxDepth.
//  2. childCount(node) = số lớp con trực tiếp.
//  3. contentCount(node) = số content đang active thuộc node.
//  4. parentId không trỏ tới node không tồn tại (orphan là trạng thái tạm,
//     được sweep CleanupOrphans sửa lại).
//  5. Xóa node xóa toàn bộ subtree và mọi content thuộc subtree đó.
//
// Các mutation không chạy trong transaction nhiều bước: store chỉ đảm bảo
// nguyên tử trong một atomic batch. Độ chính xác của counter dựa trên hai
// sweep idempotent (CleanupOrphans, SyncContentCounts) thay vì lock.
package classroomsvc

import (
	"context"
	"errors"
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

// DeletionResult là kết quả của một thao tác xóa cascading.
// FailedFileIds chứa các file id ngoài không xóa được — metadata vẫn xóa
// thành công, caller phải được thấy danh sách này (không bao giờ nuốt).
type DeletionResult struct {
	DeletedClassrooms int64    `json:"deletedClassrooms"`
	DeletedContents   int64    `json:"deletedContents"`
	FailedFileIds     []string `json:"failedFileIds"`
}

// ClassroomService duy trì rừng lớp học trên document store.
// Giữ interface thay vì struct cụ thể để test được với store giả lập.
type ClassroomService struct {
	classrooms basesvc.BaseServiceMongo[classroommodels.Classroom]
	contents   basesvc.BaseServiceMongo[contentmodels.Content]
	files      drive.Deleter // nil nếu không cấu hình drive-proxy
}

// NewClassroomService tạo service từ các collection đã đăng ký trong registry
func NewClassroomService() (*ClassroomService, error) {
	colClassrooms, ok := global.RegistryCollections.Get(global.MongoDB_ColNames.Classrooms)
	if !ok {
		return nil, fmt.Errorf("collection %s chưa được đăng ký", global.MongoDB_ColNames.Classrooms)
	}
	colContents, ok := global.RegistryCollections.Get(global.MongoDB_ColNames.Contents)
	if !ok {
		return nil, fmt.Errorf("collection %s chưa được đăng ký", global.MongoDB_ColNames.Contents)
	}

	var deleter drive.Deleter
	if cfg := global.MongoDB_ServerConfig; cfg != nil && cfg.DriveProxyURL != "" {
		deleter = drive.NewClient(cfg.DriveProxyURL, cfg.DriveProxyToken)
	}

	return NewClassroomServiceWithDeps(
		basesvc.NewBaseServiceMongo[classroommodels.Classroom](colClassrooms),
		basesvc.NewBaseServiceMongo[contentmodels.Content](colContents),
		deleter,
	), nil
}

// NewClassroomServiceWithDeps tạo service với dependencies tường minh (dùng cho worker và test)
func NewClassroomServiceWithDeps(
	classrooms basesvc.BaseServiceMongo[classroommodels.Classroom],
	contents basesvc.BaseServiceMongo[contentmodels.Content],
	files drive.Deleter,
) *ClassroomService {
	return &ClassroomService{
		classrooms: classrooms,
		contents:   contents,
		files:      files,
	}
}

// =========================================
// CREATE / UPDATE
// =========================================

// Create tạo một lớp học mới, tùy chọn dưới một lớp cha.
//
// Validation chạy trước mọi write: cha không tồn tại → ErrNotFound, cha đã ở
// độ sâu tối đa → ErrDepthExceeded. Sau khi insert, childCount của cha được
// tăng bằng một write riêng (không transaction); nếu write đó thất bại thì
// sweep SyncContentCounts/CleanupOrphans sẽ đồng bộ lại sau.
//
// Lưu ý: kiểm tra độ sâu đọc cha một lần trước khi insert nên hai request
// tạo đồng thời không loại trừ lẫn nhau. depth luôn suy ra từ cha đã đọc
// nên không vượt được MaxDepth.
func (s *ClassroomService) Create(ctx context.Context, cls classroommodels.Classroom) (classroommodels.Classroom, error) {
	var zero classroommodels.Classroom

	if cls.ParentID != nil {
		parent, err := s.classrooms.FindOneById(ctx, *cls.ParentID)
		if err != nil {
			return zero, err
		}
		if parent.Depth >= classroommodels.MaxDepth {
			return zero, common.ErrDepthExceeded
		}
		cls.Depth = parent.Depth + 1
	} else {
		cls.Depth = 0
	}

	// Khởi tạo counter và trạng thái
	cls.ChildCount = 0
	cls.ContentCount = 0
	cls.IsActive = true
	if cls.AccessType == "" {
		cls.AccessType = classroommodels.AccessTypeDraft
	}

	created, err := s.classrooms.InsertOne(ctx, cls)
	if err != nil {
		return zero, err
	}

	if cls.ParentID != nil {
		if _, err := s.classrooms.UpdateById(ctx, *cls.ParentID, &basesvc.UpdateData{
			Inc: map[string]interface{}{"childCount": int64(1)},
		}); err != nil {
			logger.GetAppLogger().WithError(err).WithField("parentId", cls.ParentID.Hex()).
				Warn("Không tăng được childCount của lớp cha, sweep sẽ đồng bộ lại")
		}
	}

	return created, nil
}

// Update merge các field vào lớp học. Không cho đổi parentId/depth qua đường
// này: thay đổi cấu trúc cây chỉ qua Create/Delete.
func (s *ClassroomService) Update(ctx context.Context, id primitive.ObjectID, set map[string]interface{}) (classroommodels.Classroom, error) {
	var zero classroommodels.Classroom

	// Chặn các field cấu trúc và counter
	delete(set, "parentId")
	delete(set, "depth")
	delete(set, "childCount")
	delete(set, "contentCount")
	delete(set, "_id")

	if len(set) == 0 {
		return zero, common.NewError(
			common.ErrCodeValidationInput,
			"Không có field nào để cập nhật",
			common.StatusBadRequest,
			nil,
		)
	}

	return s.classrooms.UpdateById(ctx, id, &basesvc.UpdateData{Set: set})
}

// =========================================
// DELETE (CASCADING)
// =========================================

// Delete xóa lớp học cùng toàn bộ subtree và mọi content thuộc subtree.
//
// Thứ tự: thu thập hậu duệ → xóa content (kèm file ngoài best-effort) → xóa
// các document lớp học theo atomic batch → giảm childCount lớp cha còn sống.
// Giảm childCount thất bại (cha bị xóa đồng thời) được nuốt và để sweep xử lý.
func (s *ClassroomService) Delete(ctx context.Context, id primitive.ObjectID) (*DeletionResult, error) {
	node, err := s.classrooms.FindOneById(ctx, id)
	if err != nil {
		return nil, err
	}

	subtree, _, err := s.collectSubtreeIds(ctx, []primitive.ObjectID{id})
	if err != nil {
		return nil, err
	}

	deletedContents, failedFiles, err := s.deleteContentsForClassrooms(ctx, subtree)
	if err != nil {
		return nil, err
	}

	deletedClassrooms, err := s.deleteClassroomDocs(ctx, subtree)
	if err != nil {
		return nil, err
	}

	if node.ParentID != nil {
		s.decrementChildCounts(ctx, map[primitive.ObjectID]int64{*node.ParentID: 1})
	}

	return &DeletionResult{
		DeletedClassrooms: deletedClassrooms,
		DeletedContents:   deletedContents,
		FailedFileIds:     failedFiles,
	}, nil
}

// DeleteMany xóa một tập lớp học (cùng subtree của từng lớp) trong một lần gọi.
//
// Subtree của các lớp được union lại nên một node là hậu duệ của node khác
// trong tập không bị đếm hai lần. childCount chỉ giảm trên các lớp cha còn
// sống: cha nằm trong tập bị xóa thì bỏ qua (giảm lúc đó là vô nghĩa).
// Id không tồn tại trong danh sách được bỏ qua, không phải lỗi.
func (s *ClassroomService) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (*DeletionResult, error) {
	roots, err := s.classrooms.FindManyByIds(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return &DeletionResult{}, nil
	}

	rootIDs := make([]primitive.ObjectID, 0, len(roots))
	for _, r := range roots {
		rootIDs = append(rootIDs, r.ID)
	}

	subtree, inSubtree, err := s.collectSubtreeIds(ctx, rootIDs)
	if err != nil {
		return nil, err
	}

	// Mỗi root còn cha sống ngoài tập xóa đóng góp đúng một lần giảm.
	// Root là hậu duệ của root khác thì cha của nó cũng nằm trong tập xóa.
	decrements := make(map[primitive.ObjectID]int64)
	for _, r := range roots {
		if r.ParentID != nil && !inSubtree[*r.ParentID] {
			decrements[*r.ParentID]++
		}
	}

	deletedContents, failedFiles, err := s.deleteContentsForClassrooms(ctx, subtree)
	if err != nil {
		return nil, err
	}

	deletedClassrooms, err := s.deleteClassroomDocs(ctx, subtree)
	if err != nil {
		return nil, err
	}

	s.decrementChildCounts(ctx, decrements)

	return &DeletionResult{
		DeletedClassrooms: deletedClassrooms,
		DeletedContents:   deletedContents,
		FailedFileIds:     failedFiles,
	}, nil
}

// collectSubtreeIds thu thập id của roots và toàn bộ hậu duệ bằng BFS qua
// truy vấn parentId. Set trả về dùng để kiểm tra thành viên nhanh.
func (s *ClassroomService) collectSubtreeIds(ctx context.Context, rootIDs []primitive.ObjectID) ([]primitive.ObjectID, map[primitive.ObjectID]bool, error) {
	seen := make(map[primitive.ObjectID]bool, len(rootIDs))
	var all []primitive.ObjectID

	frontier := make([]primitive.ObjectID, 0, len(rootIDs))
	for _, id := range rootIDs {
		if !seen[id] {
			seen[id] = true
			all = append(all, id)
			frontier = append(frontier, id)
		}
	}

	// seen set chặn chu trình nếu dữ liệu parentId bị hỏng
	for len(frontier) > 0 {
		children, err := s.classrooms.Find(ctx, bson.M{"parentId": bson.M{"$in": frontier}}, nil)
		if err != nil {
			return nil, nil, err
		}

		var next []primitive.ObjectID
		for _, c := range children {
			if !seen[c.ID] {
				seen[c.ID] = true
				all = append(all, c.ID)
				next = append(next, c.ID)
			}
		}
		frontier = next
	}

	return all, seen, nil
}

// deleteContentsForClassrooms xóa mọi content thuộc các lớp học đã cho, xử lý
// tuần tự từng lớp một. File ngoài được xóa best-effort trước khi xóa
// metadata; file xóa thất bại được gom vào danh sách trả về.
func (s *ClassroomService) deleteContentsForClassrooms(ctx context.Context, classroomIDs []primitive.ObjectID) (int64, []string, error) {
	log := logger.GetAppLogger()

	var deleted int64
	var failedFiles []string

	for _, cid := range classroomIDs {
		items, err := s.contents.Find(ctx, bson.M{"classroomId": cid}, nil)
		if err != nil {
			return deleted, failedFiles, err
		}
		if len(items) == 0 {
			continue
		}

		writes := make([]mongo.WriteModel, 0, len(items))
		for _, item := range items {
			if s.files != nil {
				for _, fileID := range item.FileIDs() {
					if err := s.files.DeleteFile(ctx, fileID); err != nil {
						log.WithError(err).WithField("fileId", fileID).
							Warn("Không xóa được file ngoài, metadata vẫn sẽ bị xóa")
						failedFiles = append(failedFiles, fileID)
					}
				}
			}
			writes = append(writes, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": item.ID}))
		}

		n, err := s.contents.BulkWrite(ctx, writes)
		if err != nil {
			return deleted, failedFiles, err
		}
		deleted += n
	}

	return deleted, failedFiles, nil
}

// deleteClassroomDocs xóa các document lớp học theo atomic batch
func (s *ClassroomService) deleteClassroomDocs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	writes := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		writes = append(writes, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": id}))
	}
	return s.classrooms.BulkWrite(ctx, writes)
}

// decrementChildCounts giảm childCount trên các lớp cha còn sống, best-effort.
// Lỗi được nuốt: cha có thể vừa bị xóa đồng thời, sweep sẽ đồng bộ lại.
func (s *ClassroomService) decrementChildCounts(ctx context.Context, decrements map[primitive.ObjectID]int64) {
	if len(decrements) == 0 {
		return
	}

	now := time.Now().UnixMilli()
	writes := make([]mongo.WriteModel, 0, len(decrements))
	for pid, n := range decrements {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": pid}).
			SetUpdate(bson.M{
				"$inc": bson.M{"childCount": -n},
				"$set": bson.M{"updatedAt": now},
			}))
	}

	if _, err := s.classrooms.BulkWrite(ctx, writes); err != nil {
		logger.GetAppLogger().WithError(err).
			Warn("Không giảm được childCount của lớp cha, sweep sẽ đồng bộ lại")
	}
}

// =========================================
// REORDER
// =========================================

// UpdateOrders gán order = vị trí trong danh sách cho từng lớp học, trong một
// atomic batch. Dùng sau drag-and-drop trong một nhóm sibling; caller đảm bảo
// các id cùng cha, service không kiểm tra lại.
func (s *ClassroomService) UpdateOrders(ctx context.Context, orderedIDs []primitive.ObjectID) (int64, error) {
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

	return s.classrooms.BulkWrite(ctx, writes)
}

// =========================================
// SWEEP (EVENTUAL CONSISTENCY)
// =========================================

// CleanupOrphans tìm các lớp học có parentId trỏ tới lớp không còn tồn tại
// và đưa chúng về gốc (bỏ parentId, depth = 0). Idempotent: gọi lần hai ngay
// sau đó không sửa gì. Trả về số lớp đã sửa.
func (s *ClassroomService) CleanupOrphans(ctx context.Context) (int64, error) {
	all, err := s.classrooms.Find(ctx, nil, nil)
	if err != nil {
		return 0, err
	}

	valid := make(map[primitive.ObjectID]bool, len(all))
	for _, c := range all {
		valid[c.ID] = true
	}

	now := time.Now().UnixMilli()
	var writes []mongo.WriteModel
	for _, c := range all {
		if c.ParentID != nil && !valid[*c.ParentID] {
			writes = append(writes, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": c.ID}).
				SetUpdate(bson.M{
					"$set":   bson.M{"depth": 0, "updatedAt": now},
					"$unset": bson.M{"parentId": ""},
				}))
		}
	}

	if len(writes) == 0 {
		return 0, nil
	}

	repaired, err := s.classrooms.BulkWrite(ctx, writes)
	if err != nil {
		return repaired, err
	}

	logger.GetAppLogger().WithField("repaired", repaired).Info("Đã đưa các lớp học mồ côi về gốc")
	return repaired, nil
}

// SyncContentCounts tính lại contentCount thật của từng lớp học và sửa các
// giá trị lệch; đồng thời backfill isActive = true cho content thiếu field
// này. Trả về tổng số write sửa lỗi (backfill + sửa counter).
func (s *ClassroomService) SyncContentCounts(ctx context.Context) (int64, error) {
	// Backfill content cũ chưa có isActive
	backfilled, err := s.contents.UpdateMany(ctx,
		bson.M{"isActive": bson.M{"$exists": false}},
		&basesvc.UpdateData{Set: map[string]interface{}{"isActive": true}},
		nil,
	)
	if err != nil {
		return 0, err
	}

	all, err := s.classrooms.Find(ctx, nil, nil)
	if err != nil {
		return backfilled, err
	}

	now := time.Now().UnixMilli()
	var writes []mongo.WriteModel
	for _, c := range all {
		trueCount, err := s.contents.CountDocuments(ctx, bson.M{"classroomId": c.ID, "isActive": true})
		if err != nil {
			return backfilled, err
		}
		if trueCount != c.ContentCount {
			writes = append(writes, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": c.ID}).
				SetUpdate(bson.M{"$set": bson.M{"contentCount": trueCount, "updatedAt": now}}))
		}
	}

	corrected, err := s.classrooms.BulkWrite(ctx, writes)
	if err != nil {
		return backfilled + corrected, err
	}

	if corrected > 0 || backfilled > 0 {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"corrected":  corrected,
			"backfilled": backfilled,
		}).Info("Đã đồng bộ lại contentCount")
	}

	return backfilled + corrected, nil
}

// =========================================
// READ
// =========================================

// GetHierarchy đi ngược parentId từ lớp học lên gốc, trả về chuỗi gốc..id
// (dùng cho breadcrumb). Gặp link gãy thì dừng không lỗi, trả về chuỗi một
// phần kết thúc tại node mồ côi.
func (s *ClassroomService) GetHierarchy(ctx context.Context, id primitive.ObjectID) ([]classroommodels.Classroom, error) {
	node, err := s.classrooms.FindOneById(ctx, id)
	if err != nil {
		return nil, err
	}

	chain := []classroommodels.Classroom{node}
	visited := map[primitive.ObjectID]bool{node.ID: true}

	current := node
	for current.ParentID != nil {
		// Chặn chu trình nếu dữ liệu parentId bị hỏng
		if visited[*current.ParentID] {
			break
		}

		parent, err := s.classrooms.FindOneById(ctx, *current.ParentID)
		if errors.Is(err, common.ErrNotFound) {
			// Link gãy: trả về chuỗi một phần
			break
		}
		if err != nil {
			return nil, err
		}

		visited[parent.ID] = true
		chain = append([]classroommodels.Classroom{parent}, chain...)
		current = parent
	}

	return chain, nil
}

// GetChildren liệt kê lớp con trực tiếp theo thứ tự order.
// parentID nil liệt kê các lớp gốc.
func (s *ClassroomService) GetChildren(ctx context.Context, parentID *primitive.ObjectID) ([]classroommodels.Classroom, error) {
	filter := bson.M{}
	if parentID != nil {
		filter["parentId"] = *parentID
	} else {
		filter["parentId"] = bson.M{"$exists": false}
	}

	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	return s.classrooms.Find(ctx, filter, opts)
}

// GetById trả về một lớp học theo id
func (s *ClassroomService) GetById(ctx context.Context, id primitive.ObjectID) (classroommodels.Classroom, error) {
	return s.classrooms.FindOneById(ctx, id)
}
