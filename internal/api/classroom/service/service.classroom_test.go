package classroomsvc

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"folk_academy/internal/api/base/service/svctest"
	classroommodels "folk_academy/internal/api/classroom/models"
	contentmodels "folk_academy/internal/api/content/models"
	"folk_academy/internal/common"
)

// fakeDeleter giả lập drive-proxy: ghi nhận các file đã xóa, thất bại với các
// file id được cấu hình trước.
type fakeDeleter struct {
	fail    map[string]bool
	deleted []string
}

func newFakeDeleter(failIDs ...string) *fakeDeleter {
	fail := make(map[string]bool, len(failIDs))
	for _, id := range failIDs {
		fail[id] = true
	}
	return &fakeDeleter{fail: fail}
}

func (d *fakeDeleter) DeleteFile(ctx context.Context, fileID string) error {
	if d.fail[fileID] {
		return fmt.Errorf("drive-proxy trả về lỗi cho file %s", fileID)
	}
	d.deleted = append(d.deleted, fileID)
	return nil
}

func newTestService(failFiles ...string) (*ClassroomService, *svctest.MemoryStore[classroommodels.Classroom], *svctest.MemoryStore[contentmodels.Content], *fakeDeleter) {
	classrooms := svctest.NewMemoryStore[classroommodels.Classroom]()
	contents := svctest.NewMemoryStore[contentmodels.Content]()
	deleter := newFakeDeleter(failFiles...)
	svc := NewClassroomServiceWithDeps(classrooms, contents, deleter)
	return svc, classrooms, contents, deleter
}

func createClassroom(t *testing.T, svc *ClassroomService, name string, parentID *primitive.ObjectID) classroommodels.Classroom {
	t.Helper()
	cls, err := svc.Create(context.Background(), classroommodels.Classroom{
		Name:     name,
		ParentID: parentID,
	})
	require.NoError(t, err, "tạo lớp học %s không được lỗi", name)
	return cls
}

// seedContent chèn một content thô. activeState: true/false, hoặc nil để
// giả lập content cũ chưa có field isActive.
func seedContent(contents *svctest.MemoryStore[contentmodels.Content], classroomID primitive.ObjectID, activeState interface{}, fileIDs ...string) primitive.ObjectID {
	doc := map[string]interface{}{
		"title":       "bài học",
		"classroomId": classroomID,
	}
	if activeState != nil {
		doc["isActive"] = activeState
	}
	if len(fileIDs) > 0 {
		doc["htmlFileId"] = fileIDs[0]
	}
	if len(fileIDs) > 1 {
		doc["mp3FileId"] = fileIDs[1]
	}
	return contents.PutRaw(doc)
}

// =========================================
// CREATE
// =========================================

func TestCreateAssignsDepthFromParent(t *testing.T) {
	svc, _, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	assert.Equal(t, 0, root.Depth)
	assert.Nil(t, root.ParentID)

	child := createClassroom(t, svc, "Con", &root.ID)
	assert.Equal(t, 1, child.Depth)

	grandchild := createClassroom(t, svc, "Cháu", &child.ID)
	assert.Equal(t, 2, grandchild.Depth)
}

func TestCreateAtMaxDepthFails(t *testing.T) {
	svc, classrooms, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	child := createClassroom(t, svc, "Con", &root.ID)
	grandchild := createClassroom(t, svc, "Cháu", &child.ID)

	_, err := svc.Create(context.Background(), classroommodels.Classroom{
		Name:     "Chắt",
		ParentID: &grandchild.ID,
	})
	assert.ErrorIs(t, err, common.ErrDepthExceeded)

	// Không có write nào xảy ra
	assert.Equal(t, 3, classrooms.Len())
	updated, err := svc.GetById(context.Background(), grandchild.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.ChildCount, "childCount của lớp cháu không được thay đổi")
}

func TestCreateUnderMissingParent(t *testing.T) {
	svc, classrooms, _, _ := newTestService()

	missing := primitive.NewObjectID()
	_, err := svc.Create(context.Background(), classroommodels.Classroom{
		Name:     "Mồ côi",
		ParentID: &missing,
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, 0, classrooms.Len(), "không được insert khi cha không tồn tại")
}

func TestCreateIncrementsParentChildCount(t *testing.T) {
	svc, _, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	createClassroom(t, svc, "Con 1", &root.ID)
	createClassroom(t, svc, "Con 2", &root.ID)

	updated, err := svc.GetById(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.ChildCount)
}

func TestCreateDefaults(t *testing.T) {
	svc, _, _, _ := newTestService()

	cls := createClassroom(t, svc, "Mặc định", nil)
	assert.True(t, cls.IsActive)
	assert.Equal(t, classroommodels.AccessTypeDraft, cls.AccessType)
	assert.Equal(t, int64(0), cls.ChildCount)
	assert.Equal(t, int64(0), cls.ContentCount)
	assert.Greater(t, cls.CreatedAt, int64(0))
}

// =========================================
// UPDATE
// =========================================

func TestUpdateStripsStructuralFields(t *testing.T) {
	svc, _, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	child := createClassroom(t, svc, "Con", &root.ID)

	other := primitive.NewObjectID()
	updated, err := svc.Update(context.Background(), child.ID, map[string]interface{}{
		"name":       "Con đổi tên",
		"parentId":   other,
		"depth":      5,
		"childCount": 99,
	})
	require.NoError(t, err)

	assert.Equal(t, "Con đổi tên", updated.Name)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, root.ID, *updated.ParentID, "parentId không được đổi qua Update")
	assert.Equal(t, 1, updated.Depth)
	assert.Equal(t, int64(0), updated.ChildCount)
}

func TestUpdateWithNoFieldsFails(t *testing.T) {
	svc, _, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	_, err := svc.Update(context.Background(), root.ID, map[string]interface{}{
		"parentId": primitive.NewObjectID(),
	})
	assert.Error(t, err, "update chỉ chứa field bị chặn phải trả về lỗi")
}

func TestUpdateTouchesUpdatedAt(t *testing.T) {
	svc, _, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	updated, err := svc.Update(context.Background(), root.ID, map[string]interface{}{
		"description": "mô tả mới",
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, updated.UpdatedAt, root.UpdatedAt)
}

// =========================================
// DELETE (CASCADING)
// =========================================

func TestDeleteCascadesSubtreeAndContents(t *testing.T) {
	svc, classrooms, contents, deleter := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	child := createClassroom(t, svc, "Con", &root.ID)
	grandchild := createClassroom(t, svc, "Cháu", &child.ID)
	outsider := createClassroom(t, svc, "Ngoài cuộc", nil)

	seedContent(contents, root.ID, true, "html-1", "mp3-1")
	seedContent(contents, child.ID, true, "html-2")
	seedContent(contents, grandchild.ID, false)
	outsiderContent := seedContent(contents, outsider.ID, true)

	result, err := svc.Delete(context.Background(), root.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.DeletedClassrooms)
	assert.Equal(t, int64(3), result.DeletedContents)
	assert.Empty(t, result.FailedFileIds)

	// Toàn bộ subtree và content của nó biến mất, phần ngoài giữ nguyên
	assert.Equal(t, 1, classrooms.Len())
	assert.Equal(t, 1, contents.Len())
	assert.NotNil(t, contents.Doc(outsiderContent))

	// File ngoài của subtree đã được xóa
	assert.ElementsMatch(t, []string{"html-1", "mp3-1", "html-2"}, deleter.deleted)
}

func TestDeleteDecrementsSurvivingParent(t *testing.T) {
	svc, _, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	child := createClassroom(t, svc, "Con", &root.ID)

	_, err := svc.Delete(context.Background(), child.ID)
	require.NoError(t, err)

	updated, err := svc.GetById(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.ChildCount)
}

func TestDeleteMissingClassroom(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Delete(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteReportsFailedFileIds(t *testing.T) {
	svc, classrooms, contents, _ := newTestService("mp3-hong")

	root := createClassroom(t, svc, "Gốc", nil)
	seedContent(contents, root.ID, true, "html-ok", "mp3-hong")

	result, err := svc.Delete(context.Background(), root.ID)
	require.NoError(t, err, "file xóa thất bại không được làm hỏng thao tác xóa metadata")

	assert.Equal(t, []string{"mp3-hong"}, result.FailedFileIds)
	assert.Equal(t, int64(1), result.DeletedContents, "metadata vẫn phải bị xóa")
	assert.Equal(t, 0, classrooms.Len())
	assert.Equal(t, 0, contents.Len())
}

// =========================================
// DELETE MANY
// =========================================

func TestDeleteManyUnionsSubtrees(t *testing.T) {
	// P → A → B, C độc lập. Xóa [A, B, C]: B là hậu duệ của A nên subtree
	// union không đếm B hai lần, và childCount của A không bị giảm (A cũng
	// bị xóa). P sống sót và giảm đúng một lần cho A.
	svc, classrooms, _, _ := newTestService()

	p := createClassroom(t, svc, "P", nil)
	a := createClassroom(t, svc, "A", &p.ID)
	b := createClassroom(t, svc, "B", &a.ID)
	c := createClassroom(t, svc, "C", nil)

	result, err := svc.DeleteMany(context.Background(), []primitive.ObjectID{a.ID, b.ID, c.ID})
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.DeletedClassrooms, "B không được đếm hai lần")
	assert.Equal(t, 1, classrooms.Len())

	updated, err := svc.GetById(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.ChildCount, "P phải được giảm đúng một lần")
}

func TestDeleteManyIgnoresMissingIds(t *testing.T) {
	svc, _, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)

	result, err := svc.DeleteMany(context.Background(), []primitive.ObjectID{root.ID, primitive.NewObjectID()})
	require.NoError(t, err, "id không tồn tại phải được bỏ qua, không phải lỗi")
	assert.Equal(t, int64(1), result.DeletedClassrooms)
}

func TestDeleteManyAllMissing(t *testing.T) {
	svc, _, _, _ := newTestService()

	result, err := svc.DeleteMany(context.Background(), []primitive.ObjectID{primitive.NewObjectID()})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.DeletedClassrooms)
	assert.Equal(t, int64(0), result.DeletedContents)
}

// =========================================
// REORDER
// =========================================

func TestUpdateOrdersAssignsIndexAsOrder(t *testing.T) {
	svc, _, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	c1 := createClassroom(t, svc, "Con 1", &root.ID)
	c2 := createClassroom(t, svc, "Con 2", &root.ID)
	c3 := createClassroom(t, svc, "Con 3", &root.ID)

	// Thứ tự mới sau drag-and-drop: c3, c1, c2
	updated, err := svc.UpdateOrders(context.Background(), []primitive.ObjectID{c3.ID, c1.ID, c2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	children, err := svc.GetChildren(context.Background(), &root.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "Con 3", children[0].Name)
	assert.Equal(t, "Con 1", children[1].Name)
	assert.Equal(t, "Con 2", children[2].Name)
}

// =========================================
// SWEEP
// =========================================

func TestCleanupOrphansResetsToRoot(t *testing.T) {
	svc, classrooms, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	createClassroom(t, svc, "Con hợp lệ", &root.ID)

	// Giả lập orphan: parentId trỏ tới lớp đã bị xóa
	orphanID := classrooms.PutRaw(map[string]interface{}{
		"name":     "Mồ côi",
		"parentId": primitive.NewObjectID(),
		"depth":    2,
		"isActive": true,
	})

	repaired, err := svc.CleanupOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), repaired)

	doc := classrooms.Doc(orphanID)
	require.NotNil(t, doc)
	_, hasParent := doc["parentId"]
	assert.False(t, hasParent, "orphan phải bị bỏ parentId")
	assert.EqualValues(t, 0, doc["depth"])

	// Idempotent: chạy lại ngay không sửa gì
	repaired, err = svc.CleanupOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), repaired)
}

func TestSyncContentCountsConverges(t *testing.T) {
	svc, _, contents, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)

	seedContent(contents, root.ID, true)
	seedContent(contents, root.ID, false)
	seedContent(contents, root.ID, nil) // content cũ thiếu isActive

	// contentCount đang là 0 nhưng số content active thật (sau backfill) là 2
	updated, err := svc.SyncContentCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated, "1 backfill + 1 sửa counter")

	cls, err := svc.GetById(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cls.ContentCount)

	// Idempotent: chạy lại ngay không sửa gì
	updated, err = svc.SyncContentCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)
}

// =========================================
// READ
// =========================================

func TestGetHierarchyFullChain(t *testing.T) {
	svc, _, _, _ := newTestService()

	root := createClassroom(t, svc, "Gốc", nil)
	child := createClassroom(t, svc, "Con", &root.ID)
	grandchild := createClassroom(t, svc, "Cháu", &child.ID)

	chain, err := svc.GetHierarchy(context.Background(), grandchild.ID)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, root.ID, chain[0].ID)
	assert.Equal(t, child.ID, chain[1].ID)
	assert.Equal(t, grandchild.ID, chain[2].ID)
}

func TestGetHierarchyBrokenLinkReturnsPartialChain(t *testing.T) {
	svc, classrooms, _, _ := newTestService()

	// X là orphan (cha đã bị xóa), Y là con của X
	xID := classrooms.PutRaw(map[string]interface{}{
		"name":     "X",
		"parentId": primitive.NewObjectID(),
		"depth":    1,
		"isActive": true,
	})
	yID := classrooms.PutRaw(map[string]interface{}{
		"name":     "Y",
		"parentId": xID,
		"depth":    2,
		"isActive": true,
	})

	chain, err := svc.GetHierarchy(context.Background(), yID)
	require.NoError(t, err, "link gãy không phải lỗi, trả về chuỗi một phần")
	require.Len(t, chain, 2)
	assert.Equal(t, xID, chain[0].ID)
	assert.Equal(t, yID, chain[1].ID)
}

func TestGetHierarchyMissingClassroom(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.GetHierarchy(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetChildrenRootsOnly(t *testing.T) {
	svc, _, _, _ := newTestService()

	r1 := createClassroom(t, svc, "Gốc 1", nil)
	createClassroom(t, svc, "Gốc 2", nil)
	createClassroom(t, svc, "Con", &r1.ID)

	roots, err := svc.GetChildren(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, roots, 2, "chỉ các lớp gốc (không có parentId)")
}
