package contentsvc

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

func newTestService(failFiles ...string) (*ContentService, *svctest.MemoryStore[contentmodels.Content], *svctest.MemoryStore[classroommodels.Classroom], *fakeDeleter) {
	contents := svctest.NewMemoryStore[contentmodels.Content]()
	classrooms := svctest.NewMemoryStore[classroommodels.Classroom]()
	deleter := newFakeDeleter(failFiles...)
	svc := NewContentServiceWithDeps(contents, classrooms, deleter)
	return svc, contents, classrooms, deleter
}

func seedClassroom(t *testing.T, classrooms *svctest.MemoryStore[classroommodels.Classroom]) classroommodels.Classroom {
	t.Helper()
	cls, err := classrooms.InsertOne(context.Background(), classroommodels.Classroom{
		Name:     "Lớp học",
		IsActive: true,
	})
	require.NoError(t, err)
	return cls
}

func TestCreateRequiresExistingClassroom(t *testing.T) {
	svc, contents, _, _ := newTestService()

	_, err := svc.Create(context.Background(), contentmodels.Content{
		Title:       "Bài 1",
		ClassroomID: primitive.NewObjectID(),
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, 0, contents.Len(), "không được insert khi lớp học không tồn tại")
}

func TestCreateIncrementsContentCount(t *testing.T) {
	svc, _, classrooms, _ := newTestService()
	cls := seedClassroom(t, classrooms)

	created, err := svc.Create(context.Background(), contentmodels.Content{
		Title:       "Bài 1",
		ClassroomID: cls.ID,
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive, "content mới luôn active")

	updated, err := classrooms.FindOneById(context.Background(), cls.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ContentCount)
}

func TestUpdateStripsClassroomId(t *testing.T) {
	svc, _, classrooms, _ := newTestService()
	cls := seedClassroom(t, classrooms)

	created, err := svc.Create(context.Background(), contentmodels.Content{
		Title:       "Bài 1",
		ClassroomID: cls.ID,
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, map[string]interface{}{
		"title":       "Bài 1 sửa",
		"classroomId": primitive.NewObjectID(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bài 1 sửa", updated.Title)
	assert.Equal(t, cls.ID, updated.ClassroomID, "content không chuyển lớp qua Update")
}

func TestUpdateIsActiveAdjustsContentCount(t *testing.T) {
	svc, _, classrooms, _ := newTestService()
	cls := seedClassroom(t, classrooms)

	created, err := svc.Create(context.Background(), contentmodels.Content{
		Title:       "Bài 1",
		ClassroomID: cls.ID,
	})
	require.NoError(t, err)

	// Tắt active → giảm counter
	_, err = svc.Update(context.Background(), created.ID, map[string]interface{}{"isActive": false})
	require.NoError(t, err)

	updated, err := classrooms.FindOneById(context.Background(), cls.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.ContentCount)

	// Bật lại → tăng counter
	_, err = svc.Update(context.Background(), created.ID, map[string]interface{}{"isActive": true})
	require.NoError(t, err)

	updated, err = classrooms.FindOneById(context.Background(), cls.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ContentCount)
}

func TestDeleteRemovesFilesAndDecrements(t *testing.T) {
	svc, contents, classrooms, deleter := newTestService()
	cls := seedClassroom(t, classrooms)

	created, err := svc.Create(context.Background(), contentmodels.Content{
		Title:       "Bài 1",
		ClassroomID: cls.ID,
		HtmlFileID:  "html-1",
		Mp3FileID:   "mp3-1",
	})
	require.NoError(t, err)

	result, err := svc.Delete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.DeletedContents)
	assert.Empty(t, result.FailedFileIds)
	assert.ElementsMatch(t, []string{"html-1", "mp3-1"}, deleter.deleted)
	assert.Equal(t, 0, contents.Len())

	updated, err := classrooms.FindOneById(context.Background(), cls.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated.ContentCount)
}

func TestDeleteReportsFailedFileIds(t *testing.T) {
	svc, contents, classrooms, _ := newTestService("mp3-hong")
	cls := seedClassroom(t, classrooms)

	created, err := svc.Create(context.Background(), contentmodels.Content{
		Title:       "Bài 1",
		ClassroomID: cls.ID,
		HtmlFileID:  "html-ok",
		Mp3FileID:   "mp3-hong",
	})
	require.NoError(t, err)

	result, err := svc.Delete(context.Background(), created.ID)
	require.NoError(t, err, "file xóa thất bại không được chặn việc xóa metadata")
	assert.Equal(t, []string{"mp3-hong"}, result.FailedFileIds)
	assert.Equal(t, 0, contents.Len(), "metadata vẫn phải bị xóa")
}

func TestUpdateOrdersAssignsIndexAsOrder(t *testing.T) {
	svc, _, classrooms, _ := newTestService()
	cls := seedClassroom(t, classrooms)

	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		created, err := svc.Create(context.Background(), contentmodels.Content{
			Title:       fmt.Sprintf("Bài %d", i+1),
			ClassroomID: cls.ID,
			Order:       i,
		})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	// Đảo thứ tự: bài 3 lên đầu
	updated, err := svc.UpdateOrders(context.Background(), []primitive.ObjectID{ids[2], ids[0], ids[1]})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	items, err := svc.GetByClassroom(context.Background(), cls.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Bài 3", items[0].Title)
	assert.Equal(t, "Bài 1", items[1].Title)
	assert.Equal(t, "Bài 2", items[2].Title)
}
