package contentmodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// =========================================
// CONTENT MODEL
// =========================================

// Content là một bài học (slide HTML + thuyết minh MP3) thuộc đúng một Classroom.
type Content struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description,omitempty"`
	ClassroomID primitive.ObjectID `json:"classroomId" bson:"classroomId"` // Lớp học sở hữu
	Order       int                `json:"order" bson:"order"`             // Vị trí trong lớp học
	IsActive    bool               `json:"isActive" bson:"isActive"`

	// Tham chiếu media (file id trỏ vào object store ngoài, xóa best-effort khi xóa content)
	HtmlFileID  string `json:"htmlFileId" bson:"htmlFileId,omitempty"`
	HtmlURL     string `json:"htmlUrl" bson:"htmlUrl,omitempty"`
	Mp3FileID   string `json:"mp3FileId" bson:"mp3FileId,omitempty"`
	Mp3URL      string `json:"mp3Url" bson:"mp3Url,omitempty"`
	HtmlContent string `json:"htmlContent" bson:"htmlContent,omitempty"` // HTML inline (thay cho file)

	Duration      int `json:"duration" bson:"duration,omitempty"`           // Thời lượng (giây)
	EpisodeNumber int `json:"episodeNumber" bson:"episodeNumber,omitempty"` // Số tập

	CreatedAt int64 `json:"createdAt" bson:"createdAt,omitempty"` // Unix millis
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt,omitempty"` // Unix millis
}

// FileIDs trả về danh sách file id ngoài mà content này tham chiếu
func (c *Content) FileIDs() []string {
	var ids []string
	if c.HtmlFileID != "" {
		ids = append(ids, c.HtmlFileID)
	}
	if c.Mp3FileID != "" {
		ids = append(ids, c.Mp3FileID)
	}
	return ids
}
