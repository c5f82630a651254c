package classroommodels

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các hằng số cấu trúc cây lớp học
const (
	// MaxDepth là độ sâu tối đa của một node trong cây (0 = gốc).
	// Cây có 3 tầng: gốc, con, cháu.
	MaxDepth = 2
)

// Các giá trị accessType của lớp học
const (
	AccessTypePublic = "public" // Hiển thị cho người dùng trả phí
	AccessTypeFree   = "free"   // Hiển thị cho tất cả
	AccessTypeDraft  = "draft"  // Chỉ admin thấy
)

// =========================================
// CLASSROOM MODEL
// =========================================

// Classroom là một node trong rừng lớp học phân cấp.
// childCount/contentCount là số liệu denormalized, được cập nhật tăng dần
// khi mutation và được đồng bộ lại bởi các sweep định kỳ.
type Classroom struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description,omitempty"`
	AccessType  string             `json:"accessType" bson:"accessType"`

	// Liên kết cây
	ParentID *primitive.ObjectID `json:"parentId" bson:"parentId,omitempty"` // nil = gốc
	Depth    int                 `json:"depth" bson:"depth"`                 // 0..MaxDepth, luôn = depth(parent) + 1
	Order    int                 `json:"order" bson:"order"`                 // Vị trí trong nhóm sibling

	// Số liệu denormalized
	ChildCount   int64 `json:"childCount" bson:"childCount"`     // Số lớp con trực tiếp
	ContentCount int64 `json:"contentCount" bson:"contentCount"` // Số content đang active thuộc lớp này

	IsActive         bool `json:"isActive" bson:"isActive"`
	FreeEpisodeCount int  `json:"freeEpisodeCount" bson:"freeEpisodeCount,omitempty"` // Số bài học miễn phí dù accessType trả phí

	CreatedAt int64 `json:"createdAt" bson:"createdAt,omitempty"` // Unix millis
	UpdatedAt int64 `json:"updatedAt" bson:"updatedAt,omitempty"` // Unix millis
}
