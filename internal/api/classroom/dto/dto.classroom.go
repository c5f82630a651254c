package classroomdto

// ClassroomCreateInput là dữ liệu tạo lớp học mới
type ClassroomCreateInput struct {
	Name             string `json:"name" validate:"required,min=1,max=200,no_xss"`
	Description      string `json:"description" validate:"omitempty,max=2000,no_xss"`
	AccessType       string `json:"accessType" validate:"omitempty,oneof=public free draft"`
	ParentID         string `json:"parentId" validate:"omitempty,len=24,hexadecimal"` // Rỗng = lớp gốc
	Order            int    `json:"order" validate:"omitempty,min=0"`
	FreeEpisodeCount int    `json:"freeEpisodeCount" validate:"omitempty,min=0"`
}

// ClassroomUpdateInput là dữ liệu cập nhật lớp học (partial).
// Không có parentId: cấu trúc cây chỉ đổi qua tạo/xóa.
type ClassroomUpdateInput struct {
	Name             *string `json:"name" validate:"omitempty,min=1,max=200,no_xss"`
	Description      *string `json:"description" validate:"omitempty,max=2000,no_xss"`
	AccessType       *string `json:"accessType" validate:"omitempty,oneof=public free draft"`
	Order            *int    `json:"order" validate:"omitempty,min=0"`
	IsActive         *bool   `json:"isActive"`
	FreeEpisodeCount *int    `json:"freeEpisodeCount" validate:"omitempty,min=0"`
}

// ToSetMap chuyển input thành map các field cần $set (chỉ field không nil)
func (in *ClassroomUpdateInput) ToSetMap() map[string]interface{} {
	set := make(map[string]interface{})
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.AccessType != nil {
		set["accessType"] = *in.AccessType
	}
	if in.Order != nil {
		set["order"] = *in.Order
	}
	if in.IsActive != nil {
		set["isActive"] = *in.IsActive
	}
	if in.FreeEpisodeCount != nil {
		set["freeEpisodeCount"] = *in.FreeEpisodeCount
	}
	return set
}

// ClassroomOrdersInput là danh sách id theo thứ tự mới sau drag-and-drop
type ClassroomOrdersInput struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,len=24,hexadecimal"`
}

// ClassroomDeleteManyInput là danh sách id lớp học cần xóa (cascading)
type ClassroomDeleteManyInput struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,len=24,hexadecimal"`
}
