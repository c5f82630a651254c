package contentdto

// ContentCreateInput là dữ liệu tạo content mới dưới một lớp học
type ContentCreateInput struct {
	Title         string `json:"title" validate:"required,min=1,max=300,no_xss"`
	Description   string `json:"description" validate:"omitempty,max=2000,no_xss"`
	ClassroomID   string `json:"classroomId" validate:"required,len=24,hexadecimal"`
	Order         int    `json:"order" validate:"omitempty,min=0"`
	HtmlFileID    string `json:"htmlFileId" validate:"omitempty,max=200"`
	HtmlURL       string `json:"htmlUrl" validate:"omitempty,url"`
	Mp3FileID     string `json:"mp3FileId" validate:"omitempty,max=200"`
	Mp3URL        string `json:"mp3Url" validate:"omitempty,url"`
	HtmlContent   string `json:"htmlContent"`
	Duration      int    `json:"duration" validate:"omitempty,min=0"`
	EpisodeNumber int    `json:"episodeNumber" validate:"omitempty,min=0"`
}

// ContentUpdateInput là dữ liệu cập nhật content (partial).
// Không có classroomId: content không chuyển lớp qua đường này.
type ContentUpdateInput struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=300,no_xss"`
	Description   *string `json:"description" validate:"omitempty,max=2000,no_xss"`
	Order         *int    `json:"order" validate:"omitempty,min=0"`
	IsActive      *bool   `json:"isActive"`
	HtmlFileID    *string `json:"htmlFileId" validate:"omitempty,max=200"`
	HtmlURL       *string `json:"htmlUrl" validate:"omitempty,url"`
	Mp3FileID     *string `json:"mp3FileId" validate:"omitempty,max=200"`
	Mp3URL        *string `json:"mp3Url" validate:"omitempty,url"`
	HtmlContent   *string `json:"htmlContent"`
	Duration      *int    `json:"duration" validate:"omitempty,min=0"`
	EpisodeNumber *int    `json:"episodeNumber" validate:"omitempty,min=0"`
}

// ToSetMap chuyển input thành map các field cần $set (chỉ field không nil)
func (in *ContentUpdateInput) ToSetMap() map[string]interface{} {
	set := make(map[string]interface{})
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Order != nil {
		set["order"] = *in.Order
	}
	if in.IsActive != nil {
		set["isActive"] = *in.IsActive
	}
	if in.HtmlFileID != nil {
		set["htmlFileId"] = *in.HtmlFileID
	}
	if in.HtmlURL != nil {
		set["htmlUrl"] = *in.HtmlURL
	}
	if in.Mp3FileID != nil {
		set["mp3FileId"] = *in.Mp3FileID
	}
	if in.Mp3URL != nil {
		set["mp3Url"] = *in.Mp3URL
	}
	if in.HtmlContent != nil {
		set["htmlContent"] = *in.HtmlContent
	}
	if in.Duration != nil {
		set["duration"] = *in.Duration
	}
	if in.EpisodeNumber != nil {
		set["episodeNumber"] = *in.EpisodeNumber
	}
	return set
}

// ContentOrdersInput là danh sách id theo thứ tự mới sau drag-and-drop
type ContentOrdersInput struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,len=24,hexadecimal"`
}
