package contenthdl

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "folk_academy/internal/api/base/handler"
	contentdto "folk_academy/internal/api/content/dto"
	contentmodels "folk_academy/internal/api/content/models"
	contentsvc "folk_academy/internal/api/content/service"
	"folk_academy/internal/common"
)

// ContentHandler xử lý các HTTP request cho content (bài học)
type ContentHandler struct {
	service *contentsvc.ContentService
}

// NewContentHandler tạo handler mới
func NewContentHandler() (*ContentHandler, error) {
	service, err := contentsvc.NewContentService()
	if err != nil {
		return nil, err
	}
	return &ContentHandler{service: service}, nil
}

// HandleCreate tạo content mới dưới một lớp học
// Route: POST /content
func (h *ContentHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input contentdto.ContentCreateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		if err := basehdl.ValidateInput(&input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		classroomID, err := primitive.ObjectIDFromHex(input.ClassroomID)
		if err != nil {
			basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
			return nil
		}

		content := contentmodels.Content{
			Title:         input.Title,
			Description:   input.Description,
			ClassroomID:   classroomID,
			Order:         input.Order,
			HtmlFileID:    input.HtmlFileID,
			HtmlURL:       input.HtmlURL,
			Mp3FileID:     input.Mp3FileID,
			Mp3URL:        input.Mp3URL,
			HtmlContent:   input.HtmlContent,
			Duration:      input.Duration,
			EpisodeNumber: input.EpisodeNumber,
		}

		created, err := h.service.Create(c.Context(), content)
		basehdl.HandleResponse(c, created, err)
		return nil
	})
}

// HandleUpdate cập nhật content (không đổi được classroomId)
// Route: PUT /content/:id
func (h *ContentHandler) HandleUpdate(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		var input contentdto.ContentUpdateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		if err := basehdl.ValidateInput(&input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		updated, err := h.service.Update(c.Context(), id, input.ToSetMap())
		basehdl.HandleResponse(c, updated, err)
		return nil
	})
}

// HandleDelete xóa content: file ngoài best-effort, metadata luôn bị xóa
// Route: DELETE /content/:id
func (h *ContentHandler) HandleDelete(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.service.Delete(c.Context(), id)
		basehdl.HandleResponse(c, result, err)
		return nil
	})
}

// HandleUpdateOrders gán order = index cho danh sách content
// Route: PUT /content/orders
func (h *ContentHandler) HandleUpdateOrders(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input contentdto.ContentOrdersInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		if err := basehdl.ValidateInput(&input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		ids := make([]primitive.ObjectID, 0, len(input.IDs))
		for _, raw := range input.IDs {
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
				return nil
			}
			ids = append(ids, id)
		}

		updated, err := h.service.UpdateOrders(c.Context(), ids)
		basehdl.HandleResponse(c, fiber.Map{"updated": updated}, err)
		return nil
	})
}

// HandleGetByClassroom liệt kê content của một lớp học theo order
// Route: GET /content/classroom/:classroomId
func (h *ContentHandler) HandleGetByClassroom(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		classroomID, err := basehdl.ParseObjectIDParam(c, "classroomId")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		contents, err := h.service.GetByClassroom(c.Context(), classroomID)
		basehdl.HandleResponse(c, contents, err)
		return nil
	})
}

// HandleGetById trả về một content theo id
// Route: GET /content/:id
func (h *ContentHandler) HandleGetById(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		content, err := h.service.GetById(c.Context(), id)
		basehdl.HandleResponse(c, content, err)
		return nil
	})
}
