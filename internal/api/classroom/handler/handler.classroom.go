package classroomhdl

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basehdl "folk_academy/internal/api/base/handler"
	classroomdto "folk_academy/internal/api/classroom/dto"
	classroommodels "folk_academy/internal/api/classroom/models"
	classroomsvc "folk_academy/internal/api/classroom/service"
	"folk_academy/internal/common"
)

// ClassroomHandler xử lý các HTTP request cho cây lớp học
type ClassroomHandler struct {
	service *classroomsvc.ClassroomService
}

// NewClassroomHandler tạo handler mới
func NewClassroomHandler() (*ClassroomHandler, error) {
	service, err := classroomsvc.NewClassroomService()
	if err != nil {
		return nil, err
	}
	return &ClassroomHandler{service: service}, nil
}

// HandleCreate tạo lớp học mới (tùy chọn dưới một lớp cha)
// Route: POST /classroom
func (h *ClassroomHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input classroomdto.ClassroomCreateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		if err := basehdl.ValidateInput(&input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		cls := classroommodels.Classroom{
			Name:             input.Name,
			Description:      input.Description,
			AccessType:       input.AccessType,
			Order:            input.Order,
			FreeEpisodeCount: input.FreeEpisodeCount,
		}

		if input.ParentID != "" {
			parentID, err := primitive.ObjectIDFromHex(input.ParentID)
			if err != nil {
				basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
				return nil
			}
			cls.ParentID = &parentID
		}

		created, err := h.service.Create(c.Context(), cls)
		basehdl.HandleResponse(c, created, err)
		return nil
	})
}

// HandleUpdate cập nhật lớp học (không đổi được parentId)
// Route: PUT /classroom/:id
func (h *ClassroomHandler) HandleUpdate(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		var input classroomdto.ClassroomUpdateInput
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

// HandleDelete xóa lớp học cùng toàn bộ subtree và content (cascading)
// Route: DELETE /classroom/:id
func (h *ClassroomHandler) HandleDelete(c fiber.Ctx) error {
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

// HandleDeleteMany xóa một tập lớp học (cascading, union các subtree)
// Route: DELETE /classroom
func (h *ClassroomHandler) HandleDeleteMany(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input classroomdto.ClassroomDeleteManyInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		if err := basehdl.ValidateInput(&input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		ids, err := parseObjectIDs(input.IDs)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		result, err := h.service.DeleteMany(c.Context(), ids)
		basehdl.HandleResponse(c, result, err)
		return nil
	})
}

// HandleUpdateOrders gán order = index cho danh sách lớp học (một atomic batch)
// Route: PUT /classroom/orders
func (h *ClassroomHandler) HandleUpdateOrders(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input classroomdto.ClassroomOrdersInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		if err := basehdl.ValidateInput(&input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		ids, err := parseObjectIDs(input.IDs)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		updated, err := h.service.UpdateOrders(c.Context(), ids)
		basehdl.HandleResponse(c, fiber.Map{"updated": updated}, err)
		return nil
	})
}

// HandleGetHierarchy trả về chuỗi breadcrumb gốc..id
// Route: GET /classroom/hierarchy/:id
func (h *ClassroomHandler) HandleGetHierarchy(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		chain, err := h.service.GetHierarchy(c.Context(), id)
		basehdl.HandleResponse(c, chain, err)
		return nil
	})
}

// HandleGetChildren liệt kê lớp con trực tiếp theo order.
// Query param parentId rỗng liệt kê các lớp gốc.
// Route: GET /classroom/children
func (h *ClassroomHandler) HandleGetChildren(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var parentID *primitive.ObjectID
		if raw := c.Query("parentId"); raw != "" {
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				basehdl.HandleResponse(c, nil, common.ErrInvalidFormat)
				return nil
			}
			parentID = &id
		}

		children, err := h.service.GetChildren(c.Context(), parentID)
		basehdl.HandleResponse(c, children, err)
		return nil
	})
}

// HandleGetById trả về một lớp học theo id
// Route: GET /classroom/:id
func (h *ClassroomHandler) HandleGetById(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		cls, err := h.service.GetById(c.Context(), id)
		basehdl.HandleResponse(c, cls, err)
		return nil
	})
}

// HandleCleanupOrphans chạy sweep đưa các lớp mồ côi về gốc (idempotent)
// Route: POST /classroom/cleanup-orphans
func (h *ClassroomHandler) HandleCleanupOrphans(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		repaired, err := h.service.CleanupOrphans(c.Context())
		basehdl.HandleResponse(c, fiber.Map{"repaired": repaired}, err)
		return nil
	})
}

// HandleSyncContentCounts chạy sweep đồng bộ lại contentCount
// Route: POST /classroom/sync-content-counts
func (h *ClassroomHandler) HandleSyncContentCounts(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		updated, err := h.service.SyncContentCounts(c.Context())
		basehdl.HandleResponse(c, fiber.Map{"updated": updated}, err)
		return nil
	})
}

// parseObjectIDs chuyển danh sách hex string thành ObjectID
func parseObjectIDs(raw []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, r := range raw {
		id, err := primitive.ObjectIDFromHex(r)
		if err != nil {
			return nil, common.ErrInvalidFormat
		}
		ids = append(ids, id)
	}
	return ids, nil
}
