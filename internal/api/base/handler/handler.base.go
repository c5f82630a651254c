package basehdl

import (
	"bytes"
	"encoding/json"
	"fmt"

	"folk_academy/internal/common"
	"folk_academy/internal/global"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseRequestBody parse JSON body vào struct đích.
// Dùng json.Decoder với UseNumber để số lớn không bị mất độ chính xác.
func ParseRequestBody(c fiber.Ctx, out interface{}) error {
	body := c.Body()
	if len(body) == 0 {
		return common.NewError(
			common.ErrCodeValidationInput,
			"Body rỗng",
			common.StatusBadRequest,
			nil,
		)
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Không parse được JSON body: %v", err),
			common.StatusBadRequest,
			nil,
		)
	}

	return nil
}

// ValidateInput chạy validator trên struct input, trả về lỗi chuẩn nếu không hợp lệ
func ValidateInput(input interface{}) error {
	if global.Validate == nil {
		return nil
	}
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(
			common.ErrCodeValidationInput,
			common.MsgValidationError,
			common.StatusBadRequest,
			err.Error(),
		)
	}
	return nil
}

// ParseObjectIDParam lấy và parse ObjectID từ route param
func ParseObjectIDParam(c fiber.Ctx, name string) (primitive.ObjectID, error) {
	raw := c.Params(name)
	if raw == "" {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Thiếu tham số %s", name),
			common.StatusBadRequest,
			nil,
		)
	}

	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Tham số %s không phải ObjectID hợp lệ", name),
			common.StatusBadRequest,
			nil,
		)
	}

	return id, nil
}
