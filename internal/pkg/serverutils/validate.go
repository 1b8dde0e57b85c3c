package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest checks struct tags and converts failures into a 400 fiber
// error with the offending fields listed.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", ve.Field(), ve.Tag()))
			}
		}
		return fiber.NewError(fiber.StatusBadRequest, "validation failed: "+strings.Join(fields, ", "))
	}
	return nil
}
