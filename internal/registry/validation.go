package registry

import (
	"fmt"
	"strings"

	"github.com/curastock/curastock/internal/shared"
)

func validateRegisterInput(input RegisterInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return fmt.Errorf("%w: item code is required", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: item name is required", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Unit) == "" {
		return fmt.Errorf("%w: unit of measure is required", shared.ErrValidation)
	}
	if input.InitialStock < 0 {
		return fmt.Errorf("%w: initial stock cannot be negative", shared.ErrValidation)
	}
	if input.LowStockThreshold < 0 {
		return fmt.Errorf("%w: low-stock threshold cannot be negative", shared.ErrValidation)
	}
	return nil
}
