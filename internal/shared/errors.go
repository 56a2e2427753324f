package shared

import "errors"

var (
	// ErrNotFound indicates the referenced stock item does not exist.
	ErrNotFound = errors.New("stock item not found")
	// ErrDuplicateCode indicates a registration reused an existing item code.
	ErrDuplicateCode = errors.New("item code already registered")
	// ErrInvalidQuantity indicates a movement quantity of zero or less.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInsufficientStock indicates an outbound movement exceeding on-hand stock.
	ErrInsufficientStock = errors.New("insufficient stock on hand")
	// ErrValidation indicates malformed or incomplete request input.
	ErrValidation = errors.New("validation failed")
)
