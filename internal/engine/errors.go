package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/factoryplan/internal/ir"
)

// ErrorCode categorizes structural engine errors.
type ErrorCode string

const (
	ErrCodeDuplicateImport     ErrorCode = "DUPLICATE_IMPORT"
	ErrCodeSelfImport          ErrorCode = "SELF_IMPORT"
	ErrCodeFactoryNotFound     ErrorCode = "FACTORY_NOT_FOUND"
	ErrCodeDuplicateFactory    ErrorCode = "DUPLICATE_FACTORY"
	ErrCodeRecipeNotFound      ErrorCode = "RECIPE_NOT_FOUND"
	ErrCodeInvalidRecipe       ErrorCode = "INVALID_RECIPE"
	ErrCodeProductNotFound     ErrorCode = "PRODUCT_NOT_FOUND"
	ErrCodeDuplicateProduct    ErrorCode = "DUPLICATE_PRODUCT"
	ErrCodeInputNotFound       ErrorCode = "INPUT_NOT_FOUND"
	ErrCodePowerNotFound       ErrorCode = "POWER_PRODUCER_NOT_FOUND"
	ErrCodeInvalidDrivingField ErrorCode = "INVALID_DRIVING_FIELD"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeNoCatalog           ErrorCode = "NO_CATALOG"
)

// EngineError is a hard error: the mutation or pass that raised it is aborted.
type EngineError struct {
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// FactoryID identifies the factory being mutated, when known.
	FactoryID int

	// Material identifies the material involved, when known.
	Material string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	switch {
	case e.FactoryID != 0 && e.Material != "":
		return fmt.Sprintf("%s: %s (factory=%d, material=%s)", e.Code, e.Message, e.FactoryID, e.Material)
	case e.FactoryID != 0:
		return fmt.Sprintf("%s: %s (factory=%d)", e.Code, e.Message, e.FactoryID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func newError(code ErrorCode, factoryID int, material, format string, args ...any) *EngineError {
	return &EngineError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		FactoryID: factoryID,
		Material:  material,
	}
}

// HasCode reports whether err wraps an *EngineError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// IsDuplicateImport returns true if err is a duplicate import error.
func IsDuplicateImport(err error) bool { return HasCode(err, ErrCodeDuplicateImport) }

// IsSelfImport returns true if err is a self import error.
func IsSelfImport(err error) bool { return HasCode(err, ErrCodeSelfImport) }

// IsNotFound returns true for any of the lookup failures.
func IsNotFound(err error) bool {
	var ee *EngineError
	if !errors.As(err, &ee) {
		return false
	}
	switch ee.Code {
	case ErrCodeFactoryNotFound, ErrCodeRecipeNotFound, ErrCodeProductNotFound,
		ErrCodeInputNotFound, ErrCodePowerNotFound:
		return true
	}
	return false
}

// PrunedImport records an import removed because it could not be resolved.
type PrunedImport struct {
	FactoryID   int       `json:"factory_id"` // consuming factory
	FactoryName string    `json:"factory_name"`
	Import      ir.Import `json:"import"`
	Reason      string    `json:"reason"`
}

// String renders the pruned import as a validation error line.
func (p PrunedImport) String() string {
	return fmt.Sprintf("factory %q (%d): import of %s from factory %d removed: %s",
		p.FactoryName, p.FactoryID, p.Import.Material, p.Import.FactoryID, p.Reason)
}

// ValidationError aggregates every import pruned during one validation run.
//
// Cleaned is the plan after pruning. Loading it again is expected to succeed.
type ValidationError struct {
	Lines   []string
	Pruned  []PrunedImport
	Cleaned *ir.Plan
}

func newValidationError(pruned []PrunedImport, cleaned *ir.Plan) *ValidationError {
	lines := make([]string, len(pruned))
	for i, p := range pruned {
		lines[i] = p.String()
	}
	return &ValidationError{Lines: lines, Pruned: pruned, Cleaned: cleaned}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d invalid import(s):\n  %s",
		len(e.Lines), strings.Join(e.Lines, "\n  "))
}

// IsValidationError returns true if err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError extracts a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
