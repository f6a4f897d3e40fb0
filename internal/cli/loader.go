package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/factoryplan/internal/catalog"
	"github.com/roach88/factoryplan/internal/ir"
	"github.com/roach88/factoryplan/internal/store"
)

// LoadError represents an error that occurred while loading command input.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog loads the catalog directory, or the built-in catalog when dir
// is empty. Semantic catalog errors come back as catalog.ValidationErrors
// so callers can list every code.
func LoadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		cat, err := catalog.Builtin()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("built-in catalog: %v", err)}
		}
		return cat, nil
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := catalog.FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	cat, err := catalog.LoadDir(dir)
	if err != nil {
		var verrs catalog.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, verrs
		}
		return nil, convertCompileError(err)
	}
	return cat, nil
}

// ReadPlan reads a plan JSON file and checks it against the plan schema.
func ReadPlan(path string) (*ir.Plan, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("plan file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error reading plan file: %v", err)}
	}

	plan, err := store.DecodePlanJSON(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidPlan, Message: err.Error()}
	}
	return plan, nil
}

// OpenStore opens the tab database at path.
func OpenStore(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("opening tab database: %v", err)}
	}
	return st, nil
}

// convertCompileError converts a catalog.CompileError to LoadError.
func convertCompileError(err error) *LoadError {
	var cErr *catalog.CompileError
	if errors.As(err, &cErr) {
		return &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("%s: %s", cErr.Field, cErr.Message),
			Pos:     cErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: err.Error(),
	}
}

// Error codes for CLI output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load or schema unification failed
	ErrCodeNotFound    = "E005" // Path, tab or tab name not found
	ErrCodeBuildFailed = "E006" // Built-in catalog failed to compile
	ErrCodeWriteFailed = "E007" // File write error

	// Plan errors (E101-E109)
	ErrCodeInvalidPlan = "E101" // Plan JSON failed the schema or decode
	ErrCodeRecompute   = "E102" // Engine rejected the plan
	ErrCodePruned      = "E103" // Imports pruned while loading

	// Store errors (E110-E119)
	ErrCodeStore          = "E110" // Database open or query failed
	ErrCodeDigestMismatch = "E111" // Stored digest does not match the plan
)

// loadErrorCode extracts the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// loadErrorMessage extracts the message of a LoadError, or err.Error().
func loadErrorMessage(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Pos.IsValid() {
			return fmt.Sprintf("%s:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Message)
		}
		return loadErr.Message
	}
	return err.Error()
}
