// Package mcp exposes the bot to AI clients over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
)

// Custom MCP error codes for Shapeshifter.
const (
	// ErrCodeBusy indicates the bot is still working on another command.
	ErrCodeBusy = -32001

	// ErrCodeIndexCorrupt indicates the knowledge base is inconsistent.
	ErrCodeIndexCorrupt = -32002

	// ErrCodeTimeout indicates the request timed out or was cancelled.
	ErrCodeTimeout = -32003

	// ErrCodeSourceNotFound indicates a corpus source could not be found.
	ErrCodeSourceNotFound = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var se *shaperrors.ShapeError
	if errors.As(err, &se) {
		return mapShapeError(se)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{Code: ErrCodeInvalidParams, Message: "Invalid parameters."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}

func mapShapeError(se *shaperrors.ShapeError) *MCPError {
	message := shaperrors.FormatForUser(se)

	switch se.Code {
	case shaperrors.ErrCodeBusy:
		return &MCPError{Code: ErrCodeBusy, Message: message}
	case shaperrors.ErrCodeIndexInconsistency:
		return &MCPError{Code: ErrCodeIndexCorrupt, Message: message}
	case shaperrors.ErrCodeSourceNotFound:
		return &MCPError{Code: ErrCodeSourceNotFound, Message: message}
	case shaperrors.ErrCodeUnknownCommand:
		return &MCPError{Code: ErrCodeMethodNotFound, Message: message}
	}

	switch se.Category {
	case shaperrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case shaperrors.CategoryNetwork:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
