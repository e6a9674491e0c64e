// Package contracttests holds wire-contract checks for the orientation
// JSON-RPC endpoint and the maintenance TCP surface.
package contracttests

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// JSONRPCEnvelope validates JSON-RPC 2.0 envelope structure
type JSONRPCEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// ValidateEnvelope validates JSON-RPC 2.0 envelope compliance
func ValidateEnvelope(data []byte) error {
	var envelope JSONRPCEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if envelope.JSONRPC != "2.0" {
		return fmt.Errorf("jsonrpc must be '2.0', got '%s'", envelope.JSONRPC)
	}

	if envelope.ID == nil {
		return fmt.Errorf("id field is required")
	}

	hasResult := len(envelope.Result) > 0
	hasError := len(envelope.Error) > 0

	if hasResult && hasError {
		return fmt.Errorf("both result and error cannot be present")
	}

	if !hasResult && !hasError {
		return fmt.Errorf("either result or error must be present")
	}

	return nil
}

// ValidateIntResult validates a single-element array holding a decimal
// integer and returns the value
func ValidateIntResult(result json.RawMessage) (int, error) {
	var arr []string
	if err := json.Unmarshal(result, &arr); err != nil {
		return 0, fmt.Errorf("result must be array of strings: %w", err)
	}
	if len(arr) != 1 {
		return 0, fmt.Errorf("result must have exactly one element, got %d", len(arr))
	}
	v, err := strconv.Atoi(arr[0])
	if err != nil {
		return 0, fmt.Errorf("result %q is not a decimal integer", arr[0])
	}
	return v, nil
}

// ValidateStatusResult validates a set-syscall status code
func ValidateStatusResult(result json.RawMessage) (int, error) {
	v, err := ValidateIntResult(result)
	if err != nil {
		return 0, err
	}
	if v > 0 || v < -3 {
		return 0, fmt.Errorf("status %d is outside [-3, 0]", v)
	}
	return v, nil
}

// ValidateMaskResult validates a supported-orientations mask. Only group
// masks can come back from the host.
func ValidateMaskResult(result json.RawMessage) (int, error) {
	v, err := ValidateIntResult(result)
	if err != nil {
		return 0, err
	}
	switch v {
	case 0, 0x3, 0xC, 0xF:
		return v, nil
	default:
		return 0, fmt.Errorf("mask %#x is not a group-level mask", v)
	}
}

// ValidateFlagResult validates a current-orientation flag: zero or exactly
// one of the four flags
func ValidateFlagResult(result json.RawMessage) (int, error) {
	v, err := ValidateIntResult(result)
	if err != nil {
		return 0, err
	}
	switch v {
	case 0, 0x1, 0x2, 0x4, 0x8:
		return v, nil
	default:
		return 0, fmt.Errorf("flag %#x is not a single orientation", v)
	}
}

// ValidateErrorResponse validates JSON-RPC error structure
func ValidateErrorResponse(errorData json.RawMessage) error {
	var errorObj map[string]interface{}
	if err := json.Unmarshal(errorData, &errorObj); err != nil {
		return fmt.Errorf("error must be an object: %w", err)
	}

	code, hasCode := errorObj["code"]
	if !hasCode {
		return fmt.Errorf("error object must have 'code' field")
	}

	message, hasMessage := errorObj["message"]
	if !hasMessage {
		return fmt.Errorf("error object must have 'message' field")
	}

	if _, ok := code.(float64); !ok {
		return fmt.Errorf("error code must be numeric")
	}

	if _, ok := message.(string); !ok {
		return fmt.Errorf("error message must be string")
	}

	return nil
}
