// Package httputil provides the HTTP method and status code rules of
// Swagger 2.0 path items and responses.
package httputil

import (
	"slices"
	"strconv"
	"strings"
)

// HTTP Status Code Constants
const (
	StatusCodeLength = 3   // Standard length of HTTP status codes (e.g., "200", "404")
	MinStatusCode    = 100 // Minimum valid HTTP status code
	MaxStatusCode    = 599 // Maximum valid HTTP status code
)

// HTTP Method Constants
const (
	MethodGet     = "get"
	MethodPut     = "put"
	MethodPost    = "post"
	MethodDelete  = "delete"
	MethodOptions = "options"
	MethodHead    = "head"
	MethodPatch   = "patch"
)

// Methods lists the path item keys holding operations, in report order.
var Methods = []string{MethodGet, MethodPut, MethodPost, MethodDelete, MethodOptions, MethodHead, MethodPatch}

// IsMethod reports whether key is a path item key holding an operation.
func IsMethod(key string) bool {
	return slices.Contains(Methods, key)
}

// ValidateStatusCode checks if a response key is valid.
// Valid values are:
//   - "default" for default response
//   - Extension fields starting with "x-"
//   - Wildcard patterns: 1XX, 2XX, 3XX, 4XX, 5XX (either case)
//   - Numeric codes: 100-599
func ValidateStatusCode(code string) bool {
	if code == "default" || strings.HasPrefix(code, "x-") {
		return true
	}
	if len(code) != StatusCodeLength {
		return false
	}
	if isWildcard(code) {
		return code[0] >= '1' && code[0] <= '5'
	}
	if !isDigit(code[0]) || !isDigit(code[1]) || !isDigit(code[2]) {
		return false
	}
	n, err := strconv.Atoi(code)
	return err == nil && n >= MinStatusCode && n <= MaxStatusCode
}

// IsSuccess reports whether a response key is a 2xx status code or the
// 2XX wildcard.
func IsSuccess(code string) bool {
	return ValidateStatusCode(code) && len(code) == StatusCodeLength && code[0] == '2'
}

func isWildcard(code string) bool {
	return strings.EqualFold(code[1:], "xx")
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
