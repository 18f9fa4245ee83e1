package api

import (
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
	"github.com/zfogg/chirp/cli/pkg/client"
	"github.com/zfogg/chirp/cli/pkg/logger"
)

// APIError represents an API error response
type APIError struct {
	Code       string
	Message    string
	StatusCode int
	Field      string
	Details    string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%d] %s: %s (field: %s)", e.StatusCode, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// HTTPStatus lets the CLI error categorizer map the failure
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// ParseError parses an error response from the API
func ParseError(resp *resty.Response) error {
	statusCode := resp.StatusCode()

	var errResp ErrorResponse
	if err := json.Unmarshal(resp.Body(), &errResp); err == nil && errResp.Message != "" {
		code := errResp.Code
		if code == "" {
			code = "HTTP_" + strconv.Itoa(statusCode)
		}
		return &APIError{
			Code:       code,
			Message:    errResp.Message,
			StatusCode: statusCode,
			Field:      errResp.Field,
			Details:    errResp.Details,
		}
	}

	return &APIError{
		Code:       "UNKNOWN_ERROR",
		Message:    string(resp.Body()),
		StatusCode: statusCode,
	}
}

func statusIs(err error, check func(int) bool) bool {
	if apiErr, ok := err.(*APIError); ok {
		return check(apiErr.StatusCode)
	}
	return false
}

// IsUnauthorized checks if error is due to missing/invalid authentication
func IsUnauthorized(err error) bool {
	return statusIs(err, func(s int) bool { return s == 401 })
}

// IsForbidden checks if error is due to insufficient permissions
func IsForbidden(err error) bool {
	return statusIs(err, func(s int) bool { return s == 403 })
}

// IsNotFound checks if error is due to resource not found
func IsNotFound(err error) bool {
	return statusIs(err, func(s int) bool { return s == 404 })
}

// IsServerError checks if error is due to server error (5xx)
func IsServerError(err error) bool {
	return statusIs(err, func(s int) bool { return s >= 500 })
}

// CheckResponse checks if response is successful and returns error if not
func CheckResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return ParseError(resp)
	}
	return nil
}

// decodeData unwraps the envelope and decodes its data field into target.
// A nil target only checks the status.
func decodeData(resp *resty.Response, err error, target interface{}) (string, error) {
	if err := CheckResponse(resp, err); err != nil {
		return "", err
	}
	var env Envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return "", fmt.Errorf("decode response envelope: %w", err)
	}
	if target != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return "", fmt.Errorf("decode response data: %w", err)
		}
	}
	return env.Message, nil
}

func request() *resty.Request {
	return client.GetClient().R().SetHeader("Content-Type", "application/json")
}

func get(path string, query map[string]string, target interface{}) error {
	logger.Debug("GET", "path", path)
	resp, err := request().SetQueryParams(query).Get(path)
	_, err = decodeData(resp, err, target)
	return err
}

func send(method, path string, body, target interface{}) (string, error) {
	logger.Debug(method, "path", path)
	req := request()
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "", err
		}
		req.SetBody(data)
	}
	resp, err := req.Execute(method, path)
	return decodeData(resp, err, target)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
