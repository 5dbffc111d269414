package common

import (
	"strings"
	"testing"

	"healthfirst/pkg/client"
)

// RequireResponse fails the test on transport errors so callers can chain
// client calls without repeating the plumbing check.
func RequireResponse(t *testing.T, resp *client.Response, err error) *client.Response {
	t.Helper()
	if err != nil {
		t.Fatalf("HTTP request failed: %v", err)
	}
	return resp
}

func AssertStatusCode(t *testing.T, resp *client.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

func AssertContains(t *testing.T, resp *client.Response, substr string) {
	t.Helper()
	if !strings.Contains(strings.ToLower(string(resp.Body)), strings.ToLower(substr)) {
		t.Fatalf("response body does not contain %q. Body: %s", substr, string(resp.Body))
	}
}

// ErrorCode extracts the machine-readable code from an error response.
func ErrorCode(t *testing.T, resp *client.Response) string {
	t.Helper()
	var errResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := resp.DecodeJSON(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v. Body: %s", err, string(resp.Body))
	}
	return errResp.Code
}
