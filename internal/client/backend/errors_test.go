package backend

import (
	"errors"
	"fmt"
	"testing"
)

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "json error field", body: `{"error":"PDF is encrypted"}`, want: "PDF is encrypted"},
		{name: "json error padded", body: `{"error":"  quota exceeded \n"}`, want: "quota exceeded"},
		{name: "json without error", body: `{"detail":"nope"}`, want: "generic"},
		{name: "json error not a string", body: `{"error":{"code":5}}`, want: "generic"},
		{name: "json empty error", body: `{"error":""}`, want: "generic"},
		{name: "plain text", body: "Internal Server Error\n", want: "Internal Server Error"},
		{name: "html", body: "<h1>502 Bad Gateway</h1>", want: "<h1>502 Bad Gateway</h1>"},
		{name: "empty body", body: "", want: "generic"},
		{name: "whitespace body", body: " \n\t", want: "generic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractErrorMessage([]byte(tt.body), "generic"); got != tt.want {
				t.Errorf("ExtractErrorMessage(%q) = %q; want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	apiErr := &APIError{Endpoint: PathGenerateSummary, StatusCode: 500, Message: "model overloaded"}
	wrapped := fmt.Errorf("summarizing: %w", apiErr)

	if got := Message(wrapped); got != "model overloaded" {
		t.Errorf("Message(wrapped APIError) = %q", got)
	}
	if got := Message(errors.New("dial tcp: refused")); got != "dial tcp: refused" {
		t.Errorf("Message(plain) = %q", got)
	}
}
