package testutil

import (
	"os"
	"testing"
	"time"
)

const healthCheckTimeout = 30 * time.Second

// Setup returns a client against the server named by TEST_SERVER_URL, or
// skips the test when the variable is unset. Integration tests expect a
// running salon service with a clean database behind it.
func Setup(t *testing.T) *Client {
	t.Helper()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		t.Skip("TEST_SERVER_URL not set, skipping integration test")
	}

	client := NewClient(serverURL)
	client.WaitForHealthy(t, healthCheckTimeout)
	return client
}
