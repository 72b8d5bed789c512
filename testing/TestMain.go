// Package testing switches the service into test mode for any test binary that imports it.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("STOCKMANAGEMENT_TEST_MODE", "1")
		if os.Getenv("REFERENCEDATA_URL") == "" {
			_ = os.Setenv("REFERENCEDATA_URL", "http://127.0.0.1:0")
		}
		if os.Getenv("REFERENCEDATA_TOKEN") == "" {
			_ = os.Setenv("REFERENCEDATA_TOKEN", "test-service-token")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
