package connection

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies that every Connection's writeLoop and healthLoop
// goroutines have exited by the time a test finishes, closing over the
// whole package the same way the health-check/writer split is meant to.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
