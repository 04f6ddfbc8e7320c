package httpx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// SkipIfNoTemplates skips router tests when the frontend templates are not on disk.
func SkipIfNoTemplates(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("Templates not available, skipping integration test")
	}
}

// assertContainsAll reports every fragment missing from a rendered page at once.
func assertContainsAll(t *testing.T, body string, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		assert.Contains(t, body, f)
	}
}
