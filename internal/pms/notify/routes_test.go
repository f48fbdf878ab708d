package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteFor(t *testing.T) {
	cases := map[string]string{
		"Finance":              "/pages/finance",
		"finance":              "/pages/finance",
		"  ICT ":               "/pages/ict",
		"Operations":           "/pages/operation",
		"OPERATION":            "/pages/operation",
		"human resources":      "/pages/human-resource",
		"Strategy  Innovation": "/pages/strategy-innovation",
		"Radiology":            DefaultRoute,
		"":                     DefaultRoute,
	}
	for name, want := range cases {
		assert.Equal(t, want, RouteFor(name), "branch %q", name)
	}
}
