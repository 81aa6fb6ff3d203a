package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Cedar Canoe":                  "cedar-canoe",
		"  Home-lab v2.0 / rack  ":     "home-lab-v2-0-rack",
		"Café & Bar":                   "caf-bar",
		"---":                          "",
		"Raspberry Pi_Weather Station": "raspberry-pi-weather-station",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestBuildProjectURL(t *testing.T) {
	assert.Equal(t, "https://example.dev/projects/canoe", BuildProjectURL("https://example.dev/", "canoe"))
	assert.Empty(t, BuildProjectURL("", "canoe"))
	assert.Empty(t, BuildProjectURL("https://example.dev", ""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "hi", truncate("hi", 4))
}
