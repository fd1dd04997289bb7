package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"subscout/application/ports"
	"subscout/application/services"
)

func TestPrintScan(t *testing.T) {
	color.NoColor = true

	result := services.Analyze([]ports.RawPost{
		{Title: "Sync is broken again", Score: 12, Comments: 3},
		{Title: "I wish there was a dark mode", Score: 40, Comments: 9},
	})

	var buf bytes.Buffer
	printScan(&buf, "selfhosted", result)
	out := buf.String()

	assert.Contains(t, out, "=== r/selfhosted ===")
	assert.Contains(t, out, "Pain points (1):")
	assert.Contains(t, out, "  • Sync is broken again")
	assert.Contains(t, out, "Feature requests (1):")
	assert.Contains(t, out, "  • I wish there was a dark mode")
	assert.Contains(t, out, "Hot posts (2):")
}

func TestPrintScan_Empty(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printScan(&buf, "golang", services.EmptyScanResult())

	assert.Contains(t, buf.String(), "Pain points (0):\n  none")
	assert.Contains(t, buf.String(), "Hot posts (0):\n  none")
}
