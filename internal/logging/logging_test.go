package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLevels(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, false)
	t.Cleanup(func() { Setup(&bytes.Buffer{}, false) })

	Debugf("hidden %d", 1)
	Infof("shown %d", 2)
	Warn("careful", "port", 9222)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "9222")

	buf.Reset()
	Setup(&buf, true)
	Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestDisable(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, true)
	t.Cleanup(func() {
		Enable()
		Setup(&bytes.Buffer{}, false)
	})

	Disable()
	Error("dropped")
	Errorf("dropped %s", "too")
	assert.Empty(t, buf.String())

	Enable()
	Error("kept")
	assert.Contains(t, buf.String(), "kept")
}
