package printer

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr, prevNoColor := Out, Err, color.NoColor
	Out, Err = &out, &errOut
	color.NoColor = true
	t.Cleanup(func() {
		Out, Err, color.NoColor = prevOut, prevErr, prevNoColor
	})
	return &out, &errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "This is a test error")
	})

	t.Run("single suggestion printed verbatim", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "\nTry this fix\n")
		assert.NotContains(t, errOut.String(), "Either:")
	})

	t.Run("multiple suggestions are numbered", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestErrorWithContext(t *testing.T) {
	t.Run("prints context in key order", func(t *testing.T) {
		_, errOut := capture(t)
		context := map[string]string{
			"Network": "local",
			"Canvas":  "3",
		}
		err := ErrorWithContext("Test Error", "Explanation", context, nil)
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "  Canvas: 3\n  Network: local\n")
	})
}

func TestSuccessAndWarning(t *testing.T) {
	out, _ := capture(t)
	Success("committed %d pixels\n", 2)
	Warning("careful\n")
	Step("locking\n")
	assert.Equal(t, "✓ committed 2 pixels\n⚠️  careful\n→ locking\n", out.String())
}

func TestSwatch(t *testing.T) {
	capture(t)
	assert.Equal(t, "   #064 (100)", Swatch(100))
	assert.Contains(t, Swatch(0), "unpainted")
}
