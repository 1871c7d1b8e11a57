package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a status message
	w.Status("*", "Resolving monitors...")

	// Then: output contains icon and message
	assert.Equal(t, "* Resolving monitors...\n", buf.String())
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("", "continued")

	assert.Equal(t, "   continued\n", buf.String())
}

func TestWriter_Success_PrintsCheckmark(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Successf("%d monitors valid", 2)

	assert.Equal(t, "✓ 2 monitors valid\n", buf.String())
}

func TestWriter_Warning_PrintsWarningIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Warningf("MONITOR_%s skipped", "LOGS")

	assert.Equal(t, "! MONITOR_LOGS skipped\n", buf.String())
}

func TestWriter_Error_PrintsErrorIcon(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Errorf("No valid monitors found.")

	assert.Equal(t, "✗ No valid monitors found.\n", buf.String())
}

func TestWriter_Detail_Indents(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Detail("ERR_101_HANDLER_MISSING")

	assert.Equal(t, "   ERR_101_HANDLER_MISSING\n", buf.String())
}

func TestWriter_Table_AlignsColumns(t *testing.T) {
	// Given: rows of different widths
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a table
	w.Table([]string{"NAME", "PATH"}, [][]string{
		{"MONITOR_A", "/srv/in"},
		{"MONITOR_LONGER", "/tmp"},
	})

	// Then: columns line up and trailing spaces are trimmed
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"NAME            PATH",
		"MONITOR_A       /srv/in",
		"MONITOR_LONGER  /tmp",
	}, lines)
}

func TestWriter_Table_ShortRows(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	assert.NotPanics(t, func() {
		w.Table([]string{"A", "B"}, [][]string{{"x"}})
	})
	assert.Contains(t, buf.String(), "x")
}

func TestWriter_Code_PrintsCodeBlock(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Code("MONITOR_A=/srv\nMONITOR_A_HANDLER=/bin/h")

	assert.Equal(t, "\n  MONITOR_A=/srv\n  MONITOR_A_HANDLER=/bin/h\n\n", buf.String())
}

func TestWriter_Newline_PrintsEmptyLine(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Newline()

	assert.Equal(t, "\n", buf.String())
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	assert.False(t, IsTTY(f))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestNewWithColor_StillWritesMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWithColor(buf, true)

	w.Success("ok")

	assert.Contains(t, buf.String(), "ok")
}
