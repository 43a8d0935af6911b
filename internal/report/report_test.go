package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HiCGallery/internal/validator"
)

func sampleResults() []validator.Result {
	return []validator.Result{
		validator.Validate("asm123_Genoscope", []string{
			"inversion_asm123_Genoscope_01.png",
			"inversion_asm123_Genoscope_01.txt",
		}),
		validator.Validate("xyz9_Sanger", []string{
			"inversion_xyz9_Sanger_01.png",
		}),
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleResults()))
	out := buf.String()
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "asm123_Genoscope")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "MissingCaptionError")
	assert.Contains(t, out, "inversion_xyz9_Sanger_01.png")
	assert.Contains(t, out, "1 of 2 case(s) failed")

	buf.Reset()
	require.NoError(t, Text(&buf, nil))
	assert.Contains(t, buf.String(), "No cases found.")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleResults()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, true, got[0]["passed"])
	assert.Equal(t, []any{}, got[0]["violations"])
	assert.Equal(t, false, got[1]["passed"])
}
