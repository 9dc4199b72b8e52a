package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
templates:
  - name: quotation
    display_name: Quotation
    body: |
      Dear {{contactPerson}},
      Our fee for {{serviceType}} is {{amount}}.
  - name: acknowledgement
    body: "Ref {{referenceNumber}}"
`

func TestParse(t *testing.T) {
	templates, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, templates, 2)

	assert.Equal(t, "quotation", templates[0].Name)
	assert.Equal(t, "Quotation", templates[0].DisplayName)
	assert.Equal(t, "Dear {{contactPerson}},\nOur fee for {{serviceType}} is {{amount}}.\n", templates[0].Body)

	assert.Equal(t, "acknowledgement", templates[1].Name)
	assert.Equal(t, "acknowledgement", templates[1].DisplayName)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"malformed yaml", "templates: [", "failed to parse"},
		{"missing name", "templates:\n  - body: x\n", "name is required"},
		{"missing body", "templates:\n  - name: a\n", "body is required"},
		{"duplicate", "templates:\n  - name: a\n    body: x\n  - name: a\n    body: y\n", "duplicate name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0644))

	templates, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, templates, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestShippedCatalogParses(t *testing.T) {
	templates, err := LoadFile("../../../configs/templates.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, templates)
}
