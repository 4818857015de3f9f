package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmbeddedTemplates(t *testing.T) {
	engine, err := loadEngine()
	require.NoError(t, err)

	for _, template := range []string{verifyTemplate, resetTemplate} {
		t.Run(template, func(t *testing.T) {
			body, err := renderBody(engine, template, "pepe", "https://example.com/t/abc123")
			require.NoError(t, err)

			assert.Contains(t, body, "pepe")
			assert.Contains(t, body, "https://example.com/t/abc123")
			assert.Contains(t, body, productName)
		})
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := loadEngine()
	require.NoError(t, err)

	_, err = renderBody(engine, "missing_template", "pepe", "link")
	assert.Error(t, err)
}
