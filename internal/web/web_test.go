package web

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesRender(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{"login.html", "register.html", "index.html", "branding.html"} {
		var buf bytes.Buffer
		err := tmpl.ExecuteTemplate(&buf, name, map[string]any{
			"Error":     "Invalid credentials",
			"Username":  "<alice>",
			"User":      "alice",
			"CSRFToken": "token-123",
		})
		require.NoError(t, err, name)
		assert.NotContains(t, buf.String(), "<alice>", name)
	}
}

func TestBrandingFormCarriesCSRFToken(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MustTemplates().ExecuteTemplate(&buf, "branding.html", map[string]any{"CSRFToken": "token-123"}))
	assert.Contains(t, buf.String(), `name="csrf_token" value="token-123"`)
}
