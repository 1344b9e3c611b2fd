package audit

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

func TestBuildSnapshot(t *testing.T) {
	html := `<!DOCTYPE html>
<html>
<head>
	<title>Zahnarztpraxis Dr. Weber Berlin</title>
	<meta name="description" content="Ihre Zahnarztpraxis in Berlin-Mitte.">
	<meta name="generator" content="WordPress 6.4">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<meta name="robots" content="index, follow">
</head>
<body>
	<h1>Willkommen</h1>
	<h1>Zweite Überschrift</h1>
</body>
</html>`

	headers := http.Header{}
	headers.Set("Server", "nginx")

	snap := BuildSnapshot(types.FetchResult{
		Body:      html,
		Headers:   headers,
		LatencyMs: 350,
	})

	assert.Equal(t, "Zahnarztpraxis Dr. Weber Berlin", snap.Title)
	assert.Equal(t, "Ihre Zahnarztpraxis in Berlin-Mitte.", snap.MetaDescription)
	assert.Equal(t, []string{"Willkommen", "Zweite Überschrift"}, snap.H1s)
	assert.Equal(t, []string{"WordPress 6.4"}, snap.GeneratorTags)
	assert.True(t, snap.HasViewportMeta)
	assert.Equal(t, []string{"index", "follow"}, snap.RobotsDirectives)
	assert.Equal(t, int64(350), snap.ResponseTimeMs)
	assert.Equal(t, len(html), snap.ContentSizeBytes)
	assert.Equal(t, "nginx", snap.Headers.Get("Server"))
}

func TestBuildSnapshot_EmptyBody(t *testing.T) {
	snap := BuildSnapshot(types.FetchResult{Body: "", LatencyMs: 100})

	require.NotNil(t, snap)
	assert.Empty(t, snap.Title)
	assert.Empty(t, snap.H1s)
	assert.False(t, snap.HasViewportMeta)
	assert.Zero(t, snap.ContentSizeBytes)
}

func TestBuildSnapshot_MalformedHTML(t *testing.T) {
	snap := BuildSnapshot(types.FetchResult{Body: "<title>broken<h1>still found", LatencyMs: 10})

	// The tolerant parser still extracts what it can.
	require.NotNil(t, snap)
	assert.Equal(t, len("<title>broken<h1>still found"), snap.ContentSizeBytes)
}
