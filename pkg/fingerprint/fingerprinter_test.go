package fingerprint

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

func secureHeaders() http.Header {
	h := http.Header{}
	h.Set("Strict-Transport-Security", "max-age=31536000")
	h.Set("Content-Security-Policy", "default-src 'self'")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	return h
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2.1.4", "3.5.0", -1},
		{"3.5.0", "3.5.0", 0},
		{"3.6", "3.5.0", 1},
		{"2.1", "2.1.0", 0}, // shorter is not automatically older
		{"2.1", "2.1.1", -1},
		{"10.0", "9.9", 1},
		{"4.2a", "4.2", 0},
		{"", "1.0", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestIdentify_VulnerableVersionBelowMinimum(t *testing.T) {
	html := `<html><head>
		<script src="/js/jquery-2.1.4.min.js"></script>
	</head></html>`

	stack, posture := Identify(html, secureHeaders())

	require.Contains(t, stack.Names(types.CategoryJSLibraries), "jQuery 2.1.4")
	assert.Contains(t, posture.VulnerableLibraries, "jQuery 2.1.4")
}

func TestIdentify_SafeVersionNotFlagged(t *testing.T) {
	html := `<script src="/js/jquery-3.7.1.min.js"></script>`

	stack, posture := Identify(html, secureHeaders())

	require.Contains(t, stack.Names(types.CategoryJSLibraries), "jQuery 3.7.1")
	assert.Empty(t, posture.VulnerableLibraries)
	assert.Equal(t, 100, posture.Score)
}

func TestIdentify_VersionFromInlineGlobal(t *testing.T) {
	html := `<script>jQuery.fn.jquery = "1.12.4";</script>`

	stack, posture := Identify(html, secureHeaders())

	assert.Contains(t, stack.Names(types.CategoryJSLibraries), "jQuery 1.12.4")
	assert.Contains(t, posture.VulnerableLibraries, "jQuery 1.12.4")
}

func TestIdentify_HeaderSignatures(t *testing.T) {
	h := secureHeaders()
	h.Set("Server", "nginx/1.24.0")
	h.Set("CF-RAY", "8a1b2c3d4e5f-FRA")

	stack, _ := Identify("<html></html>", h)

	assert.Contains(t, stack.Names(types.CategoryServerTech), "Nginx 1.24.0")
	assert.Contains(t, stack.Names(types.CategoryCDN), "Cloudflare")
}

func TestIdentify_SingleCategoryPerSignature(t *testing.T) {
	html := `<meta name="generator" content="WordPress 4.2">`

	stack, _ := Identify(html, http.Header{})

	assert.Contains(t, stack.Names(types.CategoryServerTech), "WordPress 4.2")
	for cat, names := range stack {
		if cat == types.CategoryServerTech {
			continue
		}
		assert.NotContains(t, names, "WordPress 4.2")
	}
}

func TestIdentify_MissingHeadersScoring(t *testing.T) {
	_, posture := Identify("<html></html>", http.Header{})

	assert.False(t, posture.HSTSPresent)
	assert.False(t, posture.CSPPresent)
	// 100 - 15 (HSTS) - 20 (CSP) - 10 (XFO) - 5 (XCTO)
	assert.Equal(t, 50, posture.Score)
}

func TestIdentify_RiskyScripts(t *testing.T) {
	html := `<html>
		<script>eval(userInput);</script>
		<script>el.innerHTML = data;</script>
		<script src="http://cdn.sketchy.example/lib.js"></script>
		<script src="http://localhost:3000/dev.js"></script>
	</html>`

	_, posture := Identify(html, secureHeaders())

	require.Len(t, posture.RiskyScriptFindings, 3, "localhost src must not count")
	assert.Equal(t, 70, posture.Score)
}

func TestIdentify_ScoreNeverNegative(t *testing.T) {
	html := `<meta name="generator" content="WordPress 4.2">
		<script src="/js/jquery-1.4.2.min.js"></script>
		<script>eval(x);</script>
		<script>a.innerHTML = b;</script>
		<script src="http://old.example/one.js"></script>
		<script src="http://old.example/two.js"></script>`

	_, posture := Identify(html, http.Header{})

	assert.GreaterOrEqual(t, posture.Score, 0)
	assert.LessOrEqual(t, posture.Score, 100)
}

func TestIdentify_EmptyInput(t *testing.T) {
	stack, posture := Identify("", http.Header{})

	assert.Empty(t, stack)
	assert.Equal(t, 50, posture.Score)
}

func TestCatalog_CategoriesAreClosedSet(t *testing.T) {
	valid := map[types.StackCategory]bool{
		types.CategoryJSLibraries: true,
		types.CategoryCSS:         true,
		types.CategoryServerTech:  true,
		types.CategoryCDN:         true,
		types.CategoryEcommerce:   true,
		types.CategorySecurity:    true,
		types.CategorySocial:      true,
		types.CategoryAnalytics:   true,
	}
	for _, sig := range Catalog() {
		assert.True(t, valid[sig.Category], "signature %s has unknown category %s", sig.Name, sig.Category)
		assert.NotEmpty(t, sig.Patterns, "signature %s has no patterns", sig.Name)
		if sig.Vulnerable {
			assert.NotEmpty(t, sig.MinSafeVersion, "vulnerable signature %s needs a minimum safe version", sig.Name)
		}
	}
}
