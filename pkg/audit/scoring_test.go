package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

func TestEstimatePageSpeed_FastSmallPage(t *testing.T) {
	est := EstimatePageSpeed(200, 50*1024)

	assert.True(t, est.Checked)
	assert.GreaterOrEqual(t, est.Mobile, 90)
	assert.GreaterOrEqual(t, est.Desktop, est.Mobile, "desktop deductions are gentler")
}

func TestEstimatePageSpeed_SlowPage(t *testing.T) {
	est := EstimatePageSpeed(4000, 100*1024)

	assert.Less(t, est.Mobile, 70)
	assert.Less(t, est.Mobile, est.Desktop)
}

func TestEstimatePageSpeed_ClampedAtZero(t *testing.T) {
	est := EstimatePageSpeed(60000, 20<<20)

	assert.Equal(t, 0, est.Mobile)
	assert.Equal(t, 0, est.Desktop)
}

func TestEstimatePageSpeed_VitalsStrings(t *testing.T) {
	est := EstimatePageSpeed(1000, 512*1024)

	assert.Equal(t, "2.5 s", est.LCP)
	assert.Equal(t, "0.15", est.CLS)
	assert.Equal(t, "125 ms", est.INP)
}

func TestEvaluateSEO_CleanPage(t *testing.T) {
	snap := &types.PageSnapshot{
		Title:           "Zahnarztpraxis Dr. Weber Berlin Mitte", // 38 chars
		MetaDescription: strings.Repeat("Gute Zahnmedizin in Berlin. ", 5)[:130],
		H1s:             []string{"Willkommen"},
		HasViewportMeta: true,
	}

	findings := EvaluateSEO(snap)
	assert.Empty(t, findings.Issues)
	assert.Equal(t, 1, findings.H1Count)
}

func TestEvaluateSEO_AllIssues(t *testing.T) {
	findings := EvaluateSEO(&types.PageSnapshot{})

	assert.Contains(t, findings.Issues, "missing title tag")
	assert.Contains(t, findings.Issues, "missing meta description")
	assert.Contains(t, findings.Issues, "missing H1 heading")
	assert.Contains(t, findings.Issues, "missing viewport meta tag")
	assert.Len(t, findings.Issues, 4)
}

func TestEvaluateSEO_LengthBounds(t *testing.T) {
	snap := &types.PageSnapshot{
		Title:           "Kurz", // under 30
		MetaDescription: strings.Repeat("x", 200),
		H1s:             []string{"a", "b", "c"},
		HasViewportMeta: true,
	}

	findings := EvaluateSEO(snap)
	assert.Len(t, findings.Issues, 3)
	assert.Contains(t, findings.Issues[0], "title too short")
	assert.Contains(t, findings.Issues[1], "meta description too long")
	assert.Contains(t, findings.Issues[2], "multiple H1 headings")
}

func TestDetectLegacyGenerators(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"WordPress 4.2", true},
		{"WordPress 6.4", false},
		{"Microsoft FrontPage 5.0", true},
		{"Adobe Dreamweaver CS5", true},
		{"Joomla! 1.5 - Open Source Content Management", true},
		{"Joomla! 4.3", false},
		{"Drupal 7 (https://drupal.org)", true},
		{"Drupal 10 (https://drupal.org)", false},
		{"TYPO3 CMS 4.5", true},
		{"Hugo 0.120.0", false},
	}
	for _, tt := range tests {
		got := detectLegacyGenerators([]string{tt.tag})
		if tt.want {
			assert.Equal(t, []string{tt.tag}, got, tt.tag)
		} else {
			assert.Empty(t, got, tt.tag)
		}
	}
}
