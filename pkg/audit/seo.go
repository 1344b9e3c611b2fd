package audit

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

const (
	titleMinLen = 30
	titleMaxLen = 60
	descMinLen  = 120
	descMaxLen  = 160
)

// EvaluateSEO checks one snapshot for on-page hygiene issues.
func EvaluateSEO(snap *types.PageSnapshot) types.SEOFindings {
	findings := types.SEOFindings{
		Checked:         true,
		Title:           snap.Title,
		MetaDescription: snap.MetaDescription,
		H1Count:         len(snap.H1s),
	}

	switch {
	case snap.Title == "":
		findings.Issues = append(findings.Issues, "missing title tag")
	case len(snap.Title) < titleMinLen:
		findings.Issues = append(findings.Issues,
			fmt.Sprintf("title too short (%d chars, recommended %d-%d)", len(snap.Title), titleMinLen, titleMaxLen))
	case len(snap.Title) > titleMaxLen:
		findings.Issues = append(findings.Issues,
			fmt.Sprintf("title too long (%d chars, recommended %d-%d)", len(snap.Title), titleMinLen, titleMaxLen))
	}

	switch {
	case snap.MetaDescription == "":
		findings.Issues = append(findings.Issues, "missing meta description")
	case len(snap.MetaDescription) < descMinLen:
		findings.Issues = append(findings.Issues,
			fmt.Sprintf("meta description too short (%d chars, recommended %d-%d)", len(snap.MetaDescription), descMinLen, descMaxLen))
	case len(snap.MetaDescription) > descMaxLen:
		findings.Issues = append(findings.Issues,
			fmt.Sprintf("meta description too long (%d chars, recommended %d-%d)", len(snap.MetaDescription), descMinLen, descMaxLen))
	}

	switch len(snap.H1s) {
	case 0:
		findings.Issues = append(findings.Issues, "missing H1 heading")
	case 1:
		// exactly one H1 is the recommendation
	default:
		findings.Issues = append(findings.Issues,
			fmt.Sprintf("multiple H1 headings (%d)", len(snap.H1s)))
	}

	if !snap.HasViewportMeta {
		findings.Issues = append(findings.Issues, "missing viewport meta tag")
	}

	return findings
}
