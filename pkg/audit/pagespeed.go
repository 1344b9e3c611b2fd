package audit

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/siteaudit/pkg/types"
)

// EstimatePageSpeed derives heuristic 0-100 mobile/desktop scores from
// response latency and payload size. This is an approximation from two
// cheap observations, not a lab measurement; mobile deductions are steeper
// than desktop to mirror slower radio links and CPUs.
func EstimatePageSpeed(latencyMs int64, sizeBytes int) types.PageSpeedEstimate {
	mobile := 100 - int(latencyMs/75) - sizeBytes/(40*1024)
	desktop := 100 - int(latencyMs/120) - sizeBytes/(80*1024)

	if mobile < 0 {
		mobile = 0
	}
	if desktop < 0 {
		desktop = 0
	}

	return types.PageSpeedEstimate{
		Checked: true,
		Mobile:  mobile,
		Desktop: desktop,
		LCP:     estimateLCP(latencyMs),
		CLS:     estimateCLS(sizeBytes),
		INP:     estimateINP(latencyMs),
	}
}

// estimateLCP scales first-response latency to a plausible largest-paint
// figure: render work roughly doubles the network time.
func estimateLCP(latencyMs int64) string {
	return fmt.Sprintf("%.1f s", float64(latencyMs)*2.5/1000)
}

// estimateCLS buckets payload size: heavier pages shift more during load.
func estimateCLS(sizeBytes int) string {
	switch {
	case sizeBytes > 1<<20:
		return "0.25"
	case sizeBytes > 256<<10:
		return "0.15"
	default:
		return "0.05"
	}
}

func estimateINP(latencyMs int64) string {
	inp := latencyMs / 8
	if inp < 50 {
		inp = 50
	}
	return fmt.Sprintf("%d ms", inp)
}
