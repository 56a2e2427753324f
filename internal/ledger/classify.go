package ledger

import "strings"

// rejectionKeywords flag an outbound remark as rejection loss. The remark
// sniffing is a fallback for callers that cannot supply the explicit flag;
// the flag always wins when present.
var rejectionKeywords = []string{"rejected", "damaged", "expired", "defective"}

// Classify resolves the classification of an outbound movement. First match
// wins: explicit hint, then remark keywords, then normal consumption.
func Classify(direction Direction, remark string, rejection *bool) Classification {
	if direction == DirectionIn {
		return ClassificationNormal
	}
	if rejection != nil {
		if *rejection {
			return ClassificationRejected
		}
		return ClassificationNormal
	}
	lowered := strings.ToLower(remark)
	if strings.HasPrefix(lowered, "rejected:") {
		return ClassificationRejected
	}
	for _, keyword := range rejectionKeywords {
		if strings.Contains(lowered, keyword) {
			return ClassificationRejected
		}
	}
	return ClassificationNormal
}
