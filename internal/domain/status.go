package domain

import "strings"

// Segment is the revenue tier of a door.
type Segment string

const (
	SegmentMajor Segment = "major"
	SegmentMid   Segment = "mid"
	SegmentSmall Segment = "small"
)

// HealthStatus is the lifecycle bucket of a door. A customer with no order
// history is no_history and sits outside the funnel denominator.
type HealthStatus string

const (
	StatusNoHistory HealthStatus = "no_history"
	StatusHealthy   HealthStatus = "healthy"
	StatusAtRisk    HealthStatus = "at_risk"
	StatusChurning  HealthStatus = "churning"
	StatusChurned   HealthStatus = "churned"
)

var segmentLabels = map[Segment]string{
	SegmentMajor: "Major",
	SegmentMid:   "Mid",
	SegmentSmall: "Small",
}

var statusLabels = map[HealthStatus]string{
	StatusNoHistory: "No History",
	StatusHealthy:   "Healthy",
	StatusAtRisk:    "At Risk",
	StatusChurning:  "Churning",
	StatusChurned:   "Churned",
}

// Label returns a human-readable label for a segment.
func (s Segment) Label() string {
	if label, ok := segmentLabels[s]; ok {
		return label
	}

	return string(s)
}

// Label returns a human-readable label for a health status.
func (s HealthStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}

	return string(s)
}

// ParseSegment returns the segment for a given label (case-insensitive).
func ParseSegment(label string) (Segment, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "major":
		return SegmentMajor, true
	case "mid":
		return SegmentMid, true
	case "small":
		return SegmentSmall, true
	}

	return "", false
}

// ParseHealthStatus returns the status for a given label (case-insensitive).
func ParseHealthStatus(label string) (HealthStatus, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))
	switch HealthStatus(normalized) {
	case StatusNoHistory, StatusHealthy, StatusAtRisk, StatusChurning, StatusChurned:
		return HealthStatus(normalized), true
	}

	return "", false
}
