package domain

import "errors"

var (
	// ErrInvalidBounds marks a malformed bounding box or region.
	ErrInvalidBounds = errors.New("invalid bounds")
	// ErrInvalidParameter marks any other rejected request parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrBackendNotReady is returned when the analytic backend never initialised.
	ErrBackendNotReady = errors.New("analytic backend not initialized")
	// ErrRegionTooLarge is returned after the degraded retry also failed.
	ErrRegionTooLarge = errors.New("region too large")
	// ErrNoImagery means no scene matched the filters even after relaxing them.
	ErrNoImagery = errors.New("no imagery available")
	// ErrUnknownTool is a dispatch-time rejection of a tool name outside the registry.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrPlannerUnavailable wraps transport failures talking to the language model.
	ErrPlannerUnavailable = errors.New("query planner unavailable")
	// ErrAnalysisFailed wraps malformed or incomplete planner output.
	ErrAnalysisFailed = errors.New("query analysis failed")
	// ErrNotFound is returned by lookups that matched nothing.
	ErrNotFound = errors.New("not found")
)

// RegionTooLargeError carries both the first failure and the failure of the
// degraded retry.
type RegionTooLargeError struct {
	Original error
	Fallback error
}

func (e *RegionTooLargeError) Error() string {
	return "region too large for analysis even at reduced resolution, please select a smaller area " +
		"(original error: " + e.Original.Error() + "; fallback error: " + e.Fallback.Error() + ")"
}

// Unwrap lets errors.Is match ErrRegionTooLarge and the original cause.
func (e *RegionTooLargeError) Unwrap() []error {
	return []error{ErrRegionTooLarge, e.Original}
}
