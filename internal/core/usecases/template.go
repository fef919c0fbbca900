package usecases

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/samirrijal/kadal/internal/core/domain"
)

var placeholderRE = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)(?::\.(\d+)f)?\}`)

// statSuffixes map reducer output keys like elevation_mean onto "mean".
var statSuffixes = []string{"_mean", "_min", "_max", "_stdDev"}

const (
	cannedFailure    = "I wasn't able to complete that analysis. Please try a different area or rephrase your request."
	cannedNavigation = "Navigating to the requested location."
	cannedImagery    = "Satellite imagery for this area is ready on the map."
	cannedStatistics = "Statistics for this area have been computed."
	cannedDatasets   = "Here are the datasets that match your search."
	cannedChange     = "Change analysis for this area is complete."
	cannedGeneric    = "Analysis complete. See the results for details."
)

// RenderResponse fills {field} and {field:.Nf} placeholders from tool
// results. If any placeholder cannot be filled the whole template is replaced
// by a canned sentence matching the last successful tool.
func RenderResponse(template string, outcomes []domain.ToolOutcome) string {
	if strings.TrimSpace(template) == "" {
		return cannedResponse(outcomes)
	}

	fields := templateFields(outcomes)
	missing := false
	rendered := placeholderRE.ReplaceAllStringFunc(template, func(m string) string {
		sub := placeholderRE.FindStringSubmatch(m)
		v, ok := fields[sub[1]]
		if !ok {
			missing = true
			return m
		}
		s, ok := formatField(v, sub[2])
		if !ok {
			missing = true
			return m
		}
		return s
	})
	if missing {
		return cannedResponse(outcomes)
	}
	return rendered
}

func formatField(v any, precision string) (string, bool) {
	if precision != "" {
		f, ok := toFloat(v)
		if !ok {
			return "", false
		}
		n, _ := strconv.Atoi(precision)
		return strconv.FormatFloat(f, 'f', n, 64), true
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// templateFields flattens successful results into one namespace. Earlier
// tools win on conflicts; within a result keys are visited in sorted order,
// so B1_mean fills {mean} before B2_mean.
func templateFields(outcomes []domain.ToolOutcome) map[string]any {
	fields := map[string]any{}
	set := func(k string, v any) {
		if _, exists := fields[k]; !exists && v != nil {
			fields[k] = v
		}
	}

	for _, o := range outcomes {
		if !o.Succeeded() {
			continue
		}
		if stats, ok := o.Result["statistics"].(map[string]any); ok {
			for _, k := range sortedKeys(stats) {
				for _, suffix := range statSuffixes {
					if strings.HasSuffix(k, suffix) {
						set(strings.TrimPrefix(suffix, "_"), stats[k])
					}
				}
			}
		}
		if dr, ok := o.Result["date_range"].(map[string]any); ok {
			set("start_date", dr["start"])
			set("end_date", dr["end"])
			if start, ok := dr["start"].(string); ok {
				if end, ok := dr["end"].(string); ok {
					set("date_range", fmt.Sprintf("%s to %s", start, end))
				}
			}
		}
		flatten(o.Result, 0, set)
	}
	return fields
}

// flatten copies scalars from m and from the maps directly inside it.
func flatten(m map[string]any, depth int, set func(string, any)) {
	var nested []map[string]any
	for _, k := range sortedKeys(m) {
		switch t := m[k].(type) {
		case map[string]any:
			nested = append(nested, t)
		case []any:
		default:
			set(k, t)
		}
	}
	if depth >= 1 {
		return
	}
	for _, n := range nested {
		flatten(n, depth+1, set)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cannedResponse picks a sentence for the last successful tool.
func cannedResponse(outcomes []domain.ToolOutcome) string {
	for i := len(outcomes) - 1; i >= 0; i-- {
		o := outcomes[i]
		if !o.Succeeded() {
			continue
		}
		switch domain.ToolName(o.Tool) {
		case domain.ToolGeocodeLocation:
			if loc, ok := o.Result["location"].(string); ok && loc != "" {
				return fmt.Sprintf("Navigating to %s.", loc)
			}
			return cannedNavigation
		case domain.ToolGetSatelliteImagery:
			return cannedImagery
		case domain.ToolGetImageStatistics:
			return cannedStatistics
		case domain.ToolSearchDatasets, domain.ToolGetDatasetInfo:
			return cannedDatasets
		case domain.ToolAnalyzeLandCoverChange, domain.ToolGetSimilarityHeatmap:
			return cannedChange
		}
		return cannedGeneric
	}
	if len(outcomes) > 0 {
		return cannedFailure
	}
	return cannedGeneric
}
