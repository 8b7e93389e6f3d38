package ribsource

import "strings"

// DetectProjectCollector infers the collection project and collector
// name from a RIB dump path or URL. RouteViews URLs carry the collector
// as the first path segment (e.g. route-views.sg), RIPE RIS URLs carry
// the rrcNN name there. Anything unrecognized stays "unknown".
func DetectProjectCollector(location string) (project, collector string) {
	project, collector = "unknown", "unknown"

	switch {
	case strings.Contains(location, "routeviews"):
		project = "route-views"
	case strings.Contains(location, "rrc"):
		project = "riperis"
	default:
		return project, collector
	}

	if strings.Contains(location, "http") {
		parts := strings.Split(location, "/")
		if len(parts) > 3 && parts[3] != "" {
			collector = parts[3]
		}
	}
	return project, collector
}
