// Package report turns an aggregation result into the two published
// output shapes: a counts-only summary report and a full connected-ASN
// export for a selected set of peers.
package report

import (
	"sort"

	"github.com/hervehildenbrand/peer-stats/pkg/aggregator"
	"github.com/hervehildenbrand/peer-stats/pkg/models"
)

// Build derives both outputs from the aggregation result. It is a pure
// transform: deterministic for a given input and it never mutates the
// result. Connected-ASN lists are sorted so serialization is reproducible.
func Build(result aggregator.Result, selectedIPs []string, collector, dumpURL, project string) (models.SummaryReport, models.ConnectedASNExport) {
	summary := models.SummaryReport{
		Project:    project,
		Collector:  collector,
		RIBDumpURL: dumpURL,
		Peers:      make(map[string]models.PeerSummary, len(result)),
	}

	for ip, state := range result {
		summary.Peers[ip] = models.PeerSummary{
			ASN:             state.ASN,
			IP:              ip,
			NumV4Pfxs:       len(state.V4Prefixes),
			NumV6Pfxs:       len(state.V6Prefixes),
			NumConnectedASN: len(state.ConnectedASNs),
		}
	}

	export := make(models.ConnectedASNExport, len(selectedIPs))
	for _, ip := range selectedIPs {
		asns := []string{}
		if state, ok := result[ip]; ok {
			asns = make([]string, 0, len(state.ConnectedASNs))
			for asn := range state.ConnectedASNs {
				asns = append(asns, asn)
			}
			sort.Strings(asns)
		}
		export[ip] = asns
	}

	return summary, export
}
