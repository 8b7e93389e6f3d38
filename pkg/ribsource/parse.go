// Package ribsource streams RoutingRecords from RIB dumps (local or
// remote, optionally compressed) and from the RIPE RIS Live feed.
package ribsource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hervehildenbrand/peer-stats/pkg/models"
)

// ParseLine parses one machine-readable dump line (bgpdump -m format):
//
//	TABLE_DUMP2|1643673600|B|187.16.217.109|28571|1.0.0.0/24|28571 1916 13335|IGP|...
//
// Only the peer IP, peer ASN, prefix and AS path fields are used; the
// remaining attribute fields are ignored.
func ParseLine(line string) (models.RoutingRecord, error) {
	fields := strings.Split(line, "|")
	if len(fields) < 7 {
		return models.RoutingRecord{}, fmt.Errorf("short line: %d fields", len(fields))
	}

	asn, err := strconv.ParseUint(fields[4], 10, 32)
	if err != nil {
		return models.RoutingRecord{}, fmt.Errorf("bad peer ASN %q: %w", fields[4], err)
	}

	return models.RoutingRecord{
		PeerIP:  fields[3],
		PeerASN: uint32(asn),
		Prefix:  fields[5],
		ASPath:  fields[6],
	}, nil
}
