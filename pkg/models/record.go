// Package models defines data structures for RIB entries and peer reports.
package models

// RoutingRecord is a single RIB entry as delivered by a record source.
// ASPath keeps the source's space-delimited token form so that AS_SET
// braces and 4-byte ASNs pass through untouched.
type RoutingRecord struct {
	PeerIP  string
	PeerASN uint32
	ASPath  string // space-delimited ASN tokens, collector first
	Prefix  string // CIDR notation, IPv4 or IPv6
}

// PeerSummary holds the per-peer counts published in a summary report.
// Set contents never appear here, only cardinalities.
type PeerSummary struct {
	ASN             uint32 `json:"asn"`
	IP              string `json:"ip"`
	NumV4Pfxs       int    `json:"num_v4_pfxs"`
	NumV6Pfxs       int    `json:"num_v6_pfxs"`
	NumConnectedASN int    `json:"num_connected_asn"`
}

// SummaryReport is the per-dump report: one PeerSummary per observed peer,
// plus the identifiers of the dump it was derived from.
type SummaryReport struct {
	Project    string                 `json:"project"`
	Collector  string                 `json:"collector"`
	RIBDumpURL string                 `json:"rib_dump_url"`
	Peers      map[string]PeerSummary `json:"peers"`
}

// ConnectedASNExport maps selected peer IPs to their full connected-ASN
// lists. Selected peers that were never observed map to an empty list.
type ConnectedASNExport map[string][]string
