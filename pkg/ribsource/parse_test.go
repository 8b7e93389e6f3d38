package ribsource

import "testing"

func TestParseLine(t *testing.T) {
	line := "TABLE_DUMP2|1643673600|B|187.16.217.109|28571|1.0.0.0/24|28571 1916 13335|IGP|187.16.217.109|0|0||NAG||"

	rec, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if rec.PeerIP != "187.16.217.109" {
		t.Errorf("Expected peer IP 187.16.217.109, got %s", rec.PeerIP)
	}
	if rec.PeerASN != 28571 {
		t.Errorf("Expected peer ASN 28571, got %d", rec.PeerASN)
	}
	if rec.Prefix != "1.0.0.0/24" {
		t.Errorf("Expected prefix 1.0.0.0/24, got %s", rec.Prefix)
	}
	if rec.ASPath != "28571 1916 13335" {
		t.Errorf("Expected AS path '28571 1916 13335', got %q", rec.ASPath)
	}
}

func TestParseLine_IPv6(t *testing.T) {
	line := "TABLE_DUMP2|1643673600|B|2001:de8:4::3:8075:1|138075|2400:bb40:1100::/48|138075 6939 136933|IGP|2001:de8:4::3:8075:1|0|0||NAG||"

	rec, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if rec.PeerIP != "2001:de8:4::3:8075:1" {
		t.Errorf("Expected IPv6 peer IP, got %s", rec.PeerIP)
	}
	if rec.Prefix != "2400:bb40:1100::/48" {
		t.Errorf("Expected IPv6 prefix, got %s", rec.Prefix)
	}
}

func TestParseLine_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"too few fields", "TABLE_DUMP2|1643673600|B|1.2.3.4"},
		{"non-numeric ASN", "TABLE_DUMP2|1643673600|B|1.2.3.4|asn|10.0.0.0/24|100 200|IGP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLine(tt.line); err == nil {
				t.Errorf("Expected error for %q", tt.line)
			}
		})
	}
}

func TestDetectProjectCollector(t *testing.T) {
	tests := []struct {
		name          string
		location      string
		wantProject   string
		wantCollector string
	}{
		{
			name:          "routeviews URL",
			location:      "http://archive.routeviews.org/route-views.sg/bgpdata/2022.02/RIBS/rib.20220205.1800.bz2",
			wantProject:   "route-views",
			wantCollector: "route-views.sg",
		},
		{
			name:          "ripe ris URL",
			location:      "https://data.ris.ripe.net/rrc16/2022.02/bview.20220201.0000.gz",
			wantProject:   "riperis",
			wantCollector: "rrc16",
		},
		{
			name:          "routeviews local file",
			location:      "/data/routeviews/rib.20220205.1800.bz2",
			wantProject:   "route-views",
			wantCollector: "unknown",
		},
		{
			name:          "unrecognized",
			location:      "/tmp/some-dump.txt",
			wantProject:   "unknown",
			wantCollector: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project, collector := DetectProjectCollector(tt.location)
			if project != tt.wantProject {
				t.Errorf("Expected project %s, got %s", tt.wantProject, project)
			}
			if collector != tt.wantCollector {
				t.Errorf("Expected collector %s, got %s", tt.wantCollector, collector)
			}
		})
	}
}
