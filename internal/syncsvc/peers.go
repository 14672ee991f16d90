// Package syncsvc synchronizes the asset catalog with peer services in the
// publication fleet: a reachability probe per peer, then a manifest push,
// pull or both.
package syncsvc

import (
	"fmt"
	"strings"
)

// Peer is a fleet member assets are synchronized with.
type Peer struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DefaultPeers returns the standard fleet layout.
func DefaultPeers() []Peer {
	return []Peer{
		{Name: "styles_gallery", URL: "http://localhost:5000"},
		{Name: "distance_server", URL: "http://localhost:5001"},
		{Name: "publication_style_config_server", URL: "http://localhost:5002"},
	}
}

// ParsePeers parses a "name=url,name=url" peer list. An empty string yields
// no peers.
func ParsePeers(s string) ([]Peer, error) {
	var peers []Peer
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, url, ok := strings.Cut(entry, "=")
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("invalid peer entry %q (want name=url)", entry)
		}
		peers = append(peers, Peer{Name: name, URL: strings.TrimRight(url, "/")})
	}
	return peers, nil
}
