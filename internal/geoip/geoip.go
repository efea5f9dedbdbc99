package geoip

import (
	"encoding/json"
	"net"
	"os"

	"github.com/oschwald/geoip2-golang"
)

// GeoIP resolves client IPs to a country and region using a MaxMind DB or a
// JSON list of CIDR ranges. A nil *GeoIP answers every lookup with "".
type GeoIP struct {
	db       *geoip2.Reader
	fallback []record
}

type record struct {
	net     *net.IPNet
	country string
	region  string
}

// Init opens the GeoIP2 database located at path. When the file is not a
// MaxMind database it is parsed as JSON: [{"net","country","region"}].
func Init(path string) (*GeoIP, error) {
	g := &GeoIP{}
	db, err := geoip2.Open(path)
	if err == nil {
		g.db = db
		return g, nil
	}

	data, jerr := os.ReadFile(path)
	if jerr != nil {
		return nil, err
	}
	var entries []struct {
		Net     string `json:"net"`
		Country string `json:"country"`
		Region  string `json:"region"`
	}
	if jerr = json.Unmarshal(data, &entries); jerr != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, n, perr := net.ParseCIDR(e.Net); perr == nil {
			g.fallback = append(g.fallback, record{net: n, country: e.Country, region: e.Region})
		}
	}
	return g, nil
}

// Lookup returns the ISO country code and subdivision code for ip. Unknown
// or unparsable addresses yield empty strings.
func (g *GeoIP) Lookup(ip string) (country, region string) {
	if g == nil {
		return "", ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", ""
	}
	if g.db != nil {
		if rec, err := g.db.City(parsed); err == nil {
			country = rec.Country.IsoCode
			if len(rec.Subdivisions) > 0 {
				region = rec.Subdivisions[0].IsoCode
			}
			return country, region
		}
		if rec, err := g.db.Country(parsed); err == nil {
			return rec.Country.IsoCode, ""
		}
	}
	for _, r := range g.fallback {
		if r.net.Contains(parsed) {
			return r.country, r.region
		}
	}
	return "", ""
}

// Close releases resources associated with the database.
func (g *GeoIP) Close() error {
	if g != nil && g.db != nil {
		return g.db.Close()
	}
	return nil
}
