package geoip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges.json")
	data := `[{"net":"1.2.3.0/24","country":"US","region":"CA"},{"net":"2001:db8::/32","country":"DE"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	g, err := Init(path)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	country, region := g.Lookup("1.2.3.4")
	assert.Equal(t, "US", country)
	assert.Equal(t, "CA", region)

	country, _ = g.Lookup("2001:0db8:0000:0000:0000:0000:0000:0001")
	assert.Equal(t, "DE", country)

	country, region = g.Lookup("9.9.9.9")
	assert.Empty(t, country)
	assert.Empty(t, region)
}

func TestInit_MissingFile(t *testing.T) {
	_, err := Init(filepath.Join(t.TempDir(), "nope.mmdb"))
	assert.Error(t, err)
}

func TestLookup_NilAndGarbage(t *testing.T) {
	var g *GeoIP
	country, region := g.Lookup("1.2.3.4")
	assert.Empty(t, country)
	assert.Empty(t, region)

	country, _ = (&GeoIP{}).Lookup("not-an-ip")
	assert.Empty(t, country)
}
