package logic

import (
	"fmt"
	"strings"

	"github.com/avct/uasurfer"

	"github.com/patrickwarner/identrelay/internal/geoip"
	"github.com/patrickwarner/identrelay/internal/models"
)

// ProfileFromUA parses a raw User-Agent string with uasurfer.
func ProfileFromUA(uaString string) models.ClientProfile {
	u := uasurfer.Parse(uaString)

	var deviceType string
	switch u.DeviceType {
	case uasurfer.DeviceComputer:
		deviceType = "desktop"
	case uasurfer.DevicePhone:
		deviceType = "mobile"
	case uasurfer.DeviceTablet:
		deviceType = "tablet"
	default:
		deviceType = "other"
	}

	v := u.OS.Version
	bv := u.Browser.Version
	return models.ClientProfile{
		DeviceType: deviceType,
		OS:         fmt.Sprintf("%s %d.%d.%d", strings.TrimPrefix(u.OS.Name.String(), "OS"), v.Major, v.Minor, v.Patch),
		Browser:    fmt.Sprintf("%s %d.%d.%d", strings.TrimPrefix(u.Browser.Name.String(), "Browser"), bv.Major, bv.Minor, bv.Patch),
		IsBot:      u.IsBot(),
	}
}

// ResolveProfile combines UA parsing with a geo lookup of the resolved
// client IP. g may be nil.
func ResolveProfile(g *geoip.GeoIP, rc models.ResolvedContext) models.ClientProfile {
	p := ProfileFromUA(rc.ClientUserAgent)
	p.Country, p.Region = g.Lookup(rc.ClientIP)
	return p
}
