package models

// ClientProfile holds information derived from the resolved client context
// for logs, metrics and identification events. It never feeds back into the
// payload sent upstream.
type ClientProfile struct {
	DeviceType string // "desktop", "mobile", "tablet" or "other"
	OS         string
	Browser    string
	IsBot      bool   // the User-Agent itself names a known crawler
	Country    string // ISO 3166-1 alpha-2, empty when unknown
	Region     string
}
