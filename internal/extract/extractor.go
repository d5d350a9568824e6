// Package extract derives the canonical attributes of an alert payload: name,
// description, tenant gating, timestamps and the network/domain fields shown
// in reports.
package extract

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ruby4mag/alert-normalizer/internal/payload"
)

const UnknownAlertName = "Unknown Alert"

// DateTimeLayout renders times as M/D/YY, h:mm AM|PM.
const DateTimeLayout = "1/2/06, 3:04 PM"

// ISOLayout matches the millisecond UTC ISO-8601 form used for timeOccurred.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Timestamp keys in priority order.
var timestampPaths = []string{"timestamp_utc", "orig_timestamp_utc", "alert_time", "timestamp", "orig_timestamp"}

var utcTimestampPaths = []string{"timestamp_utc", "orig_timestamp_utc"}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// Alert is everything the formatter and the whitelist matcher need from a payload.
type Alert struct {
	Name            string `json:"alertName"`
	EventName       string `json:"eventName,omitempty"`
	Description     string `json:"description"`
	TenantName      string `json:"tenantName,omitempty"`
	IsAllowedTenant bool   `json:"isAllowedTenant"`
	DateTime        string `json:"dateTime"`
	TimeOccurred    string `json:"timeOccurred,omitempty"`
	Fields          Fields `json:"fields"`

	HostName    string `json:"hostName,omitempty"`
	ProcessPath string `json:"processPath,omitempty"`
	IP          string `json:"ip,omitempty"`
}

// Extractor holds the settings extraction depends on. The zero value treats
// every tenant as not allowed and renders times in UTC.
type Extractor struct {
	AllowedTenants []string
	Location       *time.Location
}

func (e Extractor) location() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}

// Extract reads obj; it never fails and leaves unknown values empty.
func (e Extractor) Extract(obj *payload.Object) Alert {
	a := Alert{
		Name:       alertName(obj),
		EventName:  eventName(obj),
		TenantName: stringAt(obj, "tenant_name"),
		Fields:     extractFields(obj),
	}
	a.Description = stringAt(obj, "xdr_event.description")
	a.IsAllowedTenant = e.TenantAllowed(a.TenantName)

	if ts, ok := selectTimestamp(obj, timestampPaths); ok {
		a.DateTime = ts.In(e.location()).Format(DateTimeLayout)
		if a.IsAllowedTenant {
			occurred := ts
			if utc, ok := selectTimestamp(obj, utcTimestampPaths); ok {
				occurred = utc
			}
			a.TimeOccurred = occurred.UTC().Format(ISOLayout)
		}
	}

	a.HostName, _ = payload.FirstString(obj, HostNamePaths...)
	a.ProcessPath, _ = payload.FirstString(obj, ProcessPathPaths...)
	a.IP, _ = payload.FirstString(obj, HostIPPaths...)
	if a.IP == "" {
		a.IP = a.Fields[SourceIP]
	}
	return a
}

// TenantAllowed reports whether tenant contains, case-insensitively, any
// entry of the allow-list.
func (e Extractor) TenantAllowed(tenant string) bool {
	t := strings.ToLower(strings.TrimSpace(tenant))
	if t == "" {
		return false
	}
	for _, allowed := range e.AllowedTenants {
		a := strings.ToLower(strings.TrimSpace(allowed))
		if a != "" && strings.Contains(t, a) {
			return true
		}
	}
	return false
}

func alertName(obj *payload.Object) string {
	if s, ok := payload.FirstString(obj, "xdr_event.display_name", "event_name"); ok {
		return s
	}
	return UnknownAlertName
}

func eventName(obj *payload.Object) string {
	s, _ := payload.FirstString(obj, "event_name", "xdr_event.name")
	return s
}

func stringAt(obj *payload.Object, path string) string {
	s, _ := payload.ResolveString(obj, path)
	return s
}

// selectTimestamp returns the first of paths that holds a parseable time.
func selectTimestamp(obj *payload.Object, paths []string) (time.Time, bool) {
	for _, p := range paths {
		v, ok := payload.Resolve(obj, p)
		if !ok {
			continue
		}
		if t, ok := ParseTime(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTime accepts epoch seconds or milliseconds (numbers or numeric strings)
// and the common textual layouts. Layouts without a zone are read as UTC.
func ParseTime(v any) (time.Time, bool) {
	s := strings.TrimSpace(payload.Stringify(v))
	if s == "" {
		return time.Time{}, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return time.Time{}, false
		}
		return fromEpoch(f), true
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromEpoch(f float64) time.Time {
	// Values past 1e12 cannot be seconds for any plausible date.
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
