package extract

import (
	"strings"

	"github.com/ruby4mag/alert-normalizer/internal/payload"
)

// Canonical keys of Fields.
const (
	SourceIP            = "sourceIP"
	SourceHost          = "sourceHost"
	SourcePort          = "sourcePort"
	DestinationIP       = "destinationIP"
	DestinationHost     = "destinationHost"
	DestinationPort     = "destinationPort"
	RequestEffectiveTLD = "requestEffectiveTLD"
	DomainCreationTime  = "domainCreationTime"
)

// Fields maps canonical keys to the raw values found in a payload.
type Fields map[string]string

// Has reports whether key holds a non-blank value.
func (f Fields) Has(key string) bool {
	return strings.TrimSpace(f[key]) != ""
}

type fieldRule struct {
	key   string
	label string
	paths []string
	// detected lists names to look for in the detected_fields/detected_values pair.
	detected []string
}

var fieldRules = []fieldRule{
	{key: SourceIP, label: "Source IP", paths: []string{"srcip", "src_ip", "source_ip", "source.ip"}},
	{key: SourceHost, label: "Source Host", paths: []string{"srcip_host", "src_host", "source_host", "source.hostname"}},
	{key: SourcePort, label: "Source Port", paths: []string{"srcport", "src_port", "source_port", "source.port"}},
	{key: DestinationIP, label: "Destination IP", paths: []string{"dstip", "dst_ip", "destination_ip", "destination.ip"}},
	{key: DestinationHost, label: "Destination Host", paths: []string{"dstip_host", "dst_host", "destination_host", "destination.hostname"}},
	{key: DestinationPort, label: "Destination Port", paths: []string{"dstport", "dst_port", "destination_port", "destination.port"}},
	{
		key:      RequestEffectiveTLD,
		label:    "Request Effective TLD",
		paths:    []string{"request_effective_tld", "effective_tld", "dns.request_effective_tld"},
		detected: []string{"request_effective_tld", "effective_tld"},
	},
	{
		key:      DomainCreationTime,
		label:    "Domain Creation Time",
		paths:    []string{"domain_creation_time", "domain_created", "whois.creation_date"},
		detected: []string{"domain_creation_time", "domain_created", "creation_date"},
	},
}

// Label returns the display label of a canonical key.
func Label(key string) string {
	for _, r := range fieldRules {
		if r.key == key {
			return r.label
		}
	}
	return key
}

// extractFields copies every known field present in obj without transforming it.
func extractFields(obj *payload.Object) Fields {
	fields := Fields{}
	for _, r := range fieldRules {
		if v, ok := firstPresent(obj, r.paths); ok {
			fields[r.key] = v
			continue
		}
		if v, ok := detectedValue(obj, r.detected); ok {
			fields[r.key] = v
		}
	}
	return fields
}

func firstPresent(obj *payload.Object, paths []string) (string, bool) {
	for _, p := range paths {
		if v, ok := payload.ResolveString(obj, p); ok {
			return v, true
		}
	}
	return "", false
}

// detectedValue looks names up in the index-aligned detected_fields and
// detected_values arrays.
func detectedValue(obj *payload.Object, names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	rawFields, ok := payload.Resolve(obj, "detected_fields")
	if !ok {
		return "", false
	}
	rawValues, ok := payload.Resolve(obj, "detected_values")
	if !ok {
		return "", false
	}
	keys, ok := rawFields.([]any)
	if !ok {
		return "", false
	}
	values, ok := rawValues.([]any)
	if !ok {
		return "", false
	}

	for _, name := range names {
		for i, k := range keys {
			if i >= len(values) {
				break
			}
			if strings.EqualFold(strings.TrimSpace(payload.Stringify(k)), name) {
				return payload.Stringify(values[i]), true
			}
		}
	}
	return "", false
}

// Paths used to locate the endpoint context of an alert. The ESET fallback
// layout and the whitelist subject both read them.
var (
	HostIPPaths       = []string{"computer_ip", "host_ip", "hostip", "device_ip", "host.ip"}
	HostNamePaths     = []string{"computer_name", "hostname", "host_name", "host.name", "device_name", "srcip_host"}
	ProcessPathPaths  = []string{"processname", "process_path", "process.path", "process_name", "image_path"}
	UserNamePaths     = []string{"username", "user_name", "user.name", "account_name"}
	TriggerEventPaths = []string{"triggering_event", "trigger_event", "event_type"}
	CommandLinePaths  = []string{"command_line", "cmdline", "process.command_line", "commandline"}
)
