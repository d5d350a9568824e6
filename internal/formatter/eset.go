package formatter

import (
	"strings"

	"github.com/ruby4mag/alert-normalizer/internal/extract"
	"github.com/ruby4mag/alert-normalizer/internal/payload"
)

// esetMarkerPaths hold the device or source type of an alert.
var esetMarkerPaths = []string{"msg_origin.source", "msg_origin.vendor", "device_type", "source_type"}

var esetFields = []struct {
	label string
	paths []string
}{
	{"Host IP", extract.HostIPPaths},
	{"Host Name", extract.HostNamePaths},
	{"Process Path", extract.ProcessPathPaths},
	{"User Name", extract.UserNamePaths},
	{"Trigger Event", extract.TriggerEventPaths},
	{"Command Line", extract.CommandLinePaths},
}

// IsESET reports whether an alert comes from the ESET product family.
func IsESET(obj *payload.Object, alertName string) bool {
	if strings.Contains(strings.ToLower(alertName), "eset") {
		return true
	}
	for _, p := range esetMarkerPaths {
		if v, ok := payload.ResolveString(obj, p); ok && strings.Contains(strings.ToLower(v), "eset") {
			return true
		}
	}
	return false
}

func esetReport(obj *payload.Object, h Header) string {
	var r report
	r.header(h)
	for _, f := range esetFields {
		if v, ok := payload.FirstString(obj, f.paths...); ok {
			r.block(f.label, v)
		}
	}
	return r.String()
}
