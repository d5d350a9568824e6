package extract

import "strings"

type Category string

const (
	CategoryGeneric Category = "generic"
	CategoryDomain  Category = "domain"
	CategoryNetwork Category = "network"
)

// DisplayField is one extracted field in display order.
type DisplayField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

var (
	sourceKeys      = []string{SourceIP, SourceHost, SourcePort}
	destinationKeys = []string{DestinationIP, DestinationHost, DestinationPort}
	domainKeys      = []string{RequestEffectiveTLD, DomainCreationTime}
	networkKeys     = []string{SourceIP, DestinationIP, SourcePort, DestinationPort}

	// genericOrder is used when an alert is neither domain nor network shaped.
	genericOrder = []string{
		SourceIP, DestinationIP, SourceHost, DestinationHost,
		SourcePort, DestinationPort, RequestEffectiveTLD, DomainCreationTime,
	}
)

// Classify decides whether an alert is domain-type or network-type. Domain
// wins when both apply.
func Classify(alertName string, f Fields) Category {
	name := strings.ToLower(alertName)
	if containsAny(name, "domain", "dns") || f.Has(RequestEffectiveTLD) || f.Has(DomainCreationTime) {
		return CategoryDomain
	}
	if containsAny(name, "anomaly", "smb", "connection") {
		return CategoryNetwork
	}
	for _, k := range networkKeys {
		if f.Has(k) {
			return CategoryNetwork
		}
	}
	return CategoryGeneric
}

// OrderFields lists the non-empty fields of f in display order for the
// alert's category, each key at most once.
func OrderFields(alertName string, f Fields) []DisplayField {
	var order []string
	switch Classify(alertName, f) {
	case CategoryDomain:
		order = concat(domainKeys, sourceKeys, destinationKeys)
	case CategoryNetwork:
		order = concat(sourceKeys, destinationKeys, domainKeys)
	default:
		order = genericOrder
	}

	out := []DisplayField{}
	seen := map[string]bool{}
	for _, k := range order {
		if seen[k] || !f.Has(k) {
			continue
		}
		seen[k] = true
		out = append(out, DisplayField{Key: k, Label: Label(k), Value: f[k]})
	}
	return out
}

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
