package formatter

import "github.com/ruby4mag/alert-normalizer/internal/models"

// DefaultMappings is the built-in table consulted after global and template
// mappings. It covers the labels analysts use most often in saved examples.
var DefaultMappings = []models.FieldMapping{
	{Label: "Source IP", Path: "srcip"},
	{Label: "Source Host", Path: "srcip_host"},
	{Label: "Source Port", Path: "srcport"},
	{Label: "Source Country", Path: "srcip_geo.country"},
	{Label: "Destination IP", Path: "dstip"},
	{Label: "Destination Host", Path: "dstip_host"},
	{Label: "Destination Port", Path: "dstport"},
	{Label: "Destination Country", Path: "dstip_geo.country"},
	{Label: "Protocol", Path: "proto_name"},
	{Label: "Request Effective TLD", Path: "request_effective_tld"},
	{Label: "Domain Creation Time", Path: "domain_creation_time"},
	{Label: "Domain", Path: "dns_query"},
	{Label: "Host Name", Path: "computer_name"},
	{Label: "Host IP", Path: "computer_ip"},
	{Label: "Process Path", Path: "processname"},
	{Label: "Process Name", Path: "processname"},
	{Label: "User Name", Path: "username"},
	{Label: "Command Line", Path: "command_line"},
	{Label: "Trigger Event", Path: "triggering_event"},
	{Label: "Tenant", Path: "tenant_name"},
	{Label: "Severity", Path: "severity"},
	{Label: "Tactic", Path: "xdr_event.tactic.name"},
	{Label: "Technique", Path: "xdr_event.technique.name"},
	{Label: "Sensor", Path: "engid_name"},
}
