package models

// Snapshot is the read-only data one engine call works on. Callers fetch it
// from the store before the call; the engine never writes it back.
type Snapshot struct {
	Templates      []AlertFormatTemplate `json:"templates" yaml:"templates"`
	GlobalMappings []FieldMapping        `json:"globalMappings" yaml:"mappings"`
	Rules          []WhitelistRule       `json:"rules" yaml:"-"`
}
