package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateNormalize(t *testing.T) {
	tmpl := AlertFormatTemplate{AlertName: "  Port Scan ", EventName: "scan"}
	tmpl.Normalize()
	assert.Equal(t, "Port Scan", tmpl.AlertName)
	assert.Equal(t, "port scan", tmpl.AlertIdentifier)

	byEvent := AlertFormatTemplate{EventName: "DNS_Tunnel"}
	byEvent.Normalize()
	assert.Equal(t, "dns_tunnel", byEvent.AlertIdentifier)

	explicit := AlertFormatTemplate{AlertName: "x", AlertIdentifier: " Custom "}
	explicit.Normalize()
	assert.Equal(t, "custom", explicit.AlertIdentifier)
}

func TestTemplateExpectedLines(t *testing.T) {
	tmpl := AlertFormatTemplate{ExpectedFormat: []string{"Title\r\n\r\nSource IP", "Destination IP"}}
	assert.Equal(t, []string{"Title", "", "Source IP", "Destination IP"}, tmpl.ExpectedLines())
	assert.True(t, tmpl.HasExpectedFormat())

	blank := AlertFormatTemplate{ExpectedFormat: []string{"", "  "}}
	assert.False(t, blank.HasExpectedFormat())
}

func TestTemplateValidate(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    AlertFormatTemplate
		wantErr bool
	}{
		{
			name: "mappings only",
			tmpl: AlertFormatTemplate{AlertName: "a", FieldMappings: []FieldMapping{{Label: "Source IP", Path: "srcip"}}},
		},
		{
			name: "expected format only",
			tmpl: AlertFormatTemplate{EventName: "e", ExpectedFormat: []string{"Title", "Source IP"}},
		},
		{
			name:    "no names",
			tmpl:    AlertFormatTemplate{ExpectedFormat: []string{"Title"}},
			wantErr: true,
		},
		{
			name:    "no body",
			tmpl:    AlertFormatTemplate{AlertName: "a"},
			wantErr: true,
		},
		{
			name: "duplicate labels",
			tmpl: AlertFormatTemplate{AlertName: "a", FieldMappings: []FieldMapping{
				{Label: "Source IP", Path: "srcip"},
				{Label: "Source IP", Path: "src_ip"},
			}},
			wantErr: true,
		},
		{
			name: "labels differing only in whitespace",
			tmpl: AlertFormatTemplate{AlertName: "a", FieldMappings: []FieldMapping{
				{Label: "Source IP", Path: "srcip"},
				{Label: "Source IP ", Path: "src_ip"},
			}},
			wantErr: true,
		},
		{
			name:    "whitespace label",
			tmpl:    AlertFormatTemplate{AlertName: "a", FieldMappings: []FieldMapping{{Label: "   ", Path: "srcip"}}},
			wantErr: true,
		},
		{
			name:    "whitespace path",
			tmpl:    AlertFormatTemplate{AlertName: "a", FieldMappings: []FieldMapping{{Label: "Source IP", Path: "\t"}}},
			wantErr: true,
		},
		{
			name:    "mapping without path",
			tmpl:    AlertFormatTemplate{AlertName: "a", FieldMappings: []FieldMapping{{Label: "Source IP"}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tmpl.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMappings(t *testing.T) {
	require.NoError(t, ValidateMappings([]FieldMapping{{Label: "a", Path: "x"}, {Label: "b", Path: "y"}}))
	assert.Error(t, ValidateMappings([]FieldMapping{{Label: "a", Path: "x"}, {Label: " a ", Path: "y"}}))
	assert.Error(t, ValidateMappings([]FieldMapping{{Label: "", Path: "x"}}))
	assert.Error(t, ValidateMappings([]FieldMapping{{Label: "  ", Path: "x"}}))
	assert.Error(t, ValidateMappings([]FieldMapping{{Label: "a", Path: " "}}))
}

func TestTemplateNormalizeTrimsMappings(t *testing.T) {
	tmpl := AlertFormatTemplate{AlertName: " Port Scan ", FieldMappings: []FieldMapping{{Label: " Source IP ", Path: " srcip "}}}
	tmpl.Normalize()
	assert.Equal(t, "port scan", tmpl.AlertIdentifier)
	assert.Equal(t, []FieldMapping{{Label: "Source IP", Path: "srcip"}}, tmpl.FieldMappings)
	require.NoError(t, tmpl.Validate())
}

func TestUserPassword(t *testing.T) {
	bcryptCost = 4
	u := User{Username: "analyst", Role: RoleAnalyst}
	require.NoError(t, u.HashPassword("s3cret"))
	assert.NotEqual(t, "s3cret", u.Password)
	assert.NoError(t, u.CheckPassword("s3cret"))
	assert.Error(t, u.CheckPassword("wrong"))
	assert.NoError(t, u.Validate())

	bad := User{Username: "x", Role: "root"}
	assert.Error(t, bad.Validate())
}

func TestValue(t *testing.T) {
	s := "x"
	assert.Equal(t, "x", Value(&s))
	assert.Equal(t, "", Value(nil))
}
