package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WhitelistRule is the structured form of an analyst's whitelist note. A nil
// or empty constraint matches anything.
type WhitelistRule struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AlertSignature     string             `bson:"alert_signature" json:"alertSignature"`
	ProcessName        *string            `bson:"process_name" json:"processName"`
	DeviceName         *string            `bson:"device_name" json:"deviceName"`
	TenantName         *string            `bson:"tenant_name" json:"tenantName"`
	IPAddress          *string            `bson:"ip_address" json:"ipAddress"`
	Reason             string             `bson:"reason" json:"reason"`
	RawText            string             `bson:"raw_text" json:"rawText"`
	AppliesToAllAlerts bool               `bson:"applies_to_all_alerts" json:"appliesToAllAlerts"`
	MatchTokens        []string           `bson:"match_tokens" json:"matchTokens"`
	CreatedBy          string             `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"createdAt"`
}

// Value dereferences an optional rule field.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
