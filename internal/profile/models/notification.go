package models

import (
	"time"

	id "praxis/pkg/domain"
)

// Channel is a delivery channel for stakeholder notifications.
type Channel string

// Supported notification channels.
const (
	ChannelInApp Channel = "inapp"
	ChannelEmail Channel = "email"
)

// ChannelsForImpact maps impact to delivery channels: critical changes reach
// stakeholders on every channel, high-impact ones in-app only.
func ChannelsForImpact(impact Impact) []Channel {
	switch impact {
	case ImpactCritical:
		return []Channel{ChannelInApp, ChannelEmail}
	case ImpactHigh:
		return []Channel{ChannelInApp}
	default:
		return nil
	}
}

// NotificationStatus records the outcome of one recipient delivery.
type NotificationStatus string

// Delivery outcomes.
const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// NotificationRecord is the audit-facing trace of one delivery attempt to
// one recipient on one channel. Fanout is best effort: a failed record is
// evidence, not a retry trigger. Subject and operation correlation comes from
// the audit entry the record is attached to.
type NotificationRecord struct {
	RecipientID id.RecipientID     `json:"recipient_id"`
	Channel     Channel            `json:"channel"`
	Status      NotificationStatus `json:"status"`
	Error       string             `json:"error,omitempty"`
	SentAt      time.Time          `json:"sent_at"`
}
