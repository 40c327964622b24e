package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
	CanonicalEventClassOps           = "ops"
)

const (
	EventAgentUpserted               = "agent.upserted"
	EventCampaignSaleAttributed      = "campaign.sale_attributed"
	EventCampaignCreated             = "campaign.created"
	EventCampaignSnapshotComputed    = "campaign.snapshot.computed"
	EventCommissionStatementComputed = "commission.statement.computed"
)

func IsConsumedEvent(eventType string) bool {
	switch eventType {
	case EventAgentUpserted, EventCampaignSaleAttributed:
		return true
	default:
		return false
	}
}

// ConsumedPartitionKeyPaths lists the partition key paths accepted for an inbound event type.
func ConsumedPartitionKeyPaths(eventType string) []string {
	switch eventType {
	case EventAgentUpserted:
		return []string{"data.agent_id", "agent_id"}
	case EventCampaignSaleAttributed:
		return []string{"data.campaign_id", "campaign_id"}
	default:
		return nil
	}
}

// IsPublishedEvent reports whether the engine emits eventType through its outbox.
func IsPublishedEvent(eventType string) bool {
	switch eventType {
	case EventCampaignCreated, EventCampaignSnapshotComputed, EventCommissionStatementComputed:
		return true
	default:
		return false
	}
}
