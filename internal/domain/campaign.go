package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MaxParticipants is the owner plus up to three invited guests.
const MaxParticipants = 4

// InitialPeriodWeeks is how long a new campaign runs on the flat budget.
const InitialPeriodWeeks = 2

type CampaignStatus string

const (
	CampaignStatusActive CampaignStatus = "ACTIVE"
	CampaignStatusPaused CampaignStatus = "PAUSED"
	CampaignStatusClosed CampaignStatus = "CLOSED"
)

func ParseCampaignStatus(raw string) (CampaignStatus, error) {
	switch CampaignStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case CampaignStatusActive:
		return CampaignStatusActive, nil
	case CampaignStatusPaused:
		return CampaignStatusPaused, nil
	case CampaignStatusClosed:
		return CampaignStatusClosed, nil
	default:
		return "", fmt.Errorf("%w: unknown campaign status %q", ErrValidation, raw)
	}
}

type Campaign struct {
	CampaignID          string         `json:"campaign_id"`
	OwnerID             string         `json:"owner_id"`
	ChainPosition       int            `json:"chain_position"`
	ParentCampaignID    string         `json:"parent_campaign_id,omitempty"`
	ChildCampaignID     string         `json:"child_campaign_id,omitempty"`
	Status              CampaignStatus `json:"status"`
	ParticipantIDs      []string       `json:"participant_ids"`
	CreatedAt           time.Time      `json:"created_at"`
	InitialPeriodEndsAt time.Time      `json:"initial_period_ends_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	// Version increases on every stored change and guards concurrent edits.
	Version             int            `json:"version"`
}

// NewRootCampaign opens position 1 of an owner's chain in the given week.
func NewRootCampaign(campaignID, ownerID string, week Week) Campaign {
	return Campaign{
		CampaignID:          campaignID,
		OwnerID:             ownerID,
		ChainPosition:       1,
		Status:              CampaignStatusActive,
		ParticipantIDs:      []string{ownerID},
		CreatedAt:           week.Start,
		InitialPeriodEndsAt: week.Start.Add(InitialPeriodWeeks * weekLength),
		UpdatedAt:           week.Start,
		Version:             1,
	}
}

// NewChild opens the next chain position, linked back to c. The caller must
// also set c.ChildCampaignID.
func (c Campaign) NewChild(campaignID string, week Week) Campaign {
	return Campaign{
		CampaignID:          campaignID,
		OwnerID:             c.OwnerID,
		ChainPosition:       c.ChainPosition + 1,
		ParentCampaignID:    c.CampaignID,
		Status:              CampaignStatusActive,
		ParticipantIDs:      []string{c.OwnerID},
		CreatedAt:           week.Start,
		InitialPeriodEndsAt: week.Start.Add(InitialPeriodWeeks * weekLength),
		UpdatedAt:           week.Start,
		Version:             1,
	}
}

func (c Campaign) HasParticipant(agentID string) bool {
	return slices.Contains(c.ParticipantIDs, agentID)
}

func (c Campaign) IsClosed() bool {
	return c.Status == CampaignStatusClosed
}

func (c *Campaign) AddParticipant(agentID string) error {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return fmt.Errorf("%w: agent_id is required", ErrValidation)
	}
	if c.IsClosed() {
		return ErrCampaignClosed
	}
	if c.HasParticipant(agentID) {
		return fmt.Errorf("%w: agent %s already participates", ErrConflict, agentID)
	}
	if len(c.ParticipantIDs) >= MaxParticipants {
		return ErrCampaignFull
	}
	c.ParticipantIDs = append(c.ParticipantIDs, agentID)
	return nil
}

func (c *Campaign) RemoveParticipant(agentID string) error {
	if c.IsClosed() {
		return ErrCampaignClosed
	}
	if agentID == c.OwnerID {
		return fmt.Errorf("%w: the owner cannot leave their campaign", ErrValidation)
	}
	i := slices.Index(c.ParticipantIDs, agentID)
	if i < 0 {
		return fmt.Errorf("%w: agent %s is not a participant", ErrNotFound, agentID)
	}
	c.ParticipantIDs = slices.Delete(c.ParticipantIDs, i, i+1)
	return nil
}

// TransitionTo applies a status change. CLOSED is terminal.
func (c *Campaign) TransitionTo(next CampaignStatus) error {
	if c.IsClosed() {
		if next == CampaignStatusClosed {
			return nil
		}
		return ErrCampaignClosed
	}
	c.Status = next
	return nil
}
