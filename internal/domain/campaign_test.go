package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCampaignMembership(t *testing.T) {
	t.Parallel()
	c := NewRootCampaign("c1", "owner", DefaultWeekCalendar(time.UTC).WeekOf(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)))
	for _, guest := range []string{"g1", "g2", "g3"} {
		if err := c.AddParticipant(guest); err != nil {
			t.Fatalf("AddParticipant(%s): %v", guest, err)
		}
	}
	if err := c.AddParticipant("g4"); !errors.Is(err, ErrCampaignFull) {
		t.Fatalf("expected ErrCampaignFull, got %v", err)
	}
	if err := c.AddParticipant("g1"); !errors.Is(err, ErrConflict) && !errors.Is(err, ErrCampaignFull) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if err := c.RemoveParticipant("owner"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected owner removal to fail, got %v", err)
	}
	if err := c.RemoveParticipant("g2"); err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}
	if c.HasParticipant("g2") || len(c.ParticipantIDs) != 3 {
		t.Fatalf("unexpected participants %v", c.ParticipantIDs)
	}
	if err := c.RemoveParticipant("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCampaignClosedIsTerminal(t *testing.T) {
	t.Parallel()
	c := NewRootCampaign("c1", "owner", DefaultWeekCalendar(time.UTC).WeekOf(time.Now()))
	if err := c.TransitionTo(CampaignStatusPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := c.TransitionTo(CampaignStatusClosed); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.TransitionTo(CampaignStatusActive); !errors.Is(err, ErrCampaignClosed) {
		t.Fatalf("expected ErrCampaignClosed, got %v", err)
	}
	if err := c.AddParticipant("g1"); !errors.Is(err, ErrCampaignClosed) {
		t.Fatalf("expected ErrCampaignClosed on add, got %v", err)
	}
}

func TestNewChildLinksChain(t *testing.T) {
	t.Parallel()
	cal := DefaultWeekCalendar(time.UTC)
	root := NewRootCampaign("c1", "owner", cal.WeekOf(time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)))
	week := cal.WeekOf(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC))
	child := root.NewChild("c2", week)
	if child.ChainPosition != 2 || child.ParentCampaignID != "c1" || child.OwnerID != "owner" {
		t.Fatalf("unexpected child %+v", child)
	}
	if !child.CreatedAt.Equal(week.Start) || child.InitialPeriodEndsAt.Sub(week.Start) != 14*24*time.Hour {
		t.Fatalf("unexpected child dates %+v", child)
	}
	if _, err := ParseCampaignStatus("paused"); err != nil {
		t.Fatalf("ParseCampaignStatus: %v", err)
	}
	if _, err := ParseCampaignStatus("archived"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
