package models

import (
	"time"

	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

// RecentDropsShown is how many drop log entries a roster view carries.
const RecentDropsShown = 10

// ============================================
// Roster Request DTOs
// ============================================

type CreateSiegeRequest struct {
	// ID is the posted message id; a uuid is generated when empty.
	ID        string `json:"id,omitempty"`
	ChannelID string `json:"channelId" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
	Timezone  string `json:"timezone,omitempty"`
	Tier      string `json:"tier,omitempty" binding:"max=32"`
}

type CreateDungeonRequest struct {
	ID        string `json:"id,omitempty"`
	ChannelID string `json:"channelId" binding:"required"`
	Dungeon   string `json:"dungeon" binding:"required,max=100"`
	PartySize int    `json:"partySize,omitempty"`
	Date      string `json:"date" binding:"required"`
	Time      string `json:"time" binding:"required"`
	Timezone  string `json:"timezone,omitempty"`
	Notes     string `json:"notes,omitempty" binding:"max=500"`
}

// ActionRequest is a raw UI interaction: the component's custom id, any
// selected values and the text of a modal field.
type ActionRequest struct {
	CustomID string   `json:"customId" binding:"required"`
	Values   []string `json:"values,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// ============================================
// Roster Response DTOs
// ============================================

type RosterResponse struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	CreatorID string     `json:"creatorId"`
	IsActive  bool       `json:"isActive"`
	Version   int64      `json:"version"`
	ChannelID string     `json:"channelId"`
	Title     string     `json:"title"`
	Tier      string     `json:"tier,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Timezone  string     `json:"timezone,omitempty"`
	StartsAt  *time.Time `json:"startsAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`

	Siege   *SiegeView   `json:"siege,omitempty"`
	Dungeon *DungeonView `json:"dungeon,omitempty"`
}

type SiegeView struct {
	Attending []string        `json:"attending"`
	Declined  []string        `json:"declined"`
	Roles     []SiegeRoleView `json:"roles"`
}

type SiegeRoleView struct {
	Role       types.JobClass `json:"role"`
	Capacity   int            `json:"capacity"`
	Principals []string       `json:"principals"`
	Waitlist   []string       `json:"waitlist"`
}

type DungeonView struct {
	PartySize    int               `json:"partySize"`
	Participants []string          `json:"participants"`
	Roles        []DungeonRoleView `json:"roles"`
	RecentDrops  []DropView        `json:"recentDrops"`
	TotalDrops   int               `json:"totalDrops"`
}

type DungeonRoleView struct {
	Role    types.JobClass `json:"role"`
	Members []string       `json:"members"`
}

type DropView struct {
	ID         string    `json:"id"`
	RecordedBy string    `json:"recordedBy"`
	Text       string    `json:"text"`
	RecordedAt time.Time `json:"recordedAt"`
}

type ActionResponse struct {
	Message string          `json:"message"`
	Outcome *roster.Outcome `json:"outcome,omitempty"`
	Roster  *RosterResponse `json:"roster,omitempty"`
	// Candidates is set for the manage action.
	Candidates []string `json:"candidates,omitempty"`
}

type KickCandidatesResponse struct {
	RosterID   string   `json:"rosterId"`
	Candidates []string `json:"candidates"`
}

// NewRosterResponse flattens a roster into its display form. Roles are
// listed in job class order.
func NewRosterResponse(r roster.Roster) RosterResponse {
	resp := RosterResponse{
		ID:        r.ID,
		Kind:      string(r.Kind),
		CreatorID: r.CreatorID,
		IsActive:  r.Active,
		Version:   r.Version,
		ChannelID: r.Details.ChannelID,
		Title:     r.Details.Title,
		Tier:      r.Details.Tier,
		Notes:     r.Details.Notes,
		Timezone:  r.Details.Timezone,
		StartsAt:  optionalTime(r.Details.StartsAt),
		ExpiresAt: optionalTime(r.Details.ExpiresAt),
		CreatedAt: r.Details.CreatedAt,
	}

	if s := r.Siege; s != nil {
		view := &SiegeView{
			Attending: nonNil(s.Attending),
			Declined:  nonNil(s.Declined),
			Roles:     []SiegeRoleView{},
		}
		for _, role := range types.ValidJobClasses {
			capacity, offered := s.Capacity[role]
			if !offered {
				continue
			}
			view.Roles = append(view.Roles, SiegeRoleView{
				Role:       role,
				Capacity:   capacity,
				Principals: nonNil(s.Principals[role]),
				Waitlist:   nonNil(s.Waitlist[role]),
			})
		}
		resp.Siege = view
	}

	if d := r.Dungeon; d != nil {
		view := &DungeonView{
			PartySize:    d.Capacity,
			Participants: nonNil(d.Participants),
			Roles:        []DungeonRoleView{},
			RecentDrops:  []DropView{},
			TotalDrops:   len(d.Drops),
		}
		for _, role := range types.ValidJobClasses {
			if members := d.Roles[role]; len(members) > 0 {
				view.Roles = append(view.Roles, DungeonRoleView{Role: role, Members: nonNil(members)})
			}
		}
		for _, drop := range d.RecentDrops(RecentDropsShown) {
			view.RecentDrops = append(view.RecentDrops, DropView(drop))
		}
		resp.Dungeon = view
	}

	return resp
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nonNil(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
