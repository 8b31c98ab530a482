// Package commercial drives the back-office lifecycle of a lead:
// available → reserved → sold, with release back to available.
package commercial

import (
	"fmt"
	"strings"
	"time"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

type Action string

const (
	ActionReserve Action = "reserve"
	ActionRelease Action = "release"
	ActionSell    Action = "sell"
)

// transitions lists the operator actions legal from each state. sold is terminal.
var transitions = map[models.CommercialState]map[Action]models.CommercialState{
	models.StateAvailable: {
		ActionReserve: models.StateReserved,
		ActionSell:    models.StateSold,
	},
	models.StateReserved: {
		ActionRelease: models.StateAvailable,
		ActionSell:    models.StateSold,
	},
	models.StateSold: {},
}

// Next returns the state reached by applying action to from
func Next(from models.CommercialState, action Action) (models.CommercialState, bool) {
	if from == "" {
		from = models.StateAvailable
	}
	to, ok := transitions[from][action]
	return to, ok
}

// Actions is the per-lead action gating shown to the operator
type Actions struct {
	Reserve bool `json:"reserve"`
	Release bool `json:"release"`
	Sell    bool `json:"sell"`
}

// Allows reports whether action is enabled
func (a Actions) Allows(action Action) bool {
	switch action {
	case ActionReserve:
		return a.Reserve
	case ActionRelease:
		return a.Release
	case ActionSell:
		return a.Sell
	}
	return false
}

// Policy holds the tiers that may be reserved
type Policy struct {
	reservable map[string]bool
}

func NewPolicy(tiers []string) Policy {
	reservable := make(map[string]bool, len(tiers))
	for _, tier := range tiers {
		if tier = strings.ToUpper(strings.TrimSpace(tier)); tier != "" {
			reservable[tier] = true
		}
	}
	return Policy{reservable: reservable}
}

// TierQualifies reports whether the lead's tier or segment is reservable.
// The A_PLUS segment is a sub-segment of tier A.
func (p Policy) TierQualifies(item models.LeadItem) bool {
	if p.reservable[strings.ToUpper(item.Tier)] {
		return true
	}
	return item.Segment != nil && *item.Segment == models.SegmentAPlus && p.reservable[models.TierA]
}

// Allowed computes the action gating purely from the item's current state and tier
func (p Policy) Allowed(item models.LeadItem) Actions {
	_, reserve := Next(item.CommercialState, ActionReserve)
	_, release := Next(item.CommercialState, ActionRelease)
	_, sell := Next(item.CommercialState, ActionSell)
	return Actions{
		Reserve: reserve && p.TierQualifies(item),
		Release: release,
		Sell:    sell,
	}
}

// Expired reports a reservation whose deadline passed but which the backend
// has not yet normalized back to available
func Expired(item models.LeadItem, now time.Time) bool {
	return item.CommercialState == models.StateReserved &&
		item.ReservedUntil != nil && now.After(*item.ReservedUntil)
}

// Label is the short commercial state description shown next to a lead
func Label(item models.LeadItem) string {
	const layout = "02/01/2006 15:04"
	switch item.CommercialState {
	case models.StateSold:
		if item.SoldAt != nil {
			return fmt.Sprintf("sold (%s)", item.SoldAt.Local().Format(layout))
		}
		return "sold"
	case models.StateReserved:
		if item.ReservedUntil != nil {
			return fmt.Sprintf("reserved hasta %s", item.ReservedUntil.Local().Format(layout))
		}
		return "reserved"
	}
	return "available"
}

// DefaultSellAgency is the agency preselected for a sale: the reserving one, if any
func DefaultSellAgency(item models.LeadItem) string {
	if item.CommercialState == models.StateReserved && item.ReservedToAgencyID != nil {
		return *item.ReservedToAgencyID
	}
	return ""
}
