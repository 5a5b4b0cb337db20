package checkout

import (
	"fmt"
	"sort"

	"github.com/devcrafthub/client-portal/internal/catalog"
)

// Selection is the tier plus optional add-ons a visitor carries from
// the services page into checkout. It is owned by one checkout visit
// and discarded when checkout completes or the session reloads.
type Selection struct {
	Tier   catalog.TierID  `json:"tier"`
	Addons []catalog.AddonID `json:"addons,omitempty"`
}

// NewSelection validates the tier and add-on ids and de-duplicates the
// add-on set.
func NewSelection(tier catalog.TierID, addons []catalog.AddonID) (Selection, error) {
	if _, ok := catalog.TierByID(tier); !ok {
		return Selection{}, fmt.Errorf("checkout: unknown tier %q", tier)
	}
	seen := make(map[catalog.AddonID]struct{}, len(addons))
	unique := make([]catalog.AddonID, 0, len(addons))
	for _, id := range addons {
		if _, ok := catalog.AddonByID(id); !ok {
			return Selection{}, fmt.Errorf("checkout: unknown addon %q", id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	return Selection{Tier: tier, Addons: unique}, nil
}

// TotalCents is the tier price plus the sum of selected add-on prices.
func (s Selection) TotalCents() int64 {
	tier, ok := catalog.TierByID(s.Tier)
	if !ok {
		return 0
	}
	total := tier.PriceCents
	for _, id := range s.Addons {
		if addon, ok := catalog.AddonByID(id); ok {
			total += addon.PriceCents
		}
	}
	return total
}

// Describe returns a human-readable order summary line.
func (s Selection) Describe() string {
	tier, _ := catalog.TierByID(s.Tier)
	if len(s.Addons) == 0 {
		return fmt.Sprintf("%s Package", tier.Name)
	}
	return fmt.Sprintf("%s Package + %d add-on(s)", tier.Name, len(s.Addons))
}
