package catalog

// Service tiers, add-ons, and booking slots are fixed configuration,
// embedded rather than loaded from a file or service. Prices are in
// cents.

// TierID identifies a service package.
type TierID string

const (
	TierStarter    TierID = "starter"
	TierGrowth     TierID = "growth"
	TierEnterprise TierID = "enterprise"
)

// Tier is a fixed service package with a flat project price.
type Tier struct {
	ID          TierID   `json:"id"`
	Name        string   `json:"name"`
	PriceCents  int64    `json:"price_cents"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Popular     bool     `json:"popular,omitempty"`
}

// AddonID identifies an optional supplementary service.
type AddonID string

const (
	AddonDesignSprint AddonID = "design-sprint"
	AddonSEO          AddonID = "seo-analytics"
	AddonMobileApp    AddonID = "mobile-app"
	AddonAIFeatures   AddonID = "ai-features"
)

// Addon is an optional flat-price service combinable with any tier.
type Addon struct {
	ID         AddonID `json:"id"`
	Name       string  `json:"name"`
	PriceCents int64   `json:"price_cents"`
}

var tiers = []Tier{
	{
		ID:          TierStarter,
		Name:        "Starter",
		PriceCents:  250000,
		Description: "Perfect for getting your idea off the ground fast.",
		Features: []string{
			"Landing page or simple web app",
			"Responsive design",
			"Up to 5 pages",
			"Basic SEO setup",
			"2 revision rounds",
			"1 month support",
		},
	},
	{
		ID:          TierGrowth,
		Name:        "Growth",
		PriceCents:  750000,
		Description: "The sweet spot for startups ready to scale.",
		Popular:     true,
		Features: []string{
			"Full-stack web application",
			"Auth & user accounts",
			"Database design & API",
			"Payment integration",
			"Admin dashboard",
			"4 revision rounds",
			"3 months support",
		},
	},
	{
		ID:          TierEnterprise,
		Name:        "Enterprise",
		PriceCents:  1800000,
		Description: "Built for ambitious teams that need the full picture.",
		Features: []string{
			"Custom platform or SaaS product",
			"Microservices architecture",
			"CI/CD pipeline setup",
			"Performance optimization",
			"Security audit",
			"Team onboarding",
			"Unlimited revisions",
			"6 months support",
		},
	},
}

var addons = []Addon{
	{ID: AddonDesignSprint, Name: "UI/UX Design Sprint", PriceCents: 120000},
	{ID: AddonSEO, Name: "SEO & Analytics Setup", PriceCents: 60000},
	{ID: AddonMobileApp, Name: "Mobile App (React Native)", PriceCents: 450000},
	{ID: AddonAIFeatures, Name: "AI Feature Integration", PriceCents: 300000},
}

// slots are the bookable times for any available day.
var slots = []string{
	"9:00 AM", "9:30 AM", "10:00 AM", "10:30 AM", "11:00 AM",
	"2:00 PM", "2:30 PM", "3:00 PM", "3:30 PM", "4:00 PM",
}

// blockedSlots are already reserved by other clients.
var blockedSlots = map[string]struct{}{
	"9:30 AM":  {},
	"10:00 AM": {},
	"2:30 PM":  {},
}

// Tiers returns all service packages in display order.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// TierByID looks up a tier.
func TierByID(id TierID) (Tier, bool) {
	for _, t := range tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// Addons returns all add-ons in display order.
func Addons() []Addon {
	out := make([]Addon, len(addons))
	copy(out, addons)
	return out
}

// AddonByID looks up an add-on.
func AddonByID(id AddonID) (Addon, bool) {
	for _, a := range addons {
		if a.ID == id {
			return a, true
		}
	}
	return Addon{}, false
}

// TimeSlots returns the fixed slot list.
func TimeSlots() []string {
	out := make([]string, len(slots))
	copy(out, slots)
	return out
}

// SlotBlocked reports whether a slot is already taken.
func SlotBlocked(slot string) bool {
	_, blocked := blockedSlots[slot]
	return blocked
}

// ValidSlot reports whether the value is one of the fixed slots.
func ValidSlot(slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
