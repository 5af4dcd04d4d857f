package catalog

import "github.com/warplanhq/warplan/internal/types"

// Default returns the built-in product catalog: the four-tier capability
// tree and the standard maneuver templates. The node slice order is the
// catalog order used for recommendation tie-breaks.
func Default() *Catalog {
	c := &Catalog{
		Nodes: []*types.CapabilityNode{
			// Foundation
			{ID: "positioning", Name: "Positioning", Tier: types.TierFoundation},
			{ID: "audience-research", Name: "Audience Research", Tier: types.TierFoundation},
			{ID: "brand-voice", Name: "Brand Voice", Tier: types.TierFoundation,
				ParentNodeIDs: []string{"positioning"}},

			// Traction
			{ID: "content-engine", Name: "Content Engine", Tier: types.TierTraction,
				ParentNodeIDs: []string{"positioning", "brand-voice"}},
			{ID: "channel-fit", Name: "Channel Fit", Tier: types.TierTraction,
				ParentNodeIDs: []string{"audience-research"}},
			{ID: "email-nurture", Name: "Email Nurture", Tier: types.TierTraction,
				ParentNodeIDs: []string{"audience-research"}},

			// Scale
			{ID: "paid-amplification", Name: "Paid Amplification", Tier: types.TierScale,
				ParentNodeIDs: []string{"content-engine", "channel-fit"}},
			{ID: "lifecycle-automation", Name: "Lifecycle Automation", Tier: types.TierScale,
				ParentNodeIDs: []string{"email-nurture"}},
			{ID: "partnership-plays", Name: "Partnership Plays", Tier: types.TierScale,
				ParentNodeIDs: []string{"content-engine"}},

			// Dominance
			{ID: "category-narrative", Name: "Category Narrative", Tier: types.TierDominance,
				ParentNodeIDs: []string{"paid-amplification", "partnership-plays"}},
			{ID: "community-moat", Name: "Community Moat", Tier: types.TierDominance,
				ParentNodeIDs: []string{"lifecycle-automation"}},
		},
		Maneuvers: []*types.ManeuverType{
			{ID: "teaser-campaign", Name: "Teaser Campaign", Category: "awareness",
				BaseDurationDays: 14, IntensityScore: 2},
			{ID: "launch-blitz", Name: "Launch Blitz", Category: "awareness",
				BaseDurationDays: 21, IntensityScore: 5},
			{ID: "thought-leadership", Name: "Thought Leadership Series", Category: "authority",
				BaseDurationDays: 60, IntensityScore: 3},
			{ID: "nurture-sequence", Name: "Nurture Sequence", Category: "conversion",
				BaseDurationDays: 30, IntensityScore: 2},
			{ID: "retargeting-push", Name: "Retargeting Push", Category: "conversion",
				BaseDurationDays: 14, IntensityScore: 3},
			{ID: "flash-offer", Name: "Flash Offer", Category: "conversion",
				BaseDurationDays: 7, IntensityScore: 2},
			{ID: "referral-loop", Name: "Referral Loop", Category: "growth",
				BaseDurationDays: 45, IntensityScore: 4},
			{ID: "co-marketing-swap", Name: "Co-Marketing Swap", Category: "growth",
				BaseDurationDays: 30, IntensityScore: 3},
		},
		Prerequisites: map[string][]string{
			// Teaser and flash campaigns are available from day one.
			"launch-blitz":       {"positioning", "brand-voice"},
			"thought-leadership": {"content-engine"},
			"nurture-sequence":   {"email-nurture"},
			"retargeting-push":   {"channel-fit"},
			"referral-loop":      {"lifecycle-automation"},
			"co-marketing-swap":  {"partnership-plays"},
		},
	}
	c.applyDefaults()
	return c
}
