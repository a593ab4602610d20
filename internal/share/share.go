// Package share builds WhatsApp share links for campaign messages and keeps
// share statistics.
package share

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"sync"

	"reformhub/api/internal/accounts"
	"reformhub/api/internal/kvstore"
)

const (
	sendURL  = "https://api.whatsapp.com/send"
	statsKey = "whatsapp_stats"
)

// Campaign kinds accepted by TrackShare and the share endpoint.
const (
	KindManifesto        = "manifesto"
	KindPlatform         = "platform"
	KindUrgent           = "urgent"
	KindAnalytics        = "analytics"
	KindProposal         = "proposal"
	KindCoalition        = "coalition"
	KindInstitutionGroup = "institution-group"
	KindStateGroup       = "state-group"
	KindRoleGroup        = "role-group"
)

// Stats mirrors the persisted share counters. Reach is an estimate, bumped
// by a random 10-29 per share.
type Stats struct {
	Shares int `json:"shares"`
	Groups int `json:"groups"`
	Reach  int `json:"reach"`
}

// Link returns a WhatsApp deep link with the message prefilled. Spaces are
// percent-encoded, not plus-encoded, so the link works in both the app and
// the web client.
func Link(message string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return sendURL + "?text=" + escaped
}

// Manager composes campaign messages and tracks sharing activity.
type Manager struct {
	mu           sync.Mutex
	store        *kvstore.Store
	platformURL  string
	analyticsURL string
	reach        func() int
	stats        Stats
}

func NewManager(ctx context.Context, store *kvstore.Store, platformURL string) *Manager {
	platformURL = strings.TrimRight(platformURL, "/") + "/"
	return &Manager{
		store:        store,
		platformURL:  platformURL,
		analyticsURL: platformURL + "analytics.html",
		reach:        func() int { return rand.Intn(20) + 10 },
		stats:        kvstore.Get(ctx, store, statsKey, Stats{}),
	}
}

// TrackShare records one share of the given campaign kind. Group-invite
// kinds also count a new group.
func (m *Manager) TrackShare(ctx context.Context, kind string) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Shares++
	m.stats.Reach += m.reach()
	switch kind {
	case KindInstitutionGroup, KindStateGroup, KindRoleGroup:
		m.stats.Groups++
	}
	m.store.Set(ctx, statsKey, m.stats)
	return m.stats
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Message returns the ready-to-share text for a campaign kind, personalized
// with the signed-in profile where the kind calls for it. ok is false for an
// unknown kind.
func (m *Manager) Message(kind string, profile *accounts.PublicProfile, extras map[string]string) (string, bool) {
	switch kind {
	case KindManifesto:
		return m.Manifesto(), true
	case KindPlatform:
		return m.PlatformInvite(profile), true
	case KindUrgent:
		return m.UrgentUpdate(), true
	case KindAnalytics:
		return m.AnalyticsMessage(), true
	case KindProposal:
		title := extras["title"]
		if title == "" {
			title = "Reform Proposal"
		}
		return m.ProposalMessage(title), true
	case KindCoalition:
		return m.CoalitionStats(atoi(extras["members"], 12), atoi(extras["states"], 8)), true
	case KindInstitutionGroup:
		return m.InstitutionGroup(profile), true
	case KindStateGroup:
		return m.StateGroup(profile), true
	case KindRoleGroup:
		return m.RoleGroup(profile), true
	default:
		return "", false
	}
}

func (m *Manager) Manifesto() string {
	return `🚨 *THE SOUL OF AYURVEDA - A CALL FOR REFORM* 🚨

"Our Ayurveda teachers spend 70% time on compliance paperwork, only 30% on actual teaching"

💔 *Critical Issues We Face:*
• Endless documentation burden (347 documents per inspection!)
• Perpetual inspection anxiety disrupting academic calendar
• Lost passion for teaching ancient wisdom
• Students learning bureaucracy instead of healing

💪 *"The ultimate measure of a man is not where he stands in moments of comfort and convenience, but where he stands at times of challenge and controversy." - Martin Luther King Jr.*

🕉️ It's time to RECLAIM our sacred purpose!

Join the reform movement: ` + m.platformURL + `

*Together we rise, divided we fall*

#AyurvedaReform #EducationReform #AncientWisdom #ModernChallenges`
}

func (m *Manager) PlatformInvite(profile *accounts.PublicProfile) string {
	personalNote := ""
	if profile != nil {
		personalNote = "\n\n*Invitation from " + profile.Name + "*\n" + profile.Institution
	}

	return `🌟 *Ayurveda Education Reform Platform* 🌟

Join thousands of Ayurveda educators who are fighting back against bureaucratic burden!

✅ *Safe anonymous forums* for honest discussions
✅ *Coalition building* tools to unite institutions
✅ *Compliance cost tracking* to document the burden
✅ *Reform proposal generator* for systematic change
✅ *Analytics dashboard* for presentations to authorities

🕉️ *"Where the mind is without fear and the head is held high"* - Rabindranath Tagore

This is our platform to reclaim the soul of Ayurvedic education!

Join us: ` + m.platformURL + `
Analytics: ` + m.analyticsURL + `

*Be the change you wish to see* - Gandhi` + personalNote + `

#AyurvedaEducationReform #UniteForChange`
}

func (m *Manager) UrgentUpdate() string {
	return `🚨 *URGENT: AYURVEDA EDUCATION CRISIS* 🚨

⚠️ *IMMEDIATE ACTION REQUIRED* ⚠️

New regulatory changes threaten to increase bureaucratic burden on Ayurveda colleges by 40%!

📊 *Current Impact:*
• ₹2.9Cr+ annual compliance costs
• 25,920+ teaching hours lost to paperwork
• 78% educators report job dissatisfaction
• Students learning compliance > healing

🔥 *WE MUST ACT NOW!*

1️⃣ Join our reform platform: ` + m.platformURL + `
2️⃣ Share your experience anonymously
3️⃣ Sign reform proposals
4️⃣ Unite with fellow educators

*"Injustice anywhere is a threat to justice everywhere"* - Martin Luther King Jr.

⏰ Time is running out. Every voice matters!

#UrgentReform #AyurvedaEducation #ActNow`
}

func (m *Manager) AnalyticsMessage() string {
	return `📈 *AYURVEDA EDUCATION CRISIS - BY THE NUMBERS* 📈

Data doesn't lie. The bureaucratic burden is CRUSHING our education system:

💰 *Financial Impact:*
₹2.9+ Crores annual compliance costs
₹45,000+ average cost per institution

⏰ *Time Lost:*
25,920+ teaching hours lost annually
347 documents required per inspection
180+ hours monthly spent on compliance

👥 *Human Impact:*
78% educators report decreased job satisfaction
45+ institutions participating in reform
12+ states represented in movement

😰 *The Reality:*
Our teachers spend MORE time on paperwork than teaching ancient healing wisdom!

📊 See full analytics: ` + m.analyticsURL + `
🤝 Join the movement: ` + m.platformURL + `

*"In God we trust, all others must bring data"* - W. Edwards Deming

The data is clear: WE NEED REFORM NOW!

#DataDrivenReform #AyurvedaEducation #Numbers`
}

func (m *Manager) ProposalMessage(title string) string {
	return `📋 *NEW REFORM PROPOSAL: ` + title + `* 📋

A comprehensive reform proposal has been generated using our platform's guided builder.

🎯 *Key Points:*
• Evidence-based problem analysis
• Practical, implementable solutions
• Expected benefits clearly outlined
• Implementation timeline provided

💪 *"Be the change you wish to see in the world"* - Gandhi

This proposal represents the collective voice of Ayurveda educators demanding meaningful reform.

🔗 View full proposal: ` + m.platformURL + `
📊 Supporting data: ` + m.analyticsURL + `

*Generated via Ayurveda Education Reform Platform*

#ReformProposal #AyurvedaEducation #SystematicChange`
}

func (m *Manager) CoalitionStats(members, states int) string {
	return fmt.Sprintf(`🤝 *COALITION GROWTH UPDATE* 🤝

The Ayurveda Education Reform movement is gaining momentum!

📈 *Coalition Statistics:*
🏥 %d+ Institutions joined
🗺️ %d+ States represented
👥 %d+ Educators actively participating
📊 %d+ Students impacted

🔥 *Recent Milestones:*
✅ Platform launched with full functionality
✅ Anonymous forums providing safe space
✅ Data collection documenting bureaucratic burden
✅ Reform proposals being generated systematically

💪 *"Unity is strength... when there is teamwork and collaboration, wonderful things can be achieved"* - Mattie Stepanek

Join our growing coalition: %s

*Every institution matters. Every voice counts.*

#CoalitionGrowth #AyurvedaReform #UnityInAction`, members, states, members*3, members*150, m.platformURL)
}

func (m *Manager) InstitutionGroup(profile *accounts.PublicProfile) string {
	institution := "Your Institution"
	if profile != nil && profile.Institution != "" {
		institution = profile.Institution
	}

	return fmt.Sprintf(`👥 *%s - Ayurveda Reform Group*

This WhatsApp group is for faculty, staff, and administrators of %s to discuss education reform issues safely.

🎯 *Group Purpose:*
• Share experiences with regulatory burden
• Coordinate responses to inspections
• Discuss reform proposals
• Support each other through challenges

📋 *Group Guidelines:*
• Maintain professional discourse
• Respect anonymity preferences
• Focus on constructive solutions
• Share relevant updates from main platform

🔗 Main Platform: %s

*"Where the mind is without fear and the head is held high"* - Tagore

Let's work together to reclaim our educational purpose!`, institution, institution, m.platformURL)
}

func (m *Manager) StateGroup(profile *accounts.PublicProfile) string {
	state := "Your State"
	if profile != nil && profile.State != "" {
		state = profile.State
	}

	return fmt.Sprintf(`🗺️ *%s Ayurveda Education Reform Group*

Connecting Ayurveda educators across %s for coordinated reform action!

🎯 *State-Level Coordination:*
• Share state-specific regulatory challenges
• Coordinate with state education boards
• Pool resources for reform initiatives
• Share best practices between institutions

📊 *Our Collective Strength:*
Multiple institutions in %s are part of the national reform movement!

🔗 Platform: %s
📈 Analytics: %s

*"Alone we can do so little; together we can do so much"* - Helen Keller

#%sAyurvedaReform`, state, state, state, m.platformURL, m.analyticsURL, state)
}

var roleGroupNames = map[string]string{
	accounts.RoleFaculty:    "Faculty & Teachers",
	accounts.RolePrincipal:  "Principals & Administrators",
	accounts.RoleStudent:    "Students",
	accounts.RoleResearcher: "Researchers",
}

func (m *Manager) RoleGroup(profile *accounts.PublicProfile) string {
	role := "educator"
	if profile != nil && profile.Role != "" {
		role = profile.Role
	}
	groupName, ok := roleGroupNames[role]
	if !ok {
		groupName = "Educators"
	}

	return fmt.Sprintf(`👨‍🏫 *%s - Ayurveda Reform Network*

A dedicated space for %s to discuss role-specific reform challenges.

🎯 *Role-Specific Focus:*
• Share common challenges faced in your role
• Develop targeted reform proposals
• Support colleagues in similar positions
• Exchange practical solutions

💪 *Your Voice Matters:*
%s have unique insights into the education system that are crucial for meaningful reform.

🔗 Join the movement: %s

*"The ultimate measure of a man is not where he stands in moments of comfort and convenience, but where he stands at times of challenge and controversy."* - MLK Jr.

#%sReform #AyurvedaEducation`, groupName, strings.ToLower(groupName), groupName, m.platformURL, role)
}

func atoi(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}
