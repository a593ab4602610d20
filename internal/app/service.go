package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reformhub/api/internal/accounts"
	"reformhub/api/internal/auth"
	"reformhub/api/internal/coalition"
	"reformhub/api/internal/compliance"
	"reformhub/api/internal/forum"
	"reformhub/api/internal/notify"
	"reformhub/api/internal/platform"
	"reformhub/api/internal/proposal"
	"reformhub/api/internal/search"
	"reformhub/api/internal/share"
)

// Pinger is implemented by durable mediums that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Session is the authenticated caller derived from a bearer token.
type Session struct {
	Token   string
	Profile accounts.PublicProfile
}

// PostInput carries a forum post submission. Anonymity controls how the
// author is displayed: "anonymous" hides the name even for signed-in users.
type PostInput struct {
	Category  string `json:"category"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	Anonymity string `json:"anonymity"`
}

// Service wires the domain managers together and owns the token lifecycle.
type Service struct {
	tokenSecret []byte
	sessionTTL  time.Duration

	directory  *accounts.Directory
	forum      *forum.Manager
	coalition  *coalition.Manager
	compliance *compliance.Tracker
	proposals  *proposal.Generator
	notify     *notify.Manager
	share      *share.Manager
	search     *search.Service

	pinger Pinger
}

func NewService(
	tokenSecret []byte,
	sessionTTL time.Duration,
	directory *accounts.Directory,
	forumMgr *forum.Manager,
	coalitionMgr *coalition.Manager,
	complianceTracker *compliance.Tracker,
	proposals *proposal.Generator,
	notifications *notify.Manager,
	shareMgr *share.Manager,
	searchSvc *search.Service,
	pinger Pinger,
) *Service {
	return &Service{
		tokenSecret: tokenSecret,
		sessionTTL:  sessionTTL,
		directory:   directory,
		forum:       forumMgr,
		coalition:   coalitionMgr,
		compliance:  complianceTracker,
		proposals:   proposals,
		notify:      notifications,
		share:       shareMgr,
		search:      searchSvc,
		pinger:      pinger,
	}
}

// Bootstrap seeds the welcome notification on a fresh install and pushes
// the current collections into the search index.
func (s *Service) Bootstrap(ctx context.Context) {
	if s.notify.Len() == 0 {
		s.notify.Add(ctx, "platform", "Welcome to the Ayurveda Education Reform Platform. Share your experience, join the coalition, and make your voice count.", notify.ImportanceNormal)
	}
	s.search.ReindexAll(s.forum.Posts(), s.coalition.Members())
}

// Ping reports durable medium connectivity for the readiness probe.
func (s *Service) Ping(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	return s.pinger.Ping(ctx)
}

// --- accounts ---

func (s *Service) Register(ctx context.Context, req accounts.RegisterRequest) (accounts.PublicProfile, string, error) {
	profile, err := s.directory.Register(ctx, req)
	if err != nil {
		return accounts.PublicProfile{}, "", err
	}
	token, err := s.issueToken(profile)
	if err != nil {
		return accounts.PublicProfile{}, "", err
	}
	s.notify.Add(ctx, "account", fmt.Sprintf("Welcome aboard, %s! Your account is ready.", profile.Name), notify.ImportanceNormal)
	return profile, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (accounts.PublicProfile, string, error) {
	profile, err := s.directory.Login(ctx, email, password)
	if err != nil {
		return accounts.PublicProfile{}, "", err
	}
	token, err := s.issueToken(profile)
	if err != nil {
		return accounts.PublicProfile{}, "", err
	}
	return profile, token, nil
}

func (s *Service) Logout(ctx context.Context) {
	s.directory.Logout(ctx)
}

// SessionFromToken resolves a bearer token to the current account profile.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken(s.tokenSecret, token)
	if err != nil {
		return Session{}, err
	}
	profile, ok := s.directory.Lookup(claims.Email)
	if !ok {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{Token: token, Profile: profile}, nil
}

func (s *Service) issueToken(profile accounts.PublicProfile) (string, error) {
	return auth.IssueToken(s.tokenSecret, auth.Claims{
		Email: profile.Email,
		Name:  profile.Name,
		Role:  profile.Role,
		Exp:   time.Now().Add(s.sessionTTL).Unix(),
	})
}

// --- forum ---

// SubmitPost validates and stores a forum post. Signed-in authors may still
// post anonymously; the role is kept so readers see whose perspective it is.
func (s *Service) SubmitPost(ctx context.Context, profile *accounts.PublicProfile, input PostInput) (forum.Post, error) {
	if strings.TrimSpace(input.Subject) == "" || strings.TrimSpace(input.Content) == "" {
		return forum.Post{}, invalidInput("subject and content are required", nil)
	}
	if input.Category == "" {
		input.Category = "general"
	}

	np := forum.NewPost{
		Category: input.Category,
		Subject:  input.Subject,
		Content:  input.Content,
	}
	switch {
	case profile != nil && input.Anonymity == "anonymous":
		np.Author = "Anonymous " + titleCase(profile.Role)
		np.UserRole = profile.Role
	case profile != nil:
		np.Author = profile.Name
		np.AuthorID = profile.ID
		np.UserRole = profile.Role
		np.Institution = profile.Institution
	default:
		np.Author = "Anonymous Educator"
	}

	post := s.forum.AddPost(ctx, np)
	email := ""
	if profile != nil {
		email = profile.Email
	}
	s.directory.CreditPost(ctx, email, post.ID)
	s.search.IndexPost(post)
	return post, nil
}

// creditActivity records one activity point against the authenticated
// caller; anonymous requests fall back to the session profile.
func (s *Service) creditActivity(ctx context.Context, profile *accounts.PublicProfile) {
	email := ""
	if profile != nil {
		email = profile.Email
	}
	s.directory.RecordActivity(ctx, email)
}

func (s *Service) Posts() []forum.Post {
	return s.forum.Posts()
}

func (s *Service) Post(id platform.ID) (forum.Post, error) {
	post, ok := s.forum.Post(id)
	if !ok {
		return forum.Post{}, notFound("Post not found", nil)
	}
	return post, nil
}

// SearchPosts narrows the feed to posts matching the query. Unlike Search
// it never consults the external index; the feed filter stays local.
func (s *Service) SearchPosts(query string) []forum.Post {
	return s.forum.SearchPosts(query)
}

func (s *Service) ReactToPost(ctx context.Context, profile *accounts.PublicProfile, id platform.ID, kind string) (forum.Post, error) {
	switch kind {
	case forum.ReactionSupport, forum.ReactionHelpful, forum.ReactionConcerned:
	default:
		return forum.Post{}, invalidInput("unknown reaction type", map[string]any{"type": kind})
	}
	if !s.forum.React(ctx, id, kind) {
		return forum.Post{}, notFound("Post not found", nil)
	}
	s.creditActivity(ctx, profile)
	post, _ := s.forum.Post(id)
	s.search.IndexPost(post)
	return post, nil
}

func (s *Service) ReplyToPost(ctx context.Context, profile *accounts.PublicProfile, id platform.ID, body string) (forum.Post, error) {
	if strings.TrimSpace(body) == "" {
		return forum.Post{}, invalidInput("reply body is required", nil)
	}
	author := "Anonymous Educator"
	if profile != nil {
		author = profile.Name
	}
	if !s.forum.AddReply(ctx, id, author, body) {
		return forum.Post{}, notFound("Post not found", nil)
	}
	s.creditActivity(ctx, profile)
	post, _ := s.forum.Post(id)
	return post, nil
}

// --- coalition ---

func (s *Service) JoinCoalition(ctx context.Context, profile *accounts.PublicProfile, institutionName, state string) (coalition.Member, error) {
	if strings.TrimSpace(institutionName) == "" || strings.TrimSpace(state) == "" {
		return coalition.Member{}, invalidInput("institutionName and state are required", nil)
	}
	member := s.coalition.AddMember(ctx, institutionName, state)
	s.notify.Add(ctx, "coalition", fmt.Sprintf("%s (%s) joined the coalition.", member.InstitutionName, member.State), notify.ImportanceNormal)
	s.search.IndexMember(member)
	s.creditActivity(ctx, profile)
	return member, nil
}

func (s *Service) Members() []coalition.Member     { return s.coalition.Members() }
func (s *Service) Campaigns() []coalition.Campaign { return s.coalition.Campaigns() }
func (s *Service) Meetings() []coalition.Meeting   { return s.coalition.Meetings() }
func (s *Service) CoalitionStats() coalition.Stats { return s.coalition.Stats() }

func (s *Service) CreateCampaign(ctx context.Context, title, description string) (coalition.Campaign, error) {
	if strings.TrimSpace(title) == "" {
		return coalition.Campaign{}, invalidInput("title is required", nil)
	}
	campaign := s.coalition.CreateCampaign(ctx, title, description)
	s.notify.Add(ctx, "campaign", "New campaign started: "+campaign.Title, notify.ImportanceUrgent)
	return campaign, nil
}

func (s *Service) SupportCampaign(ctx context.Context, profile *accounts.PublicProfile, id platform.ID) error {
	if !s.coalition.SupportCampaign(ctx, id) {
		return notFound("Campaign not found", nil)
	}
	s.creditActivity(ctx, profile)
	return nil
}

func (s *Service) CloseCampaign(ctx context.Context, id platform.ID) error {
	if !s.coalition.CloseCampaign(ctx, id) {
		return notFound("Campaign not found", nil)
	}
	return nil
}

func (s *Service) ScheduleMeeting(ctx context.Context, title, date, notes string) (coalition.Meeting, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(date) == "" {
		return coalition.Meeting{}, invalidInput("title and date are required", nil)
	}
	meeting := s.coalition.ScheduleMeeting(ctx, title, date, notes)
	s.notify.Add(ctx, "meeting", fmt.Sprintf("Coalition meeting scheduled: %s on %s", meeting.Title, meeting.Date), notify.ImportanceNormal)
	return meeting, nil
}

// --- compliance ---

func (s *Service) Inspections() []compliance.Inspection {
	return s.compliance.Inspections()
}

func (s *Service) ShareInspection(ctx context.Context, profile *accounts.PublicProfile, exp compliance.Experience) (compliance.Inspection, error) {
	if strings.TrimSpace(exp.Type) == "" || strings.TrimSpace(exp.Date) == "" {
		return compliance.Inspection{}, invalidInput("type and date are required", nil)
	}
	if exp.Status == "" {
		exp.Status = compliance.StatusCompleted
	}
	inspection := s.compliance.AddExperience(ctx, exp)
	s.creditActivity(ctx, profile)
	return inspection, nil
}

func (s *Service) CalculateCost(ctx context.Context, in compliance.CostInput) (compliance.CostBreakdown, error) {
	if in.Hours < 0 || in.Staff < 0 || in.CostPerHour < 0 {
		return compliance.CostBreakdown{}, invalidInput("inputs must be non-negative", nil)
	}
	return s.compliance.RecordCost(ctx, in), nil
}

// --- proposals ---

func (s *Service) ProposalTemplates() map[string]proposal.Template {
	return proposal.Templates()
}

// GenerateProposal builds a draft from a template without persisting it, so
// callers can review and edit before saving.
func (s *Service) GenerateProposal(key string, overrides proposal.Overrides) (proposal.Proposal, error) {
	draft, ok := s.proposals.FromTemplate(key, overrides)
	if !ok {
		return proposal.Proposal{}, notFound("Unknown proposal template", map[string]any{"template": key})
	}
	return draft, nil
}

func (s *Service) SaveProposal(ctx context.Context, profile *accounts.PublicProfile, title, problem, solution string) (proposal.Proposal, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(problem) == "" || strings.TrimSpace(solution) == "" {
		return proposal.Proposal{}, invalidInput("title, problem, and solution are required", nil)
	}
	saved := s.proposals.Save(ctx, title, problem, solution)
	s.creditActivity(ctx, profile)
	return saved, nil
}

func (s *Service) Proposals() []proposal.Proposal {
	return s.proposals.Proposals()
}

func (s *Service) SubmitProposal(ctx context.Context, id platform.ID) (proposal.Proposal, error) {
	if !s.proposals.Submit(ctx, id) {
		return proposal.Proposal{}, notFound("Proposal not found", nil)
	}
	p, _ := s.proposals.Proposal(id)
	s.notify.Add(ctx, "proposal", "Proposal submitted: "+p.Title, notify.ImportanceNormal)
	return p, nil
}

func (s *Service) SupportProposal(ctx context.Context, profile *accounts.PublicProfile, id platform.ID) (proposal.Proposal, error) {
	if !s.proposals.Support(ctx, id) {
		return proposal.Proposal{}, notFound("Proposal not found", nil)
	}
	s.creditActivity(ctx, profile)
	p, _ := s.proposals.Proposal(id)
	return p, nil
}

// --- notifications ---

func (s *Service) Notifications() []notify.Notification {
	return s.notify.Notifications()
}

func (s *Service) UnreadNotifications() int {
	return s.notify.Unread()
}

func (s *Service) MarkNotificationRead(ctx context.Context, id platform.ID) error {
	if !s.notify.MarkRead(ctx, id) {
		return notFound("Notification not found", nil)
	}
	return nil
}

// --- search ---

func (s *Service) Search(query string) search.Results {
	return s.search.Search(query)
}

// --- share ---

func (s *Service) ShareStats() share.Stats {
	return s.share.Stats()
}

// ShareCampaign composes the WhatsApp message for a campaign kind, records
// the share, and returns the deep link.
func (s *Service) ShareCampaign(ctx context.Context, kind string, profile *accounts.PublicProfile, extras map[string]string) (string, string, share.Stats, error) {
	message, ok := s.share.Message(kind, profile, extras)
	if !ok {
		return "", "", share.Stats{}, notFound("Unknown share campaign", map[string]any{"campaign": kind})
	}
	stats := s.share.TrackShare(ctx, kind)
	return message, share.Link(message), stats, nil
}

func titleCase(role string) string {
	switch role {
	case accounts.RolePrincipal:
		return "Principal"
	case accounts.RoleStudent:
		return "Student"
	case accounts.RoleResearcher:
		return "Researcher"
	case accounts.RoleAdmin:
		return "Administrator"
	default:
		return "Faculty"
	}
}
