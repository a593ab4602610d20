package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reformhub/api/internal/accounts"
	"reformhub/api/internal/coalition"
	"reformhub/api/internal/compliance"
	"reformhub/api/internal/forum"
	"reformhub/api/internal/kvstore"
	"reformhub/api/internal/notify"
	"reformhub/api/internal/proposal"
	"reformhub/api/internal/search"
	"reformhub/api/internal/share"
)

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()
	ctx := context.Background()
	durable := kvstore.New(kvstore.NewMemoryMedium())
	session := kvstore.New(kvstore.NewMemoryMedium())

	directory := accounts.NewDirectory(ctx, durable, session, accounts.LegacyHasher{})
	forumMgr := forum.NewManager(ctx, durable)
	coalitionMgr := coalition.NewManager(ctx, durable)
	tracker := compliance.NewTracker(ctx, durable)
	proposals := proposal.NewGenerator(ctx, durable)
	notifications := notify.NewManager(ctx, durable)
	shareMgr := share.NewManager(ctx, durable, "https://reform.example.org")
	searchSvc := search.NewService(nil, search.NewLocal(forumMgr, coalitionMgr))

	svc := NewService([]byte("test-secret"), time.Hour, directory, forumMgr, coalitionMgr, tracker, proposals, notifications, shareMgr, searchSvc, nil)
	svc.Bootstrap(ctx)
	return NewHTTPServer(svc, "*")
}

func doJSON(t *testing.T, server *HTTPServer, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, payload
}

func registerUser(t *testing.T, server *HTTPServer) string {
	t.Helper()
	rec, payload := doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":       "priya@university.edu",
		"password":    "secret123",
		"name":        "Dr. Priya Sharma",
		"institution": "Delhi Teacher Training College",
		"role":        "faculty",
		"state":       "Delhi",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %v", rec.Code, payload)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("register response missing token")
	}
	return token
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)
	rec, payload := doJSON(t, server, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK || payload["ok"] != true {
		t.Fatalf("health = %d %v", rec.Code, payload)
	}

	rec, payload = doJSON(t, server, http.MethodGet, "/api/ready", "", nil)
	if rec.Code != http.StatusOK || payload["ok"] != true {
		t.Fatalf("ready = %d %v", rec.Code, payload)
	}
}

func TestAuthFlow(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server)

	rec, payload := doJSON(t, server, http.MethodGet, "/api/session", token, nil)
	if rec.Code != http.StatusOK || payload["authenticated"] != true {
		t.Fatalf("session = %d %v", rec.Code, payload)
	}
	user := payload["user"].(map[string]any)
	if _, leaked := user["password"]; leaked {
		t.Fatal("session response exposes password hash")
	}

	rec, payload = doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":       "PRIYA@university.edu",
		"password":    "secret123",
		"name":        "Someone Else",
		"institution": "Other College",
	})
	if rec.Code != http.StatusConflict || payload["code"] != "DUPLICATE_EMAIL" {
		t.Fatalf("duplicate register = %d %v", rec.Code, payload)
	}

	rec, payload = doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "priya@university.edu",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized || payload["code"] != "INVALID_CREDENTIALS" {
		t.Fatalf("bad login = %d %v", rec.Code, payload)
	}

	rec, _ = doJSON(t, server, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "missing@nowhere.org",
		"password": "secret123",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown email login = %d", rec.Code)
	}

	rec, _ = doJSON(t, server, http.MethodGet, "/api/session", "garbage-token", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("session with bad token = %d", rec.Code)
	}
}

func TestForumEndpoints(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server)

	rec, payload := doJSON(t, server, http.MethodGet, "/api/forum/posts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list posts = %d", rec.Code)
	}
	seeded := payload["posts"].([]any)
	if len(seeded) != 3 {
		t.Fatalf("seeded posts = %d, want 3", len(seeded))
	}

	rec, post := doJSON(t, server, http.MethodPost, "/api/forum/posts", token, map[string]any{
		"category": "workload",
		"subject":  "Weekend inspection scheduling",
		"content":  "Inspections announced on Friday evenings leave no time to prepare.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post = %d %v", rec.Code, post)
	}
	if post["author"] != "Dr. Priya Sharma" {
		t.Fatalf("author = %v", post["author"])
	}

	rec, anon := doJSON(t, server, http.MethodPost, "/api/forum/posts", token, map[string]any{
		"subject":   "Another burden story",
		"content":   "Details withheld for safety.",
		"anonymity": "anonymous",
	})
	if rec.Code != http.StatusCreated || anon["author"] != "Anonymous Faculty" {
		t.Fatalf("anonymous post = %d %v", rec.Code, anon["author"])
	}

	rec, _ = doJSON(t, server, http.MethodPost, "/api/forum/posts", "", map[string]any{
		"subject": "No content",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid post = %d", rec.Code)
	}

	postID := int64(post["id"].(float64))

	for i := 0; i < 3; i++ {
		rec, payload = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/forum/posts/%d/reactions", postID), "", map[string]any{"type": "support"})
		if rec.Code != http.StatusOK {
			t.Fatalf("react = %d %v", rec.Code, payload)
		}
	}
	reactions := payload["reactions"].(map[string]any)
	if reactions["support"] != float64(3) {
		t.Fatalf("support count = %v, want 3", reactions["support"])
	}
	if reactions["helpful"] != float64(0) || reactions["concerned"] != float64(0) {
		t.Fatalf("other counts changed: %v", reactions)
	}

	rec, _ = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/forum/posts/%d/reactions", postID), "", map[string]any{"type": "angry"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown reaction = %d", rec.Code)
	}

	rec, _ = doJSON(t, server, http.MethodPost, "/api/forum/posts/999999/reactions", "", map[string]any{"type": "support"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("react to missing post = %d", rec.Code)
	}

	rec, withReply := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/forum/posts/%d/replies", postID), token, map[string]any{"body": "Same here."})
	if rec.Code != http.StatusCreated {
		t.Fatalf("reply = %d", rec.Code)
	}
	if replies := withReply["replies"].([]any); len(replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(replies))
	}
}

func TestPostCreditsFollowToken(t *testing.T) {
	server := newTestServer(t)
	authorToken := registerUser(t, server)

	rec, payload := doJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":       "rajesh@college.edu",
		"password":    "secret123",
		"name":        "Prof. Rajesh Kumar",
		"institution": "Kerala Teacher Training Institute",
		"role":        "faculty",
		"state":       "Kerala",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register second user = %d: %v", rec.Code, payload)
	}
	otherToken := payload["token"].(string)

	// The second registration is the most recent sign-in, but the post is
	// submitted with the first user's token; only that account may be paid.
	rec, post := doJSON(t, server, http.MethodPost, "/api/forum/posts", authorToken, map[string]any{
		"category": "workload",
		"subject":  "Duplicate reporting to three departments",
		"content":  "The same enrollment numbers go to three offices in three formats.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post = %d %v", rec.Code, post)
	}
	postID := post["id"].(float64)

	_, session := doJSON(t, server, http.MethodGet, "/api/session", authorToken, nil)
	author := session["user"].(map[string]any)
	if author["activityScore"] != float64(5) {
		t.Fatalf("author activityScore = %v, want 5", author["activityScore"])
	}
	posts := author["posts"].([]any)
	if len(posts) != 1 || posts[0] != postID {
		t.Fatalf("author posts = %v, want [%v]", posts, postID)
	}

	_, session = doJSON(t, server, http.MethodGet, "/api/session", otherToken, nil)
	other := session["user"].(map[string]any)
	if other["activityScore"] != float64(0) {
		t.Fatalf("bystander activityScore = %v, want 0", other["activityScore"])
	}
	if posts := other["posts"].([]any); len(posts) != 0 {
		t.Fatalf("bystander posts = %v, want none", posts)
	}
}

func TestCoalitionEndpoints(t *testing.T) {
	server := newTestServer(t)

	rec, member := doJSON(t, server, http.MethodPost, "/api/coalition/members", "", map[string]any{
		"institutionName": "Kerala Teacher Training Institute",
		"state":           "Kerala",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("join = %d %v", rec.Code, member)
	}
	if member["verified"] != false {
		t.Fatal("new members must start unverified")
	}

	rec, _ = doJSON(t, server, http.MethodPost, "/api/coalition/members", "", map[string]any{"state": "Kerala"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid join = %d", rec.Code)
	}

	rec, campaign := doJSON(t, server, http.MethodPost, "/api/coalition/campaigns", "", map[string]any{
		"title":       "Unified Inspection Calendar",
		"description": "One annual review instead of overlapping inspections.",
	})
	if rec.Code != http.StatusCreated || campaign["supporters"] != float64(1) || campaign["status"] != "active" {
		t.Fatalf("campaign = %d %v", rec.Code, campaign)
	}

	campaignID := int64(campaign["id"].(float64))
	rec, _ = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/coalition/campaigns/%d/support", campaignID), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("support = %d", rec.Code)
	}
	rec, _ = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/coalition/campaigns/%d/close", campaignID), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close = %d", rec.Code)
	}

	rec, stats := doJSON(t, server, http.MethodGet, "/api/coalition/stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d", rec.Code)
	}
	if stats["members"] != float64(1) || stats["states"] != float64(1) || stats["activeCampaigns"] != float64(0) {
		t.Fatalf("stats = %v", stats)
	}
}

func TestComplianceEndpoints(t *testing.T) {
	server := newTestServer(t)

	rec, breakdown := doJSON(t, server, http.MethodPost, "/api/compliance/cost", "", map[string]any{
		"hours":       10,
		"staff":       5,
		"costPerHour": 500,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("cost = %d %v", rec.Code, breakdown)
	}
	if breakdown["monthly"] != float64(25000) || breakdown["annual"] != float64(300000) {
		t.Fatalf("cost money = %v", breakdown)
	}
	if breakdown["teachingHoursLost"] != float64(600) || breakdown["studentsAffected"] != float64(150) {
		t.Fatalf("cost opportunity = %v", breakdown)
	}

	rec, _ = doJSON(t, server, http.MethodPost, "/api/compliance/cost", "", map[string]any{"hours": -1})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative cost input = %d", rec.Code)
	}

	rec, inspection := doJSON(t, server, http.MethodPost, "/api/compliance/inspections", "", map[string]any{
		"type":              "State Board Audit",
		"date":              "2025-08-01",
		"documentsRequired": 55,
		"hoursSpent":        120,
	})
	if rec.Code != http.StatusCreated || inspection["status"] != "completed" {
		t.Fatalf("inspection = %d %v", rec.Code, inspection)
	}

	rec, payload := doJSON(t, server, http.MethodGet, "/api/compliance/inspections", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list inspections = %d", rec.Code)
	}
	if items := payload["inspections"].([]any); len(items) != 4 {
		t.Fatalf("inspections = %d, want 3 seeded + 1 new", len(items))
	}
}

func TestProposalEndpoints(t *testing.T) {
	server := newTestServer(t)

	rec, payload := doJSON(t, server, http.MethodGet, "/api/proposals/templates", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("templates = %d", rec.Code)
	}
	if templates := payload["templates"].(map[string]any); len(templates) != 3 {
		t.Fatalf("templates = %d, want 3", len(templates))
	}

	rec, draft := doJSON(t, server, http.MethodPost, "/api/proposals/generate", "", map[string]any{
		"template": "documentation",
		"title":    "Custom Title",
	})
	if rec.Code != http.StatusOK || draft["title"] != "Custom Title" || draft["status"] != "draft" {
		t.Fatalf("generate = %d %v", rec.Code, draft)
	}

	rec, _ = doJSON(t, server, http.MethodPost, "/api/proposals/generate", "", map[string]any{"template": "bogus"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown template = %d", rec.Code)
	}

	// Generating does not persist.
	rec, payload = doJSON(t, server, http.MethodGet, "/api/proposals", "", nil)
	if items := payload["proposals"].([]any); len(items) != 0 {
		t.Fatalf("proposals after generate = %d, want 0", len(items))
	}

	rec, saved := doJSON(t, server, http.MethodPost, "/api/proposals", "", map[string]any{
		"title":    "Custom Title",
		"problem":  "Too much paperwork.",
		"solution": "Digitize and deduplicate reporting.",
	})
	if rec.Code != http.StatusCreated || saved["supporters"] != float64(1) {
		t.Fatalf("save = %d %v", rec.Code, saved)
	}

	id := int64(saved["id"].(float64))
	rec, supported := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/proposals/%d/support", id), "", nil)
	if rec.Code != http.StatusOK || supported["supporters"] != float64(2) {
		t.Fatalf("support = %d %v", rec.Code, supported)
	}
	rec, submitted := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/proposals/%d/submit", id), "", nil)
	if rec.Code != http.StatusOK || submitted["status"] != "submitted" {
		t.Fatalf("submit = %d %v", rec.Code, submitted)
	}
}

func TestNotificationEndpoints(t *testing.T) {
	server := newTestServer(t)

	rec, payload := doJSON(t, server, http.MethodGet, "/api/notifications", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("notifications = %d", rec.Code)
	}
	items := payload["notifications"].([]any)
	if len(items) != 1 {
		t.Fatalf("bootstrap notifications = %d, want welcome only", len(items))
	}
	if payload["unread"] != float64(1) {
		t.Fatalf("unread = %v, want 1", payload["unread"])
	}

	id := int64(items[0].(map[string]any)["id"].(float64))
	rec, _ = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", id), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read = %d", rec.Code)
	}

	_, payload = doJSON(t, server, http.MethodGet, "/api/notifications", "", nil)
	if payload["unread"] != float64(0) {
		t.Fatalf("unread after read = %v", payload["unread"])
	}
}

func TestSearchEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec, payload := doJSON(t, server, http.MethodGet, "/api/search?q=documentation", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search = %d", rec.Code)
	}
	if posts := payload["posts"].([]any); len(posts) != 1 {
		t.Fatalf("search posts = %d, want 1", len(posts))
	}
	if payload["total"] != float64(1) {
		t.Fatalf("total = %v", payload["total"])
	}

	rec, _ = doJSON(t, server, http.MethodGet, "/api/search", "", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("search without q = %d", rec.Code)
	}
}

func TestShareEndpoints(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server)

	rec, payload := doJSON(t, server, http.MethodPost, "/api/share/platform", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("share = %d %v", rec.Code, payload)
	}
	message := payload["message"].(string)
	if !bytes.Contains([]byte(message), []byte("Invitation from Dr. Priya Sharma")) {
		t.Fatal("share message not personalized for signed-in user")
	}
	url := payload["url"].(string)
	if !bytes.HasPrefix([]byte(url), []byte("https://api.whatsapp.com/send?text=")) {
		t.Fatalf("share url = %q", url)
	}

	rec, _ = doJSON(t, server, http.MethodPost, "/api/share/bogus", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown campaign = %d", rec.Code)
	}

	rec, stats := doJSON(t, server, http.MethodGet, "/api/share/stats", "", nil)
	if rec.Code != http.StatusOK || stats["shares"] != float64(1) {
		t.Fatalf("stats = %d %v", rec.Code, stats)
	}
}
