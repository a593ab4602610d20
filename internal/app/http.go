package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reformhub/api/internal/accounts"
	"reformhub/api/internal/auth"
	"reformhub/api/internal/compliance"
	"reformhub/api/internal/platform"
	"reformhub/api/internal/proposal"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"storage": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["storage"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/register" {
		s.handleRegister(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/login" {
		s.handleLogin(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout" {
		s.service.Logout(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "user": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "user": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user": session.Profile})
		return
	}

	// Everything below is usable anonymously; a bearer token personalizes
	// the request when present.
	profile := s.optionalProfile(r)

	if r.URL.Path == "/api/forum/posts" {
		switch r.Method {
		case http.MethodGet:
			if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
				writeJSON(w, http.StatusOK, map[string]any{"posts": s.service.SearchPosts(q)})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"posts": s.service.Posts()})
			return
		case http.MethodPost:
			var body PostInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			post, err := s.service.SubmitPost(r.Context(), profile, body)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, post)
			return
		}
	}

	if parts := splitPath(r.URL.Path); len(parts) >= 4 && parts[0] == "api" && parts[1] == "forum" && parts[2] == "posts" {
		id, err := parseID(parts[3])
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "post id must be an integer", nil)
			return
		}
		s.handlePost(w, r, profile, id, parts[4:])
		return
	}

	if r.URL.Path == "/api/coalition/members" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"members": s.service.Members()})
			return
		case http.MethodPost:
			var body struct {
				InstitutionName string `json:"institutionName"`
				State           string `json:"state"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			member, err := s.service.JoinCoalition(r.Context(), profile, body.InstitutionName, body.State)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, member)
			return
		}
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/coalition/stats" {
		writeJSON(w, http.StatusOK, s.service.CoalitionStats())
		return
	}

	if r.URL.Path == "/api/coalition/campaigns" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"campaigns": s.service.Campaigns()})
			return
		case http.MethodPost:
			var body struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			campaign, err := s.service.CreateCampaign(r.Context(), body.Title, body.Description)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, campaign)
			return
		}
	}

	if parts := splitPath(r.URL.Path); len(parts) == 5 && parts[0] == "api" && parts[1] == "coalition" && parts[2] == "campaigns" && r.Method == http.MethodPost {
		id, err := parseID(parts[3])
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "campaign id must be an integer", nil)
			return
		}
		switch parts[4] {
		case "support":
			if err := s.service.SupportCampaign(r.Context(), profile, id); err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		case "close":
			if err := s.service.CloseCampaign(r.Context(), id); err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}

	if r.URL.Path == "/api/coalition/meetings" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"meetings": s.service.Meetings()})
			return
		case http.MethodPost:
			var body struct {
				Title string `json:"title"`
				Date  string `json:"date"`
				Notes string `json:"notes"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			meeting, err := s.service.ScheduleMeeting(r.Context(), body.Title, body.Date, body.Notes)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, meeting)
			return
		}
	}

	if r.URL.Path == "/api/compliance/inspections" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"inspections": s.service.Inspections()})
			return
		case http.MethodPost:
			var body struct {
				Type              string `json:"type"`
				Date              string `json:"date"`
				Status            string `json:"status"`
				DocumentsRequired int    `json:"documentsRequired"`
				HoursSpent        int    `json:"hoursSpent"`
				PreparationDays   int    `json:"preparationDays"`
				Outcome           string `json:"outcome"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			inspection, err := s.service.ShareInspection(r.Context(), profile, compliance.Experience{
				Type:              body.Type,
				Date:              body.Date,
				Status:            body.Status,
				DocumentsRequired: body.DocumentsRequired,
				HoursSpent:        body.HoursSpent,
				PreparationDays:   body.PreparationDays,
				Outcome:           body.Outcome,
			})
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, inspection)
			return
		}
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/compliance/cost" {
		var body compliance.CostInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		breakdown, err := s.service.CalculateCost(r.Context(), body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, breakdown)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/proposals/templates" {
		writeJSON(w, http.StatusOK, map[string]any{"templates": s.service.ProposalTemplates()})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/proposals/generate" {
		var body struct {
			Template string `json:"template"`
			Title    string `json:"title"`
			Problem  string `json:"problem"`
			Solution string `json:"solution"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		draft, err := s.service.GenerateProposal(body.Template, proposal.Overrides{
			Title:    body.Title,
			Problem:  body.Problem,
			Solution: body.Solution,
		})
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, draft)
		return
	}

	if r.URL.Path == "/api/proposals" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"proposals": s.service.Proposals()})
			return
		case http.MethodPost:
			var body struct {
				Title    string `json:"title"`
				Problem  string `json:"problem"`
				Solution string `json:"solution"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			saved, err := s.service.SaveProposal(r.Context(), profile, body.Title, body.Problem, body.Solution)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, saved)
			return
		}
	}

	if parts := splitPath(r.URL.Path); len(parts) == 4 && parts[0] == "api" && parts[1] == "proposals" && r.Method == http.MethodPost {
		id, err := parseID(parts[2])
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "proposal id must be an integer", nil)
			return
		}
		switch parts[3] {
		case "submit":
			p, err := s.service.SubmitProposal(r.Context(), id)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, p)
			return
		case "support":
			p, err := s.service.SupportProposal(r.Context(), profile, id)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, p)
			return
		}
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/notifications" {
		writeJSON(w, http.StatusOK, map[string]any{
			"notifications": s.service.Notifications(),
			"unread":        s.service.UnreadNotifications(),
		})
		return
	}

	if parts := splitPath(r.URL.Path); len(parts) == 4 && parts[0] == "api" && parts[1] == "notifications" && parts[3] == "read" && r.Method == http.MethodPost {
		id, err := parseID(parts[2])
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "notification id must be an integer", nil)
			return
		}
		if err := s.service.MarkNotificationRead(r.Context(), id); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "q is required", nil)
			return
		}
		writeJSON(w, http.StatusOK, s.service.Search(q))
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/share/stats" {
		writeJSON(w, http.StatusOK, s.service.ShareStats())
		return
	}

	if parts := splitPath(r.URL.Path); len(parts) == 3 && parts[0] == "api" && parts[1] == "share" && r.Method == http.MethodPost {
		var body struct {
			Title   string `json:"title"`
			Members string `json:"members"`
			States  string `json:"states"`
		}
		_ = decodeBody(r, &body)
		extras := map[string]string{
			"title":   body.Title,
			"members": body.Members,
			"states":  body.States,
		}
		message, link, stats, err := s.service.ShareCampaign(r.Context(), parts[2], profile, extras)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": message,
			"url":     link,
			"stats":   stats,
		})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handlePost(w http.ResponseWriter, r *http.Request, profile *accounts.PublicProfile, id platform.ID, rest []string) {
	if len(rest) == 0 && r.Method == http.MethodGet {
		post, err := s.service.Post(id)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
		return
	}

	if len(rest) == 1 && rest[0] == "reactions" && r.Method == http.MethodPost {
		var body struct {
			Type string `json:"type"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		post, err := s.service.ReactToPost(r.Context(), profile, id, body.Type)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
		return
	}

	if len(rest) == 1 && rest[0] == "replies" && r.Method == http.MethodPost {
		var body struct {
			Body string `json:"body"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		post, err := s.service.ReplyToPost(r.Context(), profile, id, body.Body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, post)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		Name        string `json:"name"`
		Institution string `json:"institution"`
		Role        string `json:"role"`
		State       string `json:"state"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	profile, token, err := s.service.Register(r.Context(), accounts.RegisterRequest{
		Email:       body.Email,
		Password:    body.Password,
		Name:        body.Name,
		Institution: body.Institution,
		Role:        body.Role,
		State:       body.State,
	})
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": profile, "token": token})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	profile, token, err := s.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": profile, "token": token})
}

// optionalProfile resolves a bearer token when present. Invalid tokens are
// treated as anonymous rather than rejected, since every route works without
// a session.
func (s *HTTPServer) optionalProfile(r *http.Request) *accounts.PublicProfile {
	token := bearerToken(r)
	if token == "" {
		return nil
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		return nil
	}
	return &session.Profile
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parseID(raw string) (platform.ID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return platform.ID(n), nil
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, accounts.ErrValidation):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email, password, name, and institution are required", nil
	case errors.Is(err, accounts.ErrDuplicateEmail):
		return http.StatusConflict, "DUPLICATE_EMAIL", "An account with this email already exists", nil
	case errors.Is(err, accounts.ErrWeakPassword):
		return http.StatusUnprocessableEntity, "WEAK_PASSWORD", "Password must be at least 6 characters", nil
	case errors.Is(err, accounts.ErrUnknownEmail):
		return http.StatusNotFound, "UNKNOWN_EMAIL", "No account found for this email", nil
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect password", nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
