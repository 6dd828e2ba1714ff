package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shiyun-ho/report-card-sub001/internal/auth"
	"github.com/shiyun-ho/report-card-sub001/internal/authz"
	"github.com/shiyun-ho/report-card-sub001/internal/config"
	"github.com/shiyun-ho/report-card-sub001/internal/crypto"
	"github.com/shiyun-ho/report-card-sub001/internal/grades"
	"github.com/shiyun-ho/report-card-sub001/internal/model"
	"github.com/shiyun-ho/report-card-sub001/internal/report"
	"github.com/shiyun-ho/report-card-sub001/internal/suggest"
)

// UserStore resolves caller identities. The caller's user row is re-read
// on every request so role or assignment changes take effect immediately.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)
}

type RosterStore interface {
	ListTermsBySchool(ctx context.Context, schoolID string) ([]model.Term, error)
	ListSubjects(ctx context.Context) ([]model.Subject, error)
}

type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	UserID(ctx context.Context, sessionID string) (string, bool, error)
	Revoke(ctx context.Context, sessionID string) error
}

type Server struct {
	cfg       config.Config
	users     UserStore
	roster    RosterStore
	sessions  SessionStore
	resolver  *authz.Resolver
	view      *grades.View
	suggester *suggest.Service
	reports   *report.Service
}

func NewServer(
	cfg config.Config,
	users UserStore,
	roster RosterStore,
	sessions SessionStore,
	resolver *authz.Resolver,
	view *grades.View,
	suggester *suggest.Service,
	reports *report.Service,
) *Server {
	return &Server{
		cfg:       cfg,
		users:     users,
		roster:    roster,
		sessions:  sessions,
		resolver:  resolver,
		view:      view,
		suggester: suggester,
		reports:   reports,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", s.handleLogin)
	r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)

	r.With(s.authMiddleware).Get("/students", s.handleListStudents)
	r.With(s.authMiddleware).Get("/terms", s.handleListTerms)
	r.With(s.authMiddleware).Get("/subjects", s.handleListSubjects)

	r.With(s.authMiddleware).Get("/students/{studentId}/grades", s.handleTermGrades)
	r.With(s.authMiddleware).Get("/students/{studentId}/grades/history", s.handleGradeHistory)
	r.With(s.authMiddleware).Put("/students/{studentId}/grades/{termId}", s.handlePutGrades)
	r.With(s.authMiddleware).Get("/students/{studentId}/suggestions", s.handleSuggestions)
	r.With(s.authMiddleware).Post("/students/{studentId}/reports/{termId}", s.handleAssembleReport)

	return r
}

// Auth

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	SchoolID string `json:"schoolId"`
}

type loginResponse struct {
	AccessToken string      `json:"accessToken"`
	User        userSummary `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	sessionID, err := s.sessions.Create(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	token, err := auth.NewToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, user.ID, string(user.Role), user.SchoolID, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		User: userSummary{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     string(user.Role),
			SchoolID: user.SchoolID,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if err := s.sessions.Revoke(r.Context(), claims.SessionID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	writeJSON(w, http.StatusOK, userSummary{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     string(user.Role),
		SchoolID: user.SchoolID,
	})
}

type claimsKey struct{}
type userKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		userID, active, err := s.sessions.UserID(r.Context(), claims.SessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if !active || userID != claims.UserID {
			writeError(w, http.StatusUnauthorized, "session_revoked")
			return
		}
		// Fresh user row, not the claims snapshot: role and school may
		// have changed since the token was issued.
		user, err := s.users.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		ctx = context.WithValue(ctx, userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

func userFromContext(ctx context.Context) model.User {
	user, _ := ctx.Value(userKey{}).(model.User)
	return user
}

// Roster

type studentSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	ClassID  string `json:"classId"`
	SchoolID string `json:"schoolId"`
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	caller := userFromContext(r.Context())
	students, err := s.resolver.VisibleStudents(r.Context(), caller)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	out := make([]studentSummary, 0, len(students))
	for _, student := range students {
		out = append(out, studentSummary{
			ID:       student.ID,
			FullName: student.FullName,
			ClassID:  student.ClassID,
			SchoolID: student.SchoolID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type termSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AcademicYear int    `json:"academicYear"`
	Number       int    `json:"number"`
}

func (s *Server) handleListTerms(w http.ResponseWriter, r *http.Request) {
	caller := userFromContext(r.Context())
	terms, err := s.roster.ListTermsBySchool(r.Context(), caller.SchoolID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	out := make([]termSummary, 0, len(terms))
	for _, term := range terms {
		out = append(out, termSummary{ID: term.ID, Name: term.Name, AcademicYear: term.AcademicYear, Number: term.Number})
	}
	writeJSON(w, http.StatusOK, out)
}

type subjectSummary struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.roster.ListSubjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	out := make([]subjectSummary, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, subjectSummary{ID: subject.ID, Code: subject.Code, Name: subject.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// Grades

func (s *Server) handleTermGrades(w http.ResponseWriter, r *http.Request) {
	caller := userFromContext(r.Context())
	studentID := chi.URLParam(r, "studentId")
	termID := r.URL.Query().Get("termId")
	if termID == "" {
		writeError(w, http.StatusBadRequest, "missing_term_id")
		return
	}
	rows, err := s.view.Grades(r.Context(), caller, studentID, termID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if rows == nil {
		rows = []model.GradeRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGradeHistory(w http.ResponseWriter, r *http.Request) {
	caller := userFromContext(r.Context())
	studentID := chi.URLParam(r, "studentId")
	rows, err := s.view.History(r.Context(), caller, studentID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if rows == nil {
		rows = []model.GradeRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

type putGradesRequest struct {
	Scores map[string]float64 `json:"scores"`
}

func (s *Server) handlePutGrades(w http.ResponseWriter, r *http.Request) {
	caller := userFromContext(r.Context())
	studentID := chi.URLParam(r, "studentId")
	termID := chi.URLParam(r, "termId")

	var req putGradesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if len(req.Scores) == 0 {
		writeError(w, http.StatusBadRequest, "missing_scores")
		return
	}
	if err := s.view.Update(r.Context(), caller, studentID, termID, req.Scores); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": len(req.Scores)})
}

// Suggestions

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	caller := userFromContext(r.Context())
	studentID := chi.URLParam(r, "studentId")
	termID := r.URL.Query().Get("termId")
	if termID == "" {
		writeError(w, http.StatusBadRequest, "missing_term_id")
		return
	}
	suggestions, err := s.suggester.Suggest(r.Context(), caller, studentID, termID)
	if err != nil {
		suggestionRequests.WithLabelValues(outcomeLabel(err)).Inc()
		s.writeEngineError(w, err)
		return
	}
	suggestionRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, suggestions)
}

// Reports

func (s *Server) handleAssembleReport(w http.ResponseWriter, r *http.Request) {
	caller := userFromContext(r.Context())
	studentID := chi.URLParam(r, "studentId")
	termID := chi.URLParam(r, "termId")

	var selection report.Selection
	if err := decodeJSON(r, &selection); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	result, err := s.reports.Assemble(r.Context(), caller, studentID, termID, selection)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Error mapping. Authorization failures and genuine absences share one
// body; nothing in the response hints whether the student exists in
// another tenant.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrStudentNotFound), errors.Is(err, authz.ErrAccessDenied):
		writeError(w, http.StatusNotFound, "student_not_found")
	case errors.Is(err, grades.ErrTermNotFound):
		writeError(w, http.StatusNotFound, "term_not_found")
	case errors.Is(err, grades.ErrInvalidScore):
		writeError(w, http.StatusBadRequest, "invalid_score")
	case errors.Is(err, report.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, "invalid_selection")
	default:
		// ErrUnrecognizedRole, ErrUpstreamUnavailable and anything
		// unexpected are all server-side failures.
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, authz.ErrStudentNotFound):
		return "not_found"
	case errors.Is(err, grades.ErrTermNotFound):
		return "not_found"
	case errors.Is(err, authz.ErrUnrecognizedRole):
		return "bad_role"
	case errors.Is(err, authz.ErrUpstreamUnavailable):
		return "upstream"
	default:
		return "error"
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
