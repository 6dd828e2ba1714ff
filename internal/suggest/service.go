// Package suggest is the façade over the suggestion engine: authorize,
// fetch history, analyze, match. Authorization failures short-circuit
// before any analysis touches grade data.
package suggest

import (
	"context"

	"github.com/shiyun-ho/report-card-sub001/internal/achievement"
	"github.com/shiyun-ho/report-card-sub001/internal/authz"
	"github.com/shiyun-ho/report-card-sub001/internal/grades"
	"github.com/shiyun-ho/report-card-sub001/internal/model"
	"github.com/shiyun-ho/report-card-sub001/internal/trend"
)

type Service struct {
	resolver *authz.Resolver
	view     *grades.View
	matcher  *achievement.Matcher
}

// NewService wires the engine. The matcher's catalog is loaded once at
// process start and immutable afterwards; everything else is stateless
// per request, so the service is safe under parallel requests.
func NewService(resolver *authz.Resolver, view *grades.View, matcher *achievement.Matcher) *Service {
	return &Service{resolver: resolver, view: view, matcher: matcher}
}

// Suggest returns the ranked achievement suggestions for a student's term.
// The caller's scope is asserted here and re-validated inside the grade
// view; no trend computation runs on data the caller may not see. A
// student with no recorded grades yields an empty list, not an error.
func (s *Service) Suggest(ctx context.Context, caller model.User, studentID, termID string) ([]model.Suggestion, error) {
	if err := s.resolver.AssertCanAccess(ctx, caller, studentID); err != nil {
		return nil, err
	}
	history, _, err := s.view.HistoryThrough(ctx, caller, studentID, termID)
	if err != nil {
		return nil, err
	}
	facts := trend.Analyze(history)
	return s.matcher.Match(facts), nil
}
