// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/reelcircle/reelcircle/internal/config"
	"github.com/reelcircle/reelcircle/internal/crew"
	"github.com/reelcircle/reelcircle/internal/models"
	"github.com/reelcircle/reelcircle/internal/pick"
	"github.com/reelcircle/reelcircle/internal/taste"
)

type stubPicker struct {
	resp    *pick.Response
	err     error
	lastReq pick.Request
}

func (s *stubPicker) Pick(_ context.Context, req pick.Request) (*pick.Response, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubPicker) Stats() pick.Stats { return pick.Stats{Picks: 3} }

type stubTaste struct {
	vec         taste.Vector
	sig         taste.Signature
	err         error
	rebuilt     []int64
	invalidated []int64
	grouped     []int64
}

func (s *stubTaste) VectorFor(context.Context, int64) (taste.Vector, error) {
	return s.vec, s.err
}

func (s *stubTaste) GroupVector(_ context.Context, userIDs []int64) (taste.Vector, error) {
	s.grouped = append([]int64(nil), userIDs...)
	return s.vec, s.err
}

func (s *stubTaste) SignatureFor(context.Context, int64) (taste.Signature, error) {
	return s.sig, s.err
}

func (s *stubTaste) Rebuild(_ context.Context, userID int64) error {
	s.rebuilt = append(s.rebuilt, userID)
	return s.err
}

func (s *stubTaste) Invalidate(userID int64) {
	s.invalidated = append(s.invalidated, userID)
}

type stubCrew struct {
	affinities  []crew.Affinity
	err         error
	rebuilt     []int64
	invalidated []int64
}

func (s *stubCrew) TopAffinities(context.Context, int64, int) ([]crew.Affinity, error) {
	return s.affinities, s.err
}

func (s *stubCrew) Rebuild(_ context.Context, userID int64) error {
	s.rebuilt = append(s.rebuilt, userID)
	return s.err
}

func (s *stubCrew) Invalidate(userID int64) {
	s.invalidated = append(s.invalidated, userID)
}

type stubStore struct {
	dismissed []models.DismissedTitle
	ratings   []models.Rating
	err       error
	pingErr   error
}

func (s *stubStore) DismissedTitles(context.Context, int64) ([]models.DismissedTitle, error) {
	return s.dismissed, s.err
}

func (s *stubStore) Dismiss(_ context.Context, userID, titleID int64) error {
	if s.err != nil {
		return s.err
	}
	s.dismissed = append(s.dismissed, models.DismissedTitle{UserID: userID, TitleID: titleID})
	return nil
}

func (s *stubStore) Undismiss(context.Context, int64, int64) error { return s.err }

func (s *stubStore) UpsertRating(_ context.Context, r models.Rating) error {
	if s.err != nil {
		return s.err
	}
	s.ratings = append(s.ratings, r)
	return nil
}

func (s *stubStore) Ping(context.Context) error { return s.pingErr }

type testEnv struct {
	picker  *stubPicker
	taste   *stubTaste
	crew    *stubCrew
	store   *stubStore
	handler http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		picker: &stubPicker{resp: &pick.Response{RequestID: "r1"}},
		taste:  &stubTaste{},
		crew:   &stubCrew{},
		store:  &stubStore{},
	}
	cfg := &config.APIConfig{
		DefaultPageSize: 10,
		MaxPageSize:     50,
		CORSOrigins:     []string{"*"},
	}
	env.handler = NewHandlers(env.picker, env.taste, env.crew, env.store, cfg).Router()
	return env
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, *models.APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp models.APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, &resp
}

func TestPickEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.picker.resp = &pick.Response{
		Results:   []pick.RankedTitle{{Title: models.Title{ID: 42, Name: "Night Run"}, Score: 0.8}},
		RequestID: "r1",
	}

	rec, resp := doJSON(t, env.handler, http.MethodPost, "/api/v1/pick", pick.Request{
		Mode:      pick.ModeSolo,
		MemberIDs: []int64{7},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Status != "success" {
		t.Errorf("Status = %q, want success", resp.Status)
	}
	if env.picker.lastReq.Mode != pick.ModeSolo || len(env.picker.lastReq.MemberIDs) != 1 {
		t.Errorf("engine request = %+v", env.picker.lastReq)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestPickEndpointEmptyIsSuccess(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.picker.resp = &pick.Response{RequestID: "r1"}

	rec, resp := doJSON(t, env.handler, http.MethodPost, "/api/v1/pick", pick.Request{
		Mode:      pick.ModeSolo,
		MemberIDs: []int64{7},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for zero candidates", rec.Code)
	}
	if resp.Status != "success" {
		t.Errorf("Status = %q, want success", resp.Status)
	}
}

func TestPickEndpointErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantCode      string
		wantRetryable bool
	}{
		{"invalid request", fmt.Errorf("%w: bad mode", pick.ErrInvalidRequest), http.StatusBadRequest, "INVALID_REQUEST", false},
		{"upstream unavailable", fmt.Errorf("%w: circuit open", pick.ErrUpstreamUnavailable), http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", true},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv()
			env.picker.err = tt.err

			rec, resp := doJSON(t, env.handler, http.MethodPost, "/api/v1/pick", pick.Request{
				Mode:      pick.ModeSolo,
				MemberIDs: []int64{7},
			})

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if resp.Error == nil {
				t.Fatal("Error is nil")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("Error.Code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
			if resp.Error.Retryable != tt.wantRetryable {
				t.Errorf("Error.Retryable = %v, want %v", resp.Error.Retryable, tt.wantRetryable)
			}
			if tt.wantRetryable && rec.Header().Get("Retry-After") == "" {
				t.Error("Retry-After header missing on retryable error")
			}
		})
	}
}

func TestPickEndpointMalformedBody(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pick", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPickStatsEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	rec, resp := doJSON(t, env.handler, http.MethodGet, "/api/v1/pick/stats", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Status != "success" {
		t.Errorf("Status = %q, want success", resp.Status)
	}
}

func TestTasteEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.taste.vec = taste.Vector{Weights: map[string]float64{"g:action": 1}, Count: 4}

	rec, resp := doJSON(t, env.handler, http.MethodGet, "/api/v1/users/7/taste", nil)
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Errorf("GET taste: status = %d/%q", rec.Code, resp.Status)
	}

	rec, _ = doJSON(t, env.handler, http.MethodPost, "/api/v1/users/7/taste/rebuild", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("POST rebuild: status = %d, want 200", rec.Code)
	}
	if len(env.taste.rebuilt) != 1 || env.taste.rebuilt[0] != 7 {
		t.Errorf("rebuilt = %v, want [7]", env.taste.rebuilt)
	}

	rec, _ = doJSON(t, env.handler, http.MethodGet, "/api/v1/users/abc/taste", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid user id: status = %d, want 400", rec.Code)
	}
}

func TestGroupTasteEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.taste.vec = taste.Vector{Weights: map[string]float64{"g:drama": 1}, Count: 9}

	rec, resp := doJSON(t, env.handler, http.MethodGet, "/api/v1/taste/group?member_ids=1,2,3", nil)
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Errorf("GET group taste: status = %d/%q", rec.Code, resp.Status)
	}
	if got := env.taste.grouped; len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("grouped = %v, want [1 2 3]", got)
	}

	for _, query := range []string{"", "member_ids=7", "member_ids=1,1", "member_ids=1,zero"} {
		rec, _ = doJSON(t, env.handler, http.MethodGet, "/api/v1/taste/group?"+query, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", query, rec.Code)
		}
	}
}

func TestCrewEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.crew.affinities = []crew.Affinity{{PersonID: 500, PersonName: "Ava Chen", Value: 0.9, Titles: 3}}

	rec, resp := doJSON(t, env.handler, http.MethodGet, "/api/v1/users/7/crew?limit=5", nil)
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Errorf("GET crew: status = %d/%q", rec.Code, resp.Status)
	}

	rec, _ = doJSON(t, env.handler, http.MethodPost, "/api/v1/users/7/crew/rebuild", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("POST rebuild: status = %d, want 200", rec.Code)
	}
	if len(env.crew.rebuilt) != 1 || env.crew.rebuilt[0] != 7 {
		t.Errorf("rebuilt = %v, want [7]", env.crew.rebuilt)
	}
}

func TestTitleSignatureEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.taste.sig = taste.Signature{TitleID: 42, Mean: 81.5, Count: 12}

	rec, resp := doJSON(t, env.handler, http.MethodGet, "/api/v1/titles/42/signature", nil)
	if rec.Code != http.StatusOK || resp.Status != "success" {
		t.Errorf("status = %d/%q, want 200/success", rec.Code, resp.Status)
	}
}

func TestDismissedEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv()

	rec, _ := doJSON(t, env.handler, http.MethodPost, "/api/v1/users/7/dismissed", DismissRequest{TitleID: 42})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST dismissed: status = %d, want 201", rec.Code)
	}
	if len(env.store.dismissed) != 1 || env.store.dismissed[0].TitleID != 42 {
		t.Errorf("dismissed = %+v", env.store.dismissed)
	}

	rec, _ = doJSON(t, env.handler, http.MethodGet, "/api/v1/users/7/dismissed", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET dismissed: status = %d, want 200", rec.Code)
	}

	rec, _ = doJSON(t, env.handler, http.MethodDelete, "/api/v1/users/7/dismissed/42", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("DELETE dismissed: status = %d, want 200", rec.Code)
	}

	rec, _ = doJSON(t, env.handler, http.MethodPost, "/api/v1/users/7/dismissed", DismissRequest{TitleID: 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero title id: status = %d, want 400", rec.Code)
	}
}

func TestUpsertRatingEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv()

	rec, _ := doJSON(t, env.handler, http.MethodPost, "/api/v1/users/7/ratings", RatingRequest{TitleID: 42, Score: 88})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(env.store.ratings) != 1 || env.store.ratings[0].Score != 88 {
		t.Errorf("ratings = %+v", env.store.ratings)
	}
	if len(env.taste.invalidated) != 1 || env.taste.invalidated[0] != 7 {
		t.Errorf("taste invalidated = %v, want [7]", env.taste.invalidated)
	}
	if len(env.crew.invalidated) != 1 || env.crew.invalidated[0] != 7 {
		t.Errorf("crew invalidated = %v, want [7]", env.crew.invalidated)
	}

	rec, _ = doJSON(t, env.handler, http.MethodPost, "/api/v1/users/7/ratings", RatingRequest{TitleID: 42, Score: 120})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("over-scale score: status = %d, want 400", rec.Code)
	}
}

type stubPublisher struct {
	ratings    []models.Rating
	dismissals []int64
	err        error
}

func (s *stubPublisher) PublishRating(_ context.Context, r models.Rating) error {
	if s.err != nil {
		return s.err
	}
	s.ratings = append(s.ratings, r)
	return nil
}

func (s *stubPublisher) PublishDismissal(_ context.Context, _, titleID int64) error {
	if s.err != nil {
		return s.err
	}
	s.dismissals = append(s.dismissals, titleID)
	return nil
}

func TestRatingAndDismissalPublishEvents(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	pub := &stubPublisher{}
	cfg := &config.APIConfig{DefaultPageSize: 10, MaxPageSize: 50}
	handler := NewHandlers(env.picker, env.taste, env.crew, env.store, cfg).WithPublisher(pub).Router()

	rec, _ := doJSON(t, handler, http.MethodPost, "/api/v1/users/7/ratings", RatingRequest{TitleID: 42, Score: 88})
	if rec.Code != http.StatusCreated {
		t.Fatalf("rating status = %d, want 201", rec.Code)
	}
	if len(pub.ratings) != 1 || pub.ratings[0].TitleID != 42 {
		t.Errorf("published ratings = %+v, want one for title 42", pub.ratings)
	}

	rec, _ = doJSON(t, handler, http.MethodPost, "/api/v1/users/7/dismissed", DismissRequest{TitleID: 99})
	if rec.Code != http.StatusCreated {
		t.Fatalf("dismiss status = %d, want 201", rec.Code)
	}
	if len(pub.dismissals) != 1 || pub.dismissals[0] != 99 {
		t.Errorf("published dismissals = %v, want [99]", pub.dismissals)
	}
}

func TestRatingSucceedsWhenPublishFails(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	pub := &stubPublisher{err: errors.New("stream down")}
	cfg := &config.APIConfig{DefaultPageSize: 10, MaxPageSize: 50}
	handler := NewHandlers(env.picker, env.taste, env.crew, env.store, cfg).WithPublisher(pub).Router()

	rec, _ := doJSON(t, handler, http.MethodPost, "/api/v1/users/7/ratings", RatingRequest{TitleID: 42, Score: 88})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 despite publish failure", rec.Code)
	}
	if len(env.store.ratings) != 1 {
		t.Errorf("ratings = %+v, want the write to land", env.store.ratings)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv()

	rec, _ := doJSON(t, env.handler, http.MethodGet, "/api/v1/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("live: status = %d, want 200", rec.Code)
	}

	rec, _ = doJSON(t, env.handler, http.MethodGet, "/api/v1/health/ready", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("ready: status = %d, want 200", rec.Code)
	}

	env.store.pingErr = errors.New("db closed")
	rec, resp := doJSON(t, env.handler, http.MethodGet, "/api/v1/health/ready", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready with dead db: status = %d, want 503", rec.Code)
	}
	if resp.Error == nil || !resp.Error.Retryable {
		t.Error("readiness failure should be marked retryable")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
