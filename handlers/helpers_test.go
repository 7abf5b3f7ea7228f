package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/playverse/playverse-backend/services"
)

func TestReadJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"title":"ok"}`, ""},
		{"empty body", ``, "body must not be empty"},
		{"bad syntax", `{"title":`, "badly-formed JSON"},
		{"unknown field", `{"nope":1}`, "unknown key"},
		{"wrong type", `{"title":5}`, "incorrect JSON type"},
		{"two documents", `{"title":"a"}{"title":"b"}`, "single JSON value"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			var dst payload
			err := readJSON(rec, req, &dst)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if dst.Title != "ok" {
					t.Fatalf("title = %q", dst.Title)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestWriteJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := writeJSON(rec, http.StatusCreated, jsonResponse{"id": 7}, http.Header{"X-Request-Id": []string{"abc"}}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type = %q", got)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "abc" {
		t.Fatalf("custom header = %q", got)
	}
	var decoded map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if decoded["id"] != 7 {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
	}{
		{services.ErrTournamentNotFound, http.StatusNotFound},
		{services.ErrNoOwnedTeam, http.StatusNotFound},
		{services.ErrAlreadyJoined, http.StatusConflict},
		{services.ErrTournamentFull, http.StatusConflict},
		{services.ErrUserEmailConflict, http.StatusConflict},
		{services.ErrTournamentInvalidSchedule, http.StatusBadRequest},
		{services.ErrSelfFollowForbidden, http.StatusBadRequest},
		{services.ErrTokenInvalid, http.StatusBadRequest},
		{services.ErrRegistrationNotOpen, http.StatusForbidden},
		{services.ErrRegistrationClosed, http.StatusForbidden},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{services.ErrUploadFailed, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, req, tc.err)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}
