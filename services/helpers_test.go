package services

import (
	"testing"
	"time"

	"github.com/playverse/playverse-backend/models"
)

func TestGetExtensionFromContentType(t *testing.T) {
	cases := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{"image/jpeg", ".jpg", false},
		{"image/jpg", ".jpg", false},
		{"image/png", ".png", false},
		{"image/webp", ".webp", false},
		{"video/mp4", ".mp4", false},
		{"video/webm", ".webm", false},
		{"image/avif", ".avif", false},
		{"image/svg+xml", ".svg", false},
		{"application/pdf", "", true},
		{"text/plain", "", true},
		{"", "", true},
		{"image/", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.contentType, func(t *testing.T) {
			got, err := GetExtensionFromContentType(tc.contentType)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("got %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGenerateRandomToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := generateRandomToken(32)
		if len(token) != 32 {
			t.Fatalf("token length = %d, want 32", len(token))
		}
		if seen[token] {
			t.Fatal("duplicate token generated")
		}
		seen[token] = true
	}
}

func TestValidateSchedule(t *testing.T) {
	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	ordered := models.Schedule{
		Registration: models.Window{Start: base, End: base.Add(time.Hour)},
		Matches:      models.Window{Start: base.Add(2 * time.Hour), End: base.Add(4 * time.Hour)},
	}
	if err := validateSchedule(ordered); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}

	// Матчи могут начинаться сразу по закрытии регистрации.
	adjacent := ordered
	adjacent.Matches.Start = adjacent.Registration.End
	if err := validateSchedule(adjacent); err != nil {
		t.Fatalf("adjacent windows rejected: %v", err)
	}

	overlapping := ordered
	overlapping.Matches.Start = base.Add(30 * time.Minute)
	if err := validateSchedule(overlapping); err != ErrTournamentInvalidSchedule {
		t.Fatalf("overlapping windows: got %v, want ErrTournamentInvalidSchedule", err)
	}
}
