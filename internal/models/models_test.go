package models

import (
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				TeacherID: 1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			if got := session.IsExpired(); got != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPasswordResetTokenIsExpired(t *testing.T) {
	token := PasswordResetToken{ExpiresAt: time.Now().Add(-time.Minute)}
	if !token.IsExpired() {
		t.Error("expected token in the past to be expired")
	}
	token.ExpiresAt = time.Now().Add(time.Hour)
	if token.IsExpired() {
		t.Error("expected token in the future to be valid")
	}
}

func TestWordSetDetailWordTexts(t *testing.T) {
	detail := WordSetDetail{
		Words: []Word{
			{ID: 7, Word: "apple", Position: 0},
			{ID: 9, Word: "banana", Position: 1},
		},
	}
	got := detail.WordTexts()
	if len(got) != 2 || got[0] != "apple" || got[1] != "banana" {
		t.Errorf("WordTexts() = %v", got)
	}
}
