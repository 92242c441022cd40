package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr string
	}{
		{"teacher@school.edu", ""},
		{"  ms.rivera+class3@mail.school.org ", ""},
		{"", "email is required"},
		{"   ", "email is required"},
		{"teacher.school.edu", "invalid email format"},
		{"teacher@", "invalid email format"},
		{"@school.edu", "invalid email format"},
		{"ms rivera@school.edu", "invalid email format"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.email), func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "email", ve.Field)
			assert.Equal(t, tt.wantErr, ve.Message)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"typical", "correct horse", true},
		{"exactly eight", "12345678", true},
		{"bcrypt limit", strings.Repeat("p", 72), true},
		{"empty", "", false},
		{"seven", "1234567", false},
		{"past bcrypt limit", strings.Repeat("p", 73), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, IsValidationError(err), "got %v", err)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name      string
		input     Registration
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid",
			input: Registration{Email: " teacher@example.com ", Password: "password123", FullName: " Ms Smith "},
		},
		{
			name:      "missing email",
			input:     Registration{Password: "password123", FullName: "Ms Smith"},
			wantField: "email",
			wantMsg:   "email is required",
		},
		{
			name:      "bad email",
			input:     Registration{Email: "nope", Password: "password123", FullName: "Ms Smith"},
			wantField: "email",
			wantMsg:   "invalid email format",
		},
		{
			name:      "short password",
			input:     Registration{Email: "teacher@example.com", Password: "short", FullName: "Ms Smith"},
			wantField: "password",
			wantMsg:   "password must be at least 8 characters",
		},
		{
			name:      "blank name",
			input:     Registration{Email: "teacher@example.com", Password: "password123", FullName: "   "},
			wantField: "name",
			wantMsg:   "name is required",
		},
		{
			name:      "one letter name",
			input:     Registration{Email: "teacher@example.com", Password: "password123", FullName: "J"},
			wantField: "name",
			wantMsg:   "name must be at least 2 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			err := ValidateRegistration(&in)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, "teacher@example.com", in.Email)
				assert.Equal(t, "Ms Smith", in.FullName)
				return
			}
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, tt.wantMsg, ve.Message)
		})
	}
}

func TestValidateTitle(t *testing.T) {
	got, err := ValidateTitle("  Fruit  ")
	require.NoError(t, err)
	assert.Equal(t, "Fruit", got)

	_, err = ValidateTitle("   ")
	assert.EqualError(t, err, "title: title is required")

	_, err = ValidateTitle(strings.Repeat("x", 201))
	assert.True(t, IsValidationError(err))
}

func TestCleanWords(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"drops blanks", []string{"apple", "", "banana"}, []string{"apple", "banana"}},
		{"trims", []string{"  kiwi ", "\tpear"}, []string{"kiwi", "pear"}},
		{"keeps duplicates and order", []string{"b", "a", "b"}, []string{"b", "a", "b"}},
		{"all blank", []string{" ", ""}, []string{}},
		{"nil", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanWords(tt.input))
		})
	}
}

func TestSplitWordLines(t *testing.T) {
	got := CleanWords(SplitWordLines("apple\r\n\r\nbanana\ncherry\n"))
	assert.Equal(t, []string{"apple", "banana", "cherry"}, got)
}
