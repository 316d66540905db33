package booking

import (
	"strings"
	"testing"

	"github.com/hopono/scheduling/internal/model"
)

func TestValidateContact(t *testing.T) {
	cases := []struct {
		name      string
		n, e, p   string
		wantField string
	}{
		{"valid", "Maria Kyriakou", "maria@example.com", "+35799123456", ""},
		{"name too short", "M", "maria@example.com", "+35799123456", "name"},
		{"name too long", strings.Repeat("a", 101), "maria@example.com", "+35799123456", "name"},
		{"single multibyte char too short", "李", "li@example.com", "+35799123456", "name"},
		{"two multibyte chars ok", "李明", "li@example.com", "+35799123456", ""},
		{"100 multibyte chars ok", strings.Repeat("Ω", 100), "omega@example.com", "+35799123456", ""},
		{"101 multibyte chars too long", strings.Repeat("Ω", 101), "omega@example.com", "+35799123456", "name"},
		{"email missing at", "Maria", "maria.example.com", "+35799123456", "email"},
		{"email missing domain dot", "Maria", "maria@example", "+35799123456", "email"},
		{"email empty local part", "Maria", "@example.com", "+35799123456", "email"},
		{"email trailing dot ok", "Maria", "maria@mail.example.com", "+35799123456", ""},
		{"phone without plus", "Maria", "maria@example.com", "35799123456", "phone"},
		{"phone too short", "Maria", "maria@example.com", "+123456", "phone"},
		{"phone too long", "Maria", "maria@example.com", "+1234567890123456", "phone"},
		{"phone with letters", "Maria", "maria@example.com", "+3579912e456", "phone"},
	}

	for _, tc := range cases {
		err := validateContact(tc.n, tc.e, tc.p)
		if tc.wantField == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("%s: expected error on field %s", tc.name, tc.wantField)
			continue
		}
		if err.Field != tc.wantField {
			t.Errorf("%s: expected field %s, got %s", tc.name, tc.wantField, err.Field)
		}
	}
}

func TestNormalizePreference(t *testing.T) {
	if got := normalizePreference("PHONE"); got != model.PreferPhone {
		t.Fatalf("expected phone, got %s", got)
	}
	if got := normalizePreference("either"); got != model.PreferEither {
		t.Fatalf("expected either, got %s", got)
	}
	if got := normalizePreference(""); got != model.PreferEmail {
		t.Fatalf("expected email default, got %s", got)
	}
	if got := normalizePreference("carrier pigeon"); got != model.PreferEmail {
		t.Fatalf("expected email default for unknown, got %s", got)
	}
}
