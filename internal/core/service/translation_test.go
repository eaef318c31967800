package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

func TestTranslationResolverPolicies(t *testing.T) {
	dict := mapTranslator{"こんにちは": "Hello"}

	cases := []struct {
		policy TranslationPolicy
		text   string
		want   string
	}{
		{PolicyOmit, "こんにちは", "Hello"},
		{PolicyOmit, "さようなら", ""},
		{PolicyExact, "こんにちは", "Hello"},
		{PolicyExact, "さようなら", UnavailableNotice},
		{PolicySynthesize, "こんにちは", "Hello"},
		{PolicySynthesize, "さようなら", "Translation: さようなら (English equivalent)"},
	}

	for _, tc := range cases {
		r := NewTranslationResolver(dict, tc.policy)
		got, err := r.Resolve(context.Background(), tc.text)
		if err != nil {
			t.Fatalf("%s/%s: unexpected error: %v", tc.policy, tc.text, err)
		}
		if got != tc.want {
			t.Fatalf("%s/%s: got %q, want %q", tc.policy, tc.text, got, tc.want)
		}
	}
}

func TestTranslationResolverSoftFailure(t *testing.T) {
	r := NewTranslationResolver(failingTranslator{}, PolicySynthesize)
	got, err := r.Resolve(context.Background(), "こんにちは")
	if !errors.Is(err, domain.ErrTranslationUnavailable) {
		t.Fatalf("err=%v, want ErrTranslationUnavailable", err)
	}
	if got != "" {
		t.Fatalf("translation=%q, want empty on failure", got)
	}
}

func TestParseTranslationPolicy(t *testing.T) {
	if p, err := ParseTranslationPolicy(""); err != nil || p != PolicyOmit {
		t.Fatalf("empty policy: got %q, %v", p, err)
	}
	if p, err := ParseTranslationPolicy("fallback-synthesize"); err != nil || p != PolicySynthesize {
		t.Fatalf("synthesize: got %q, %v", p, err)
	}
	if _, err := ParseTranslationPolicy("guess"); err == nil {
		t.Fatalf("expected an error for an unknown policy")
	}
}
