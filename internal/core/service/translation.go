package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/Wyydra/voicetext/internal/core/port"
)

type TranslationPolicy string

const (
	// PolicyExact answers misses with a fixed notice.
	PolicyExact TranslationPolicy = "exact"
	// PolicySynthesize answers misses with a placeholder built from the text.
	PolicySynthesize TranslationPolicy = "fallback-synthesize"
	// PolicyOmit leaves the translation unset on a miss.
	PolicyOmit TranslationPolicy = "fallback-omit"
)

const UnavailableNotice = "Translation not available"

func ParseTranslationPolicy(s string) (TranslationPolicy, error) {
	switch p := TranslationPolicy(s); p {
	case PolicyExact, PolicySynthesize, PolicyOmit:
		return p, nil
	case "":
		return PolicyOmit, nil
	}
	return "", fmt.Errorf("unknown translation policy %q", s)
}

type TranslationResolver struct {
	translator port.Translator
	policy     TranslationPolicy
}

func NewTranslationResolver(translator port.Translator, policy TranslationPolicy) *TranslationResolver {
	if policy == "" {
		policy = PolicyOmit
	}
	return &TranslationResolver{
		translator: translator,
		policy:     policy,
	}
}

func (r *TranslationResolver) Policy() TranslationPolicy {
	return r.policy
}

// Resolve returns the translation of text, or "" when none should be
// attached. A non-nil error wraps domain.ErrTranslationUnavailable and means
// the backing translator failed; the translation is then "".
func (r *TranslationResolver) Resolve(ctx context.Context, text string) (string, error) {
	if r == nil {
		return "", nil
	}
	if r.translator == nil {
		return r.fallback(text), nil
	}

	out, err := r.translator.Translate(ctx, text)
	switch {
	case err == nil && out != "":
		return out, nil
	case err == nil, errors.Is(err, domain.ErrNoTranslation):
		return r.fallback(text), nil
	default:
		return "", fmt.Errorf("%w: %v", domain.ErrTranslationUnavailable, err)
	}
}

func (r *TranslationResolver) fallback(text string) string {
	switch r.policy {
	case PolicyExact:
		return UnavailableNotice
	case PolicySynthesize:
		return fmt.Sprintf("Translation: %s (English equivalent)", text)
	default:
		return ""
	}
}
