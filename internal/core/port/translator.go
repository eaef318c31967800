package port

import "context"

// Translator returns domain.ErrNoTranslation when it has no entry for text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}
