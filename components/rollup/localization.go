package rollup

import (
	"context"
	"strings"
)

// TranslationService exposes locale-aware translation helpers. Phrases and
// messages fall back to their English text when no service is configured or a
// key is missing.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// TranslationFunc adapts a function into a TranslationService.
type TranslationFunc func(ctx context.Context, key, locale string, args map[string]any) (string, error)

// Translate implements TranslationService.
func (f TranslationFunc) Translate(ctx context.Context, key, locale string, args map[string]any) (string, error) {
	return f(ctx, key, locale, args)
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if idx := strings.Index(locale, "-"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	candidates = append(candidates, "default")
	return candidates
}

func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(locale)), "_", "-")
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}
