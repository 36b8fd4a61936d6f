package i18n

// Chain is the ordered list of locales tried when picking a translation:
// the requested locale first, then each fallback, duplicates removed. When no
// locale in the chain matches, callers take the first available translation.
type Chain []string

// NewChain builds a chain from the requested locale and the fallbacks. Empty
// values are skipped and later duplicates dropped so the chain stays short and
// deterministic.
func NewChain(requested string, fallbacks ...string) Chain {
	chain := make(Chain, 0, len(fallbacks)+1)
	seen := make(map[string]struct{}, len(fallbacks)+1)

	add := func(locale string) {
		locale = Normalize(locale)
		if locale == "" {
			return
		}
		if _, ok := seen[locale]; ok {
			return
		}
		seen[locale] = struct{}{}
		chain = append(chain, locale)
	}

	add(requested)
	for _, fallback := range fallbacks {
		add(fallback)
	}
	return chain
}

// DefaultChain uses DefaultFallbacks.
func DefaultChain(requested string) Chain {
	return NewChain(requested, DefaultFallbacks...)
}

// Requested returns the first locale in the chain, or empty for an empty chain.
func (c Chain) Requested() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Index returns the position of the locale in the chain, or -1.
func (c Chain) Index(locale string) int {
	locale = Normalize(locale)
	for i, candidate := range c {
		if candidate == locale {
			return i
		}
	}
	return -1
}
