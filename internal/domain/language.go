package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language is a lower-case ISO 639-1 code.
type Language string

const (
	Danish  Language = "da"
	English Language = "en"
	German  Language = "de"
	Polish  Language = "pl"
)

var (
	languagesMu sync.RWMutex
	languages   = map[Language]string{
		Danish:  "Dansk",
		English: "English",
		German:  "Deutsch",
		Polish:  "Polski",
	}
)

// RegisterLanguage adds a code to the supported set.
func RegisterLanguage(code Language, name string) {
	code = Language(strings.ToLower(strings.TrimSpace(string(code))))
	if code == "" {
		return
	}
	languagesMu.Lock()
	defer languagesMu.Unlock()
	if name == "" {
		name = string(code)
	}
	languages[code] = name
}

// ParseLanguage normalizes tags like "DE" or "de-AT" to their base code.
func ParseLanguage(s string) (Language, error) {
	code := strings.ToLower(strings.TrimSpace(s))
	if idx := strings.IndexAny(code, "-_"); idx >= 0 {
		code = code[:idx]
	}
	l := Language(code)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return l, nil
}

func (l Language) Valid() bool {
	languagesMu.RLock()
	defer languagesMu.RUnlock()
	_, ok := languages[l]
	return ok
}

func (l Language) Name() string {
	languagesMu.RLock()
	defer languagesMu.RUnlock()
	if n, ok := languages[l]; ok {
		return n
	}
	return string(l)
}

func (l Language) String() string { return string(l) }

// Languages returns the registered codes in sorted order.
func Languages() []Language {
	languagesMu.RLock()
	defer languagesMu.RUnlock()
	out := make([]Language, 0, len(languages))
	for l := range languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
