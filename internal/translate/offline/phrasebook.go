package offline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Phrasebook is a phrase table translated by greedy longest match.
type Phrasebook struct {
	entries map[string]string
	longest int
}

func LoadPhrasebook(path string) (*Phrasebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return NewPhrasebook(raw), nil
}

func NewPhrasebook(raw map[string]string) *Phrasebook {
	pb := &Phrasebook{entries: make(map[string]string, len(raw))}
	for k, v := range raw {
		key := normalize(k)
		if key == "" {
			continue
		}
		pb.entries[key] = v
		if n := len(strings.Fields(key)); n > pb.longest {
			pb.longest = n
		}
	}
	return pb
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Translate looks up the whole text first, then walks the words matching
// the longest known phrase at each position. Unknown words are kept.
func (pb *Phrasebook) Translate(text string) string {
	if out, ok := pb.entries[normalize(strings.TrimRightFunc(strings.TrimSpace(text), unicode.IsPunct))]; ok {
		return out + trailingPunct(text)
	}
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		matched := false
		for n := min(pb.longest, len(words)-i); n > 0; n-- {
			span := words[i : i+n]
			last := span[n-1]
			core := strings.TrimRightFunc(last, unicode.IsPunct)
			key := normalize(strings.Join(append(append([]string{}, span[:n-1]...), core), " "))
			if repl, ok := pb.entries[key]; ok {
				out = append(out, repl+last[len(core):])
				i += n
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, words[i])
			i++
		}
	}
	return strings.Join(out, " ")
}

func trailingPunct(s string) string {
	s = strings.TrimSpace(s)
	core := strings.TrimRightFunc(s, unicode.IsPunct)
	return s[len(core):]
}
