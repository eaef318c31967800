package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

// DefaultEntries covers the greeting, the default remote responses and a few
// common phrases.
var DefaultEntries = map[string]string{
	"私は聴覚障害者なのでアプリで音声に変換してお話しします。よろしくお願いします。": "I am hearing impaired, so I will speak through this app that converts to voice. Please bear with me.",

	"こんにちは":           "Hello",
	"ありがとうございます":      "Thank you",
	"申し訳ございません":       "I'm sorry",
	"はい、わかりました":       "Yes, I understand",
	"もう一度お聞かせください":    "Could you please repeat that?",
	"お忙しい中ありがとうございます": "Thank you for your time despite being busy",
	"よろしくお願いします":      "Please treat me favorably",
	"失礼いたします":         "Excuse me / Goodbye",
	"お疲れさまでした":        "Thank you for your hard work",

	"はい、こんにちは。お電話ありがとうございます。":  "Hello, thank you for calling.",
	"承知いたしました。":                "I understand.",
	"申し訳ございませんが、もう一度お聞かせください。": "I'm sorry, could you please repeat that?",
	"はい、わかりました。":               "Yes, I understand.",
	"ありがとうございます。":              "Thank you.",
	"少々お待ちください。":               "Please wait a moment.",
	"はい、そうですね。":                "Yes, that's right.",
	"お忙しい中、ありがとうございます。":        "Thank you for your time despite being busy.",
	"かしこまりました。":                "Certainly.",
	"恐れ入ります。":                  "I appreciate it.",
}

// Dictionary is an exact-match translator.
// implements port.Translator
type Dictionary struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewDictionary(entries map[string]string) *Dictionary {
	d := &Dictionary{entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		d.entries[k] = v
	}
	return d
}

func (d *Dictionary) Translate(ctx context.Context, text string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if out, ok := d.entries[text]; ok {
		return out, nil
	}
	return "", domain.ErrNoTranslation
}

func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// LoadFile merges a JSON object of source -> translation into the dictionary.
func (d *Dictionary) LoadFile(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading dictionary file: %w", err)
	}
	var entries map[string]string
	if err := json.Unmarshal(content, &entries); err != nil {
		return 0, fmt.Errorf("decoding dictionary file: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for k, v := range entries {
		if k == "" || v == "" {
			continue
		}
		d.entries[k] = v
	}
	return len(entries), nil
}
