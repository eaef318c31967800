package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DefaultGreeting = "私は聴覚障害者なのでアプリで音声に変換してお話しします。よろしくお願いします。"

var DefaultResponses = []string{
	"はい、こんにちは。お電話ありがとうございます。",
	"承知いたしました。",
	"申し訳ございませんが、もう一度お聞かせください。",
	"はい、わかりました。",
	"ありがとうございます。",
	"少々お待ちください。",
	"はい、そうですね。",
	"お忙しい中、ありがとうございます。",
	"かしこまりました。",
	"恐れ入ります。",
}

// Settings drives the call state machine and the simulated remote party.
type Settings struct {
	DialDelay    time.Duration // Dialing -> Connecting
	ConnectDelay time.Duration // Connecting -> InCall
	ResetDelay   time.Duration // Ended -> Idle

	ReplyMinDelay time.Duration
	ReplyMaxDelay time.Duration
	// GreetingReplyDelay is the fixed delay of the reply to the greeting.
	// Zero means the reply uses the random range like any other reply.
	GreetingReplyDelay time.Duration

	GreetingText      string // empty disables the greeting and its reply
	TranslateGreeting bool
	Responses         []string

	EvictOnReset bool
}

func DefaultSettings() Settings {
	responses := make([]string, len(DefaultResponses))
	copy(responses, DefaultResponses)

	return Settings{
		DialDelay:          1500 * time.Millisecond,
		ConnectDelay:       2 * time.Second,
		ResetDelay:         2 * time.Second,
		ReplyMinDelay:      1500 * time.Millisecond,
		ReplyMaxDelay:      3500 * time.Millisecond,
		GreetingReplyDelay: 2 * time.Second,
		GreetingText:       DefaultGreeting,
		TranslateGreeting:  true,
		Responses:          responses,
	}
}

func (s Settings) Validate() error {
	var errs []error
	for name, d := range map[string]time.Duration{
		"dial delay":           s.DialDelay,
		"connect delay":        s.ConnectDelay,
		"reset delay":          s.ResetDelay,
		"reply min delay":      s.ReplyMinDelay,
		"reply max delay":      s.ReplyMaxDelay,
		"greeting reply delay": s.GreetingReplyDelay,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if s.ReplyMinDelay > s.ReplyMaxDelay {
		errs = append(errs, fmt.Errorf("reply min delay %s exceeds max delay %s", s.ReplyMinDelay, s.ReplyMaxDelay))
	}
	if len(s.Responses) == 0 {
		errs = append(errs, errors.New("response set must not be empty"))
	}
	for i, r := range s.Responses {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, fmt.Errorf("response %d is blank", i))
		}
	}
	return errors.Join(errs...)
}
