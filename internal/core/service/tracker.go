package service

import (
	"context"
	"fmt"
	"kbfit/internal/core/domain"
	"kbfit/internal/core/port"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Tracker interface {
	AddUsage(chatID int64, bytes int64)
	CheckLimit(ctx context.Context, chatID int64) bool
	GetUsage(chatID int64) int64
}

// UsageTracker counts uploaded bytes per chat and resets at midnight.
type UsageTracker struct {
	chats      map[int64]int64
	dailyLimit int64
	mutex      *sync.Mutex
	sender     port.TextSender
}

func NewUsageTracker(ctx context.Context, sender port.TextSender) *UsageTracker {
	ut := &UsageTracker{
		chats:      make(map[int64]int64),
		mutex:      &sync.Mutex{},
		sender:     sender,
		dailyLimit: viper.GetInt64("telegram.daily_limit_mb") * 1024 * 1024,
	}

	go ut.ResetDailyLimit(ctx)

	return ut
}

func (t *UsageTracker) AddUsage(chatID int64, bytes int64) {
	t.mutex.Lock()
	t.chats[chatID] += bytes
	t.mutex.Unlock()
}

func (t *UsageTracker) GetUsage(chatID int64) int64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.chats[chatID]
}

const overLimit = "You have exceeded your daily upload limit of %d MB. Limit will reset in %s."

// CheckLimit reports whether the chat may compress another image. A non-positive limit disables the check.
func (t *UsageTracker) CheckLimit(ctx context.Context, chatID int64) bool {
	if t.dailyLimit <= 0 || t.GetUsage(chatID) <= t.dailyLimit {
		return true
	}

	_, err := t.sender.SendMessageReply(ctx,
		&domain.Message{ChatID: chatID},
		fmt.Sprintf(overLimit, t.dailyLimit/(1024*1024), time.Until(getNextResetTime()).Truncate(time.Second)))
	if err != nil {
		log.Warn().Err(err).Msg("failed to send daily limit exceeded warning")
	}

	return false
}

func (t *UsageTracker) ResetDailyLimit(ctx context.Context) {
	reset := getNextResetTime()

	for {
		log.Debug().Time("reset", reset).Msg("running reset timer")
		select {
		case <-time.After(time.Until(reset)):
			log.Debug().Msg("resetting daily limit")
			t.mutex.Lock()
			t.chats = make(map[int64]int64)
			t.mutex.Unlock()
			time.Sleep(time.Second)
			reset = getNextResetTime()
		case <-ctx.Done():
			log.Debug().Msg("stopping daily limit reset")
			return
		}
	}
}

func getNextResetTime() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
