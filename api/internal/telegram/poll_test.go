package telegram

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryDelayFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"nil", nil, 0},
		{"retry after", errors.New("Too Many Requests: retry after 7"), 7 * time.Second},
		{"429 without hint", errors.New("too many requests"), 3 * time.Second},
		{"timeout", &url.Error{Op: "Post", URL: "x", Err: timeoutErr{}}, 2 * time.Second},
		{"other", errors.New("bad gateway"), time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryDelayFromError(tt.err))
		})
	}
}

func TestStripURL(t *testing.T) {
	err := &url.Error{Op: "Post", URL: "https://api.telegram.org/bot123:secret/getUpdates", Err: errors.New("EOF")}
	assert.Equal(t, "EOF", stripURL(err).Error())
}

func TestWebhookPath(t *testing.T) {
	p := WebhookPath("123:abc")
	assert.Len(t, p, len("/webhook/")+16)
	assert.Equal(t, p, WebhookPath("123:abc"))
	assert.NotEqual(t, p, WebhookPath("123:abd"))
}

type fakeUpdater struct {
	mu      sync.Mutex
	offsets []int
	batches [][]tgbotapi.Update
}

func (f *fakeUpdater) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, cfg.Offset)
	if len(f.batches) == 0 {
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func TestRunPolling_AdvancesOffset(t *testing.T) {
	up := &fakeUpdater{batches: [][]tgbotapi.Update{
		{{UpdateID: 5}, {UpdateID: 6}},
		{{UpdateID: 7}},
	}}
	ctx, cancel := context.WithCancel(context.Background())

	var got []int
	done := make(chan struct{})
	go func() {
		RunPolling(ctx, up, func(u tgbotapi.Update) {
			got = append(got, u.UpdateID)
			if u.UpdateID == 7 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []int{5, 6, 7}, got)
	assert.Equal(t, []int{0, 7}, up.offsets[:2])
}
