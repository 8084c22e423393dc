package telegram

import (
	"strconv"
	"sync"
	"time"

	"icf-classifier/api/internal/imaging"
)

const (
	debounce      = 1200 * time.Millisecond
	maxMessageLen = 3900
)

func chatKey(chatID int64) string { return "chat:" + strconv.FormatInt(chatID, 10) }

// submission collects the messages of one chat that arrive within the
// debounce window. It is classified as a single request.
type submission struct {
	chatID int64

	mu     sync.Mutex
	text   []string
	images []*imaging.RawImage
	timer  *time.Timer
	done   bool
}

// enqueue adds to the chat's open submission, creating one if needed, and
// restarts its debounce timer. It reports whether the submission is new.
func (r *Router) enqueue(chatID int64, add func(*submission)) bool {
	key := chatKey(chatID)
	for {
		v, loaded := r.batches.LoadOrStore(key, &submission{chatID: chatID})
		s := v.(*submission)

		s.mu.Lock()
		if s.done {
			// flushed between Load and Lock; it is already gone from the map
			s.mu.Unlock()
			continue
		}
		if !loaded {
			r.wg.Add(1)
		}
		add(s)
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = time.AfterFunc(r.Debounce, func() { r.flush(s) })
		s.mu.Unlock()
		return !loaded
	}
}

func (r *Router) flush(s *submission) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	r.batches.CompareAndDelete(chatKey(s.chatID), s)
	text := joinLines(s.text)
	images := s.images
	s.text, s.images = nil, nil
	s.mu.Unlock()

	defer r.wg.Done()
	r.classify(s.chatID, text, images)
}

// Wait blocks until every queued submission has been classified.
func (r *Router) Wait() {
	r.wg.Wait()
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		if l == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += l
	}
	return out
}
