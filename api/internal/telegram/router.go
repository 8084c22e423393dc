package telegram

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"icf-classifier/api/internal/icf"
	"icf-classifier/api/internal/imaging"
	"icf-classifier/api/internal/pipeline"
	"icf-classifier/api/internal/render"
	"icf-classifier/api/internal/util"
)

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot     Bot
	Orch    *pipeline.Orchestrator
	Catalog *render.Catalog
	Locale  render.Locale

	Debounce     time.Duration
	MaxFileBytes int64
	HTTP         *http.Client

	gate    *pipeline.Gate
	batches sync.Map // chat key -> *submission
	langs   sync.Map // chat id -> render.Locale
	wg      sync.WaitGroup
}

func NewRouter(bot Bot, orch *pipeline.Orchestrator, catalog *render.Catalog, locale render.Locale) *Router {
	return &Router{
		Bot:          bot,
		Orch:         orch,
		Catalog:      catalog,
		Locale:       locale,
		Debounce:     debounce,
		MaxFileBytes: 20 << 20,
		HTTP:         &http.Client{Timeout: 60 * time.Second},
		gate:         pipeline.NewGate(),
	}
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID

	if msg.IsCommand() {
		r.handleCommand(msg)
		return
	}

	if r.gate.Busy(chatKey(cid)) {
		r.send(cid, r.Catalog.Message(r.locale(cid), "busy"))
		return
	}

	switch {
	case len(msg.Photo) > 0:
		r.acceptPhoto(msg)
	case msg.Document != nil:
		r.acceptDocument(msg)
	case strings.TrimSpace(msg.Text) != "":
		r.accept(cid, msg.Text, nil)
	}
}

func (r *Router) handleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	loc := r.locale(cid)
	switch msg.Command() {
	case "start":
		r.send(cid, r.Catalog.Bot(loc, "start"))
	case "help":
		r.send(cid, r.Catalog.Bot(loc, "help"))
	case "lang":
		next := render.ParseLocale(msg.CommandArguments(), "")
		if next == "" {
			r.send(cid, r.Catalog.Bot(loc, "lang_usage"))
			return
		}
		r.langs.Store(cid, next)
		r.send(cid, r.Catalog.Bot(next, "lang_set"))
	default:
		r.send(cid, r.Catalog.Bot(loc, "unknown_command"))
	}
}

func (r *Router) locale(chatID int64) render.Locale {
	if v, ok := r.langs.Load(chatID); ok {
		return v.(render.Locale)
	}
	return r.Locale
}

// accept queues text and/or an image for the chat and acknowledges the
// first message of a submission.
func (r *Router) accept(chatID int64, text string, img *imaging.RawImage) {
	text = strings.TrimSpace(text)
	first := r.enqueue(chatID, func(s *submission) {
		if text != "" {
			s.text = append(s.text, text)
		}
		if img != nil {
			s.images = append(s.images, img)
		}
	})
	if first {
		r.send(chatID, r.Catalog.Bot(r.locale(chatID), "accepted"))
	}
}

func (r *Router) classify(chatID int64, text string, images []*imaging.RawImage) {
	loc := r.locale(chatID)
	trig, ok := r.gate.TryAcquire(chatKey(chatID))
	if !ok {
		imaging.ReleaseRaw(images)
		r.send(chatID, r.Catalog.Message(loc, "busy"))
		return
	}

	res, err := r.Orch.Run(context.Background(), pipeline.Request{
		Patient:   icf.PatientInput{Symptoms: text},
		Images:    images,
		Locale:    loc,
		Trigger:   trig,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		r.SendError(chatID, loc, err)
		return
	}
	r.SendResult(chatID, res.Sections)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.WithField("chat_id", chatID).WithError(err).Warn("telegram send failed")
	}
}

func (r *Router) SendResult(chatID int64, sections []render.Section) {
	r.send(chatID, util.Truncate(render.FormatText(sections), maxMessageLen))
}
