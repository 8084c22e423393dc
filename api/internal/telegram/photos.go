package telegram

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/imaging"
)

var extMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Telegram re-encodes photos as JPEG.
func (r *Router) acceptPhoto(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1]
	name := fmt.Sprintf("photo-%d.jpg", msg.MessageID)

	data, err := r.download(ph.FileID)
	if err != nil {
		r.SendError(cid, r.locale(cid), apperr.MediaDecode(name, err))
		return
	}
	r.accept(cid, msg.Caption, &imaging.RawImage{Name: name, MIMEType: "image/jpeg", Data: data})
}

// acceptDocument takes images sent as files. The type is checked before
// anything is downloaded.
func (r *Router) acceptDocument(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	doc := msg.Document
	name := doc.FileName
	if name == "" {
		name = fmt.Sprintf("document-%d", msg.MessageID)
	}
	mime := documentMIME(doc)
	if !imaging.IsSupportedMIME(mime) {
		r.SendError(cid, r.locale(cid), apperr.UnsupportedMedia([]string{name}))
		return
	}

	data, err := r.download(doc.FileID)
	if err != nil {
		r.SendError(cid, r.locale(cid), apperr.MediaDecode(name, err))
		return
	}
	r.accept(cid, msg.Caption, &imaging.RawImage{Name: name, MIMEType: mime, Data: data})
}

func documentMIME(doc *tgbotapi.Document) string {
	if m := strings.TrimSpace(doc.MimeType); m != "" && m != "application/octet-stream" {
		return m
	}
	return extMIME[strings.ToLower(filepath.Ext(doc.FileName))]
}

// download fetches a file from Telegram, refusing anything above
// MaxFileBytes. The direct URL embeds the bot token and is never logged.
func (r *Router) download(fileID string) ([]byte, error) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	resp, err := r.HTTP.Get(url)
	if err != nil {
		log.WithField("file_id", fileID).Warn("telegram file download failed")
		return nil, fmt.Errorf("download failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.MaxFileBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.MaxFileBytes {
		clear(data)
		return nil, fmt.Errorf("file exceeds %d bytes", r.MaxFileBytes)
	}
	return data, nil
}
