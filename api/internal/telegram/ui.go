package telegram

import (
	"strings"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/render"
)

// errorText is the chat reply for err. Offending file names are listed on a
// second line; upstream failures show the provider's message.
func errorText(c *render.Catalog, loc render.Locale, err error) string {
	e := apperr.As(err)
	msg := c.Message(loc, string(e.Kind))
	if e.Kind == apperr.KindUpstream && e.Message != "" {
		msg = e.Message
	}
	if len(e.Files) > 0 {
		msg += "\n" + strings.Join(e.Files, ", ")
	}
	return "⚠️ " + msg
}

func (r *Router) SendError(chatID int64, loc render.Locale, err error) {
	r.send(chatID, errorText(r.Catalog, loc, err))
}
