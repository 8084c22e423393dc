package handle

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"icf-classifier/api/internal/apperr"
	"icf-classifier/api/internal/middleware"
	"icf-classifier/api/internal/pipeline"
	"icf-classifier/api/internal/render"
)

type Handle struct {
	orch    *pipeline.Orchestrator
	catalog *render.Catalog
	locale  render.Locale
}

func New(orch *pipeline.Orchestrator, catalog *render.Catalog, locale render.Locale) *Handle {
	return &Handle{
		orch:    orch,
		catalog: catalog,
		locale:  locale,
	}
}

// Register mounts the API routes on g.
func (h *Handle) Register(g *gin.RouterGroup) {
	g.GET("/hello", h.Hello)
	g.POST("/classify", h.Classify)
	g.POST("/classify/upload", h.Upload)
}

// requestLocale reads ?lang=, then Accept-Language, then the server default.
func (h *Handle) requestLocale(c *gin.Context) render.Locale {
	if q := c.Query("lang"); q != "" {
		return render.ParseLocale(q, h.locale)
	}
	return render.ParseLocale(c.GetHeader("Accept-Language"), h.locale)
}

type errorResponse struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind"`
	Files []string `json:"files,omitempty"`
}

// writeError answers with the localized message for err's kind. Upstream
// failures carry the provider's own message instead.
func (h *Handle) writeError(c *gin.Context, loc render.Locale, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error: h.catalog.Message(loc, string(apperr.KindInput)),
			Kind:  string(apperr.KindInput),
		})
		return
	}

	e := apperr.As(err)
	msg := h.catalog.Message(loc, string(e.Kind))
	if e.Kind == apperr.KindUpstream && e.Message != "" {
		msg = e.Message
	}
	status := apperr.HTTPStatus(e)
	if status >= 500 && e.Kind == apperr.KindInternal {
		log.WithFields(log.Fields{
			"request_id": middleware.GetRequestID(c),
			"op":         e.Op,
		}).WithError(err).Error("unexpected failure")
	}
	c.JSON(status, errorResponse{
		Error: msg,
		Kind:  string(e.Kind),
		Files: e.Files,
	})
}

type classifyResponse struct {
	Classification any              `json:"classification"`
	Sections       []render.Section `json:"sections,omitempty"`
}

func (h *Handle) run(c *gin.Context, req pipeline.Request, withSections bool) {
	req.RequestID = middleware.GetRequestID(c)
	res, err := h.orch.Run(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, req.Locale, err)
		return
	}
	out := classifyResponse{Classification: res.Classification}
	if withSections {
		out.Sections = res.Sections
	}
	c.JSON(http.StatusOK, out)
}

func wantSections(c *gin.Context) bool {
	switch c.Query("render") {
	case "1", "true", "yes":
		return true
	}
	return false
}
