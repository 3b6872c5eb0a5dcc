package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/wikiquiz/internal/grade"
	"github.com/abhisek/wikiquiz/internal/llm"
	"github.com/abhisek/wikiquiz/internal/quizgen"
	"github.com/abhisek/wikiquiz/internal/scrape"
	"github.com/abhisek/wikiquiz/internal/store"
)

// errContentTooShort marks an article whose extracted body stayed below the
// configured minimum even after the readability fallback.
var errContentTooShort = errors.New("extracted article content too short")

// writeError maps pipeline errors onto the HTTP surface. Client mistakes are
// 400s, upstream trouble (origin, model) is 502, persistence and everything
// unclassified is 500.
func (s *Server) writeError(c *gin.Context, err error) {
	var fetchErr *scrape.FetchError
	var genErr *quizgen.ErrGenerationInvalid
	var rateErr *llm.ErrRateLimit
	var countErr *grade.ErrAnswerCountMismatch

	switch {
	case errors.Is(err, scrape.ErrInvalidSource):
		c.JSON(http.StatusBadRequest, detail("url must be a Wikipedia article URL"))

	case errors.As(err, &countErr):
		c.JSON(http.StatusBadRequest, detail(countErr.Error()))

	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, detail("Quiz not found or expired"))

	case errors.As(err, &fetchErr):
		s.log.Warn("article fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, detail("failed to fetch article from Wikipedia"))

	case errors.Is(err, scrape.ErrNotModified):
		s.log.Warn("origin returned 304 without a cached body", zap.Error(err))
		c.JSON(http.StatusBadGateway, detail("failed to fetch article from Wikipedia"))

	case errors.Is(err, errContentTooShort):
		c.JSON(http.StatusBadGateway, detail("article content too short to generate a quiz"))

	case errors.As(err, &rateErr):
		if rateErr.RetryAfter > 0 {
			c.Header("Retry-After", fmt.Sprintf("%d", int(rateErr.RetryAfter.Seconds())))
		}
		c.JSON(http.StatusBadGateway, detail("model is rate limited, retry later"))

	case errors.As(err, &genErr):
		s.log.Error("generation produced invalid output", zap.Error(err))
		c.JSON(http.StatusBadGateway, detail("quiz generation failed validation"))

	default:
		s.log.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, detail("internal server error"))
	}
}
