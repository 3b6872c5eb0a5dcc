package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/wikiquiz/internal/grade"
	"github.com/abhisek/wikiquiz/internal/llm"
	"github.com/abhisek/wikiquiz/internal/quizgen"
	"github.com/abhisek/wikiquiz/internal/scrape"
	"github.com/abhisek/wikiquiz/internal/store"
)

const (
	minQuestionBound = 1
	maxQuestionBound = 20
)

type generateRequest struct {
	URL          string `json:"url" binding:"required"`
	MinQuestions *int   `json:"min_questions"`
	MaxQuestions *int   `json:"max_questions"`
	Force        bool   `json:"force"`
}

type quizResponse struct {
	ID            uint            `json:"id"`
	URL           string          `json:"url"`
	Title         string          `json:"title"`
	DateGenerated time.Time       `json:"date_generated"`
	FullQuizData  json.RawMessage `json:"full_quiz_data"`
}

type historyItem struct {
	ID            uint      `json:"id"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	DateGenerated time.Time `json:"date_generated"`
}

type gradeRequest struct {
	ID      uint  `json:"id" binding:"required"`
	Answers []int `json:"answers"`
}

func detail(msg string) gin.H { return gin.H{"detail": msg} }

func toQuizResponse(rec *store.QuizRecord) quizResponse {
	return quizResponse{
		ID:            rec.ID,
		URL:           rec.URL,
		Title:         rec.Title,
		DateGenerated: rec.CreatedAt,
		FullQuizData:  json.RawMessage(rec.FullQuizData),
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	model := "fallback"
	if s.gen != nil {
		model = s.gen.ModelID()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model": model})
}

func (s *Server) handleGenerateQuiz(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail("invalid request body: url is required"))
		return
	}

	minQ := s.cfg.DefaultMinQuestions
	if req.MinQuestions != nil {
		minQ = *req.MinQuestions
	}
	maxQ := max(minQ, s.cfg.DefaultMaxQuestions)
	if req.MaxQuestions != nil {
		maxQ = *req.MaxQuestions
	}
	if minQ < minQuestionBound || maxQ > maxQuestionBound {
		c.JSON(http.StatusBadRequest,
			detail(fmt.Sprintf("question counts must fall within %d..%d", minQuestionBound, maxQuestionBound)))
		return
	}
	if minQ > maxQ {
		c.JSON(http.StatusBadRequest, detail("min_questions must not exceed max_questions"))
		return
	}

	if !scrape.AllowedURL(req.URL) {
		c.JSON(http.StatusBadRequest, detail("url must be a Wikipedia article URL"))
		return
	}

	ctx := c.Request.Context()

	page, err := s.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		s.writeError(c, err)
		return
	}

	article, err := s.extract(page, req.URL)
	if err != nil {
		s.writeError(c, err)
		return
	}

	urlFP := scrape.Fingerprint(req.URL)
	contentFP := scrape.Fingerprint(article.Body)

	if !req.Force {
		if rec, err := s.store.Lookup(ctx, urlFP, contentFP); err == nil {
			c.JSON(http.StatusOK, toQuizResponse(rec))
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			s.writeError(c, err)
			return
		}
	}

	rec, fresh, err := s.generateAndPersist(c, req, article, page, urlFP, contentFP, minQ, maxQ)
	if err != nil {
		s.writeError(c, err)
		return
	}

	status := http.StatusOK
	if fresh {
		status = http.StatusCreated
	}
	c.JSON(status, toQuizResponse(rec))
}

// extract runs structural extraction, falling back to readability when the
// body is too short, and rejects articles that stay below the minimum.
func (s *Server) extract(page *scrape.Page, pageURL string) (scrape.Article, error) {
	article, err := scrape.Extract(page.HTML)
	if err != nil {
		return scrape.Article{}, err
	}

	if len(article.Body) < s.cfg.MinBodyChars {
		readable, rerr := scrape.ExtractReadable(page.HTML, pageURL)
		if rerr == nil && len(readable.Body) >= s.cfg.MinBodyChars {
			if article.Title != "Untitled" {
				readable.Title = article.Title
			}
			readable.Sections = article.Sections
			return readable, nil
		}
	}

	if len(article.Body) < s.cfg.MinBodyChars {
		return scrape.Article{}, errContentTooShort
	}
	return article, nil
}

// generateAndPersist runs the model (or fallback) for one article revision
// and stores the result. Concurrent requests for the same revision share a
// single flight unless force is set.
func (s *Server) generateAndPersist(c *gin.Context, req generateRequest, article scrape.Article, page *scrape.Page, urlFP, contentFP string, minQ, maxQ int) (*store.QuizRecord, bool, error) {
	ctx := c.Request.Context()

	run := func() (*store.QuizRecord, bool, error) {
		// A sibling flight may have persisted while we waited.
		if !req.Force {
			if rec, err := s.store.Lookup(ctx, urlFP, contentFP); err == nil {
				return rec, false, nil
			}
		}

		input := quizgen.Input{
			Title:        article.Title,
			Sections:     article.Sections,
			Body:         article.Body,
			MinQuestions: minQ,
			MaxQuestions: maxQ,
		}

		payload, err := s.generate(c, input)
		if err != nil {
			return nil, false, err
		}

		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, false, fmt.Errorf("encode quiz payload: %w", err)
		}

		rec := &store.QuizRecord{
			URL:                req.URL,
			URLFingerprint:     urlFP,
			Title:              payload.Title,
			ScrapedContent:     article.Body,
			ContentFingerprint: contentFP,
			ETag:               page.ETag,
			LastModified:       page.LastModified,
			FullQuizData:       raw,
		}
		if err := s.store.Create(ctx, rec); err != nil {
			return nil, false, err
		}
		return rec, true, nil
	}

	if req.Force {
		return run()
	}

	type flightResult struct {
		rec   *store.QuizRecord
		fresh bool
	}
	v, err, shared := s.flights.Do(urlFP+":"+contentFP, func() (any, error) {
		rec, fresh, err := run()
		if err != nil {
			return nil, err
		}
		return flightResult{rec: rec, fresh: fresh}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(flightResult)
	// Followers of a shared flight received an existing quiz.
	return res.rec, res.fresh && !shared, nil
}

// generate prefers the model pipeline and falls back to the rule-based
// generator only when no model is reachable.
func (s *Server) generate(c *gin.Context, input quizgen.Input) (*quizgen.QuizPayload, error) {
	if s.gen == nil {
		s.log.Warn("no model configured, using rule-based fallback")
		return s.fallback.Generate(input), nil
	}

	payload, err := s.gen.Generate(c.Request.Context(), input)
	if err == nil {
		return payload, nil
	}

	var noProvider *llm.ErrNoProvider
	var unavailable *llm.ErrProviderUnavailable
	if errors.As(err, &noProvider) || errors.As(err, &unavailable) {
		s.log.Warn("model unavailable, using rule-based fallback", zap.Error(err))
		return s.fallback.Generate(input), nil
	}
	return nil, err
}

func (s *Server) handleGetQuiz(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, detail("quiz id must be a positive integer"))
		return
	}

	rec, err := s.store.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toQuizResponse(rec))
}

func (s *Server) handleHistory(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, detail("page must be an integer >= 1"))
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, detail("page_size must be an integer"))
		return
	}
	pageSize = min(max(pageSize, 1), s.cfg.MaxPageSize)

	recs, total, err := s.store.List(c.Request.Context(), page, pageSize)
	if err != nil {
		s.writeError(c, err)
		return
	}

	items := make([]historyItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, historyItem{
			ID:            rec.ID,
			URL:           rec.URL,
			Title:         rec.Title,
			DateGenerated: rec.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (s *Server) handleGrade(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, detail("invalid request body: id is required"))
		return
	}

	rec, err := s.store.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	var payload quizgen.QuizPayload
	if err := json.Unmarshal(rec.FullQuizData, &payload); err != nil {
		s.writeError(c, fmt.Errorf("decode stored quiz %d: %w", rec.ID, err))
		return
	}

	result, err := grade.Grade(payload.Quiz, req.Answers)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      rec.ID,
		"total":   result.Total,
		"correct": result.Right,
		"score":   result.Score,
		"results": result.Results,
	})
}
