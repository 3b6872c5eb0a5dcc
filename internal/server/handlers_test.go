package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/wikiquiz/internal/config"
	"github.com/abhisek/wikiquiz/internal/llm"
	"github.com/abhisek/wikiquiz/internal/quizgen"
	"github.com/abhisek/wikiquiz/internal/scrape"
	"github.com/abhisek/wikiquiz/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

const testURL = "https://en.wikipedia.org/wiki/Ada_Lovelace"

// articleFixture renders a Wikipedia-shaped page whose extracted body is
// comfortably above the minimum length.
func articleFixture(paragraph string) string {
	return fmt.Sprintf(`<html><body>
<h1 class="firstHeading">Ada Lovelace</h1>
<div id="mw-content-text"><div class="mw-parser-output">
<p>%s</p>
<h2>Work</h2>
<p>%s</p>
</div></div></body></html>`, paragraph, paragraph)
}

func longParagraph() string {
	return strings.Repeat("Ada Lovelace worked with Charles Babbage on the Analytical Engine in London. ", 5)
}

type stubFetcher struct {
	page *scrape.Page
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) (*scrape.Page, error) {
	return f.page, f.err
}

type stubGenerator struct {
	payload *quizgen.QuizPayload
	err     error
	calls   int
}

func (g *stubGenerator) Generate(_ context.Context, input quizgen.Input) (*quizgen.QuizPayload, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if g.payload != nil {
		return g.payload, nil
	}
	return quizgen.NewFallbackGenerator(quizgen.DefaultFallbackSeed).Generate(input), nil
}

func (g *stubGenerator) ModelID() string { return "stub" }

func testServer(t *testing.T, gen Generator) *Server {
	t.Helper()
	cfg := config.Default()
	fetcher := &stubFetcher{page: &scrape.Page{
		HTML:         articleFixture(longParagraph()),
		ETag:         `"v1"`,
		LastModified: "Mon, 02 Jan 2006 15:04:05 GMT",
	}}
	return New(cfg, zap.NewNop(), store.NewMemoryStore(0), fetcher, gen)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := testServer(t, &stubGenerator{}).Router()

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
	require.Contains(t, w.Body.String(), `"model":"stub"`)
}

func TestGenerateQuiz_CreatesThenDedupes(t *testing.T) {
	router := testServer(t, &stubGenerator{}).Router()

	w := doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": testURL})
	require.Equal(t, http.StatusCreated, w.Code)

	var first quizResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Equal(t, uint(1), first.ID)
	require.Equal(t, testURL, first.URL)
	require.NotEmpty(t, first.FullQuizData)

	// Unchanged content dedupes to the stored quiz.
	w = doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": testURL})
	require.Equal(t, http.StatusOK, w.Code)

	var second quizResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	require.Equal(t, first.ID, second.ID)
}

func TestGenerateQuiz_ForceBypassesDedup(t *testing.T) {
	router := testServer(t, &stubGenerator{}).Router()

	w := doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": testURL})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": testURL, "force": true})
	require.Equal(t, http.StatusCreated, w.Code)

	var second quizResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	require.Equal(t, uint(2), second.ID)
}

func TestGenerateQuiz_RejectsBadURL(t *testing.T) {
	router := testServer(t, &stubGenerator{}).Router()

	for _, url := range []string{
		"https://example.com/wiki/Page",
		"http://en.wikipedia.org/wiki/Page",
		"",
	} {
		w := doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": url})
		require.Equal(t, http.StatusBadRequest, w.Code, "url %q", url)
	}
}

func TestGenerateQuiz_QuestionCountValidation(t *testing.T) {
	router := testServer(t, &stubGenerator{}).Router()

	cases := []gin.H{
		{"url": testURL, "min_questions": 5, "max_questions": 3},
		{"url": testURL, "min_questions": 0},
		{"url": testURL, "max_questions": 25},
	}
	for _, body := range cases {
		w := doJSON(t, router, http.MethodPost, "/generate_quiz", body)
		require.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}
}

func TestGenerateQuiz_ContentTooShort(t *testing.T) {
	cfg := config.Default()
	fetcher := &stubFetcher{page: &scrape.Page{HTML: articleFixture("Tiny stub.")}}
	s := New(cfg, zap.NewNop(), store.NewMemoryStore(0), fetcher, &stubGenerator{})

	w := doJSON(t, s.Router(), http.MethodPost, "/generate_quiz", gin.H{"url": testURL})
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "too short")
}

func TestGenerateQuiz_FetchFailure(t *testing.T) {
	cfg := config.Default()
	fetcher := &stubFetcher{err: &scrape.FetchError{Status: http.StatusBadGateway}}
	s := New(cfg, zap.NewNop(), store.NewMemoryStore(0), fetcher, &stubGenerator{})

	w := doJSON(t, s.Router(), http.MethodPost, "/generate_quiz", gin.H{"url": testURL})
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerateQuiz_FallbackWhenModelUnavailable(t *testing.T) {
	gen := &stubGenerator{err: &llm.ErrNoProvider{Tried: []string{"gemini/gemini-2.5-flash"}}}
	router := testServer(t, gen).Router()

	w := doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": testURL})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp quizResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	var payload quizgen.QuizPayload
	require.NoError(t, json.Unmarshal(resp.FullQuizData, &payload))
	require.Contains(t, payload.Notes, "fallback")
	require.NotEmpty(t, payload.Quiz)
}

func TestGenerateQuiz_RateLimited(t *testing.T) {
	gen := &stubGenerator{err: &llm.ErrRateLimit{RetryAfter: 30 * time.Second}}
	router := testServer(t, gen).Router()

	w := doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": testURL})
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, "30", w.Header().Get("Retry-After"))
}

func TestGetQuiz_NotFound(t *testing.T) {
	router := testServer(t, &stubGenerator{}).Router()

	w := doJSON(t, router, http.MethodGet, "/quiz/99", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "Quiz not found or expired")
}

func TestGetQuiz_RoundTrip(t *testing.T) {
	router := testServer(t, &stubGenerator{}).Router()

	w := doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": testURL})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/quiz/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp quizResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, uint(1), resp.ID)
	require.Equal(t, "Ada Lovelace", resp.Title)
}

func TestHistory_EmptyAndPaging(t *testing.T) {
	s := testServer(t, &stubGenerator{})
	router := s.Router()

	w := doJSON(t, router, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"total":0`)

	doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": testURL})
	doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": testURL, "force": true})

	w = doJSON(t, router, http.MethodGet, "/history?page=1&page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Items []historyItem `json:"items"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 1)
	require.Equal(t, uint(2), page.Items[0].ID)

	// Oversized page_size is clamped, not rejected.
	w = doJSON(t, router, http.MethodGet, "/history?page_size=500", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/history?page=0", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGrade_Flow(t *testing.T) {
	payload := &quizgen.QuizPayload{
		Title:   "Ada Lovelace",
		Summary: "Mathematician.",
		Quiz: []quizgen.QuizItem{
			{Question: "Q1", Options: []string{"Paris", "London", "Rome", "Berlin"}, Answer: "London"},
			{Question: "Q2", Options: []string{"1815", "1820", "1830", "1840"}, Answer: "1815"},
		},
	}
	router := testServer(t, &stubGenerator{payload: payload}).Router()

	w := doJSON(t, router, http.MethodPost, "/generate_quiz", gin.H{"url": testURL})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/grade", gin.H{"id": 1, "answers": []int{1, 0}})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Total   int     `json:"total"`
		Correct int     `json:"correct"`
		Score   float64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, 2, result.Total)
	require.Equal(t, 2, result.Correct)
	require.Equal(t, 100.0, result.Score)

	// Wrong number of answers.
	w = doJSON(t, router, http.MethodPost, "/grade", gin.H{"id": 1, "answers": []int{1}})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown quiz.
	w = doJSON(t, router, http.MethodPost, "/grade", gin.H{"id": 42, "answers": []int{0}})
	require.Equal(t, http.StatusNotFound, w.Code)
}
