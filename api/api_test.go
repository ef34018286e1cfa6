package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bricon/seo-engine/analyzer"
	"github.com/bricon/seo-engine/scoring"
	"github.com/bricon/seo-engine/stats"
	"github.com/bricon/seo-engine/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testKeywords = analyzer.KeywordConfig{
	Primary:   []string{"keo dán gạch BRICON"},
	Secondary: []string{"keo chà ron"},
	Brand:     []string{"BRICON"},
	General:   []string{"gạch"},
	Weights: analyzer.KeywordWeights{
		Primary: 25, SecondaryBrand: 20, Secondary: 15, Brand: 10, General: 5,
	},
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dir := t.TempDir()

	repo, err := store.New(filepath.Join(dir, "seo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	st, err := stats.NewStorage(dir)
	require.NoError(t, err)
	t.Cleanup(func() { st.Shutdown() })

	a := analyzer.New(analyzer.Options{
		Keywords:   testKeywords,
		SiteDomain: "bricon.com.vn",
		Resolver:   repo,
		Stats:      st,
	})
	t.Cleanup(a.Shutdown)

	svc := scoring.New(scoring.Options{Analyzer: a, Repo: repo, Stats: st})

	r := gin.New()
	NewHandler(a, svc, repo, st, nil).Register(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPreviewMedia(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/seo/media", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"score", "grade", "grade_text", "grade_class", "issues", "recommendations", "checklist"} {
		assert.Contains(t, raw, key)
	}

	result := decode[analyzer.ScoreResult](t, rec)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, analyzer.GradeF, result.Grade)
	assert.Equal(t, analyzer.SeverityDanger, result.GradeClass)
	assert.Contains(t, result.Issues, "Missing alt text")

	rec = do(t, r, http.MethodPost, "/api/seo/media", `{"width": "wide"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewArticle(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/seo/article", analyzer.Article{
		Title:        "Hướng dẫn thi công keo dán gạch đúng kỹ thuật",
		FocusKeyword: "keo dán gạch",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[analyzer.ScoreResult](t, rec)
	assert.Equal(t, 20, result.Score)
	assert.Contains(t, result.Issues, "No content")

	rec = do(t, r, http.MethodPost, "/api/seo/article", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScorePage(t *testing.T) {
	r := newTestRouter(t)

	page := `<html><head><title>Keo dán gạch cho phòng tắm và nhà bếp</title>
<meta name="description" content="Cách chọn keo dán gạch"></head>
<body><article><h2>Keo dán gạch là gì</h2><p>Keo dán gạch giúp gạch bám chắc.</p></article></body></html>`

	rec := do(t, r, http.MethodPost, "/api/seo/page", pageRequest{HTML: page, FocusKeyword: "keo dán gạch"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[pageResponse](t, rec)
	assert.Equal(t, "Keo dán gạch cho phòng tắm và nhà bếp", resp.Article.Title)
	assert.Equal(t, "Cách chọn keo dán gạch", resp.Article.MetaDescription)
	assert.Greater(t, resp.Result.Score, 0)

	rec = do(t, r, http.MethodPost, "/api/seo/page", map[string]string{"focus_keyword": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMediaEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/media", mediaRequest{
		Filepath: "/static/uploads/keo.jpg",
		AltText:  "Keo dán gạch BRICON cho phòng tắm hiện đại",
		Title:    "Keo dán gạch BRICON phòng tắm",
		Album:    "Sản phẩm",
		Width:    1200,
		Height:   800,
		FileSize: 150 * 1024,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[mediaResponse](t, rec)
	require.NotNil(t, created.Result)
	assert.Equal(t, "keo.jpg", created.Filename)
	assert.Equal(t, created.Result.Score, created.SEO.Score)

	rec = do(t, r, http.MethodPost, "/api/media", mediaRequest{Filepath: "/static/uploads/blank.png"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/media?seo_filter=poor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Items []mediaResponse `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "blank.png", list.Items[0].Filename)
	assert.Equal(t, store.BucketPoor, list.Items[0].Bucket)

	rec = do(t, r, http.MethodGet, "/api/media?album=S%E1%BA%A3n%20ph%E1%BA%A9m", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Items []mediaResponse `json:"items"`
	}](t, rec).Items, 1)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/media?seo_filter=great", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/media?limit=0", nil).Code)

	rec = do(t, r, http.MethodGet, "/api/media/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	libStats := decode[store.LibraryStats](t, rec)
	assert.Equal(t, 2, libStats.TotalFiles)
	assert.Equal(t, []string{"Sản phẩm"}, libStats.Albums)

	path := "/api/media/" + jsonNumber(created.ID)
	rec = do(t, r, http.MethodGet, path+"/seo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[seoResponse](t, rec)
	assert.Equal(t, created.ID, info.ID)
	assert.Equal(t, created.Result.Score, info.Score)
	assert.NotNil(t, info.SEO.LastChecked)

	rec = do(t, r, http.MethodPut, path, mediaRequest{Filepath: "/static/uploads/keo.jpg"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[mediaResponse](t, rec)
	assert.Less(t, updated.SEO.Score, created.SEO.Score)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/media/999", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/media/999/seo", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/media/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/media", map[string]any{}).Code)
}

func TestArticleEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/articles", articleRequest{
		Title:        "Cách chọn keo dán gạch bền đẹp cho gia đình",
		FocusKeyword: "keo dán gạch",
		Content:      `<p>Keo dán gạch giúp gạch bám chắc.</p><h2>Keo dán gạch ngoài trời</h2><a href="/san-pham">Sản phẩm</a>`,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[articleResponse](t, rec)
	assert.Equal(t, "cach-chon-keo-dan-gach-ben-dep-cho-gia-dinh", created.Slug)
	assert.Equal(t, 1, created.ReadingTime)
	require.NotNil(t, created.Result)

	path := "/api/articles/" + jsonNumber(created.ID)
	rec = do(t, r, http.MethodGet, path+"/seo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Result.Score, decode[seoResponse](t, rec).Score)

	rec = do(t, r, http.MethodPut, path, articleRequest{
		Title:           created.Title,
		FocusKeyword:    "keo dán gạch",
		Content:         created.Content,
		MetaDescription: "Keo dán gạch: hướng dẫn chọn loại phù hợp cho từng bề mặt, từ phòng tắm, nhà bếp đến sân vườn và hồ bơi.",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[articleResponse](t, rec)
	assert.Greater(t, updated.Result.Score, created.Result.Score)

	rec = do(t, r, http.MethodGet, "/api/articles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Items []store.Article `json:"items"`
	}](t, rec).Items, 1)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/articles", articleRequest{Title: "???"}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPut, "/api/articles/77", articleRequest{Title: "Tiêu đề"}).Code)
}

func TestArticleSlugConflicts(t *testing.T) {
	r := newTestRouter(t)
	title := "Keo chà ron chống thấm"

	first := do(t, r, http.MethodPost, "/api/articles", articleRequest{Title: title})
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	created := decode[articleResponse](t, first)

	rec := do(t, r, http.MethodPost, "/api/articles", articleRequest{Title: title})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"slug is already in use"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "UNIQUE")

	other := do(t, r, http.MethodPost, "/api/articles", articleRequest{Title: "Keo dán đá"})
	require.Equal(t, http.StatusCreated, other.Code, other.Body.String())
	otherPath := "/api/articles/" + jsonNumber(decode[articleResponse](t, other).ID)

	rec = do(t, r, http.MethodPut, otherPath, articleRequest{Title: "Keo dán đá", Slug: created.Slug})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodPut, otherPath, articleRequest{Title: "!!!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"title produces an empty slug"}`, rec.Body.String())

	rec = do(t, r, http.MethodGet, otherPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "keo-dan-da", decode[store.Article](t, rec).Slug)
}

func TestStatistics(t *testing.T) {
	r := newTestRouter(t)
	do(t, r, http.MethodPost, "/api/seo/media", map[string]any{})
	do(t, r, http.MethodPost, "/api/seo/media", map[string]any{})

	rec := do(t, r, http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Current stats.MonthlyStats  `json:"current"`
		Cache   analyzer.CacheStats `json:"cache"`
	}](t, rec)
	assert.Equal(t, 1, resp.Current.MediaScored)
	assert.Equal(t, 1, resp.Current.PreviewCacheHits)
	assert.Equal(t, map[string]int{"F": 1}, resp.Current.Grades)
	assert.Equal(t, 1, resp.Cache.Entries)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
