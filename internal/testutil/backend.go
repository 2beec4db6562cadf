// Package testutil provides an in-process story backend for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ChaseRain/storycards/internal/infra/config"
	"github.com/ChaseRain/storycards/internal/service/backend"
)

// PNGBytes is a PNG signature, enough for content sniffing.
var PNGBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// FakeBackend mimics the story generation backend. Status responses walk
// through Statuses one per query and repeat the last entry once exhausted.
type FakeBackend struct {
	Server *httptest.Server

	mu          sync.Mutex
	statuses    []string
	statusIdx   int
	statusCode  int
	startCode   int
	startDelay  time.Duration
	story       *backend.Story
	document    []byte
	levels      []string
	startCalls  int
	statusCalls int
	storyCalls  int
	cardCalls   int
}

// NewFakeBackend starts a fake backend that is closed with the test.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeBackend{
		statuses:   []string{"Ready"},
		statusCode: http.StatusOK,
		startCode:  http.StatusOK,
	}

	r := gin.New()
	r.POST("/api/generate", f.handleStart)
	r.GET("/api/status", f.handleStatus)
	r.GET("/api/story", f.handleStory)
	r.GET("/output/cards/:file", f.handleCard)
	r.GET("/output/story.pdf", f.handleDocument)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// Config returns backend settings pointing at the fake.
func (f *FakeBackend) Config() config.BackendConfig {
	cfg := config.Default().Backend
	cfg.BaseURL = f.Server.URL
	return cfg
}

func (f *FakeBackend) SetStatuses(statuses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = statuses
	f.statusIdx = 0
}

// SetStatusCode makes every status query answer with code.
func (f *FakeBackend) SetStatusCode(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCode = code
}

func (f *FakeBackend) SetStartCode(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCode = code
}

// SetStartDelay holds start responses for d.
func (f *FakeBackend) SetStartDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startDelay = d
}

// SetStory sets the story served by the story endpoint. nil serves 404.
func (f *FakeBackend) SetStory(story *backend.Story) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.story = story
}

func (f *FakeBackend) SetDocument(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.document = data
}

func (f *FakeBackend) StartCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls
}

func (f *FakeBackend) StatusCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func (f *FakeBackend) StoryCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storyCalls
}

func (f *FakeBackend) CardCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cardCalls
}

// Levels returns the level of every start request received.
func (f *FakeBackend) Levels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.levels...)
}

func (f *FakeBackend) handleStart(c *gin.Context) {
	var req struct {
		Level string `json:"level"`
	}
	_ = c.ShouldBindJSON(&req)

	f.mu.Lock()
	f.startCalls++
	f.levels = append(f.levels, req.Level)
	code, delay := f.startCode, f.startDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	switch {
	case code == http.StatusBadRequest:
		c.JSON(code, gin.H{"error": "Already generating"})
	case code >= 300:
		c.JSON(code, gin.H{"error": "generation unavailable"})
	default:
		c.JSON(code, gin.H{"message": "Generation started"})
	}
}

func (f *FakeBackend) handleStatus(c *gin.Context) {
	f.mu.Lock()
	f.statusCalls++
	code := f.statusCode
	status := f.statuses[len(f.statuses)-1]
	if f.statusIdx < len(f.statuses) {
		status = f.statuses[f.statusIdx]
	}
	f.statusIdx++
	f.mu.Unlock()

	if code != http.StatusOK {
		c.JSON(code, gin.H{"error": "status unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"is_generating": status != "Complete" && !strings.HasPrefix(status, "Error"),
		"logs":          []string{status},
	})
}

func (f *FakeBackend) handleStory(c *gin.Context) {
	f.mu.Lock()
	f.storyCalls++
	story := f.story
	f.mu.Unlock()

	if story == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No story found"})
		return
	}
	c.JSON(http.StatusOK, story)
}

func (f *FakeBackend) handleCard(c *gin.Context) {
	f.mu.Lock()
	f.cardCalls++
	f.mu.Unlock()
	c.Data(http.StatusOK, "image/png", PNGBytes)
}

func (f *FakeBackend) handleDocument(c *gin.Context) {
	f.mu.Lock()
	doc := f.document
	f.mu.Unlock()

	if doc == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "application/pdf", doc)
}

// SampleStory returns a story whose pages are in the given order.
func SampleStory(pageNumbers ...int) *backend.Story {
	story := &backend.Story{
		TitlePrimary:   "Kesä Helsingissä",
		TitleSecondary: "Summer in Helsinki",
		Characters:     []backend.Character{{Name: "Aino"}},
	}
	for _, n := range pageNumbers {
		story.Pages = append(story.Pages, backend.Page{
			PageNumber:    n,
			Type:          "story",
			TextPrimary:   "Sivu " + strconv.Itoa(n),
			TextSecondary: "Page " + strconv.Itoa(n),
		})
	}
	return story
}
