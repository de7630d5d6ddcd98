package e2e

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/learnhub/api/internal/auth"
	"github.com/learnhub/api/internal/client"
	"github.com/learnhub/api/internal/config"
	"github.com/learnhub/api/internal/events"
	"github.com/learnhub/api/internal/handler"
	"github.com/learnhub/api/internal/middleware"
	"github.com/learnhub/api/internal/model"
	"github.com/learnhub/api/internal/repository"
	"github.com/learnhub/api/internal/service"
)

const (
	testJWTSecret  = "test-secret-for-e2e"
	testEventToken = "test-event-token"
	testBucketURI  = "s3://media"
)

// testApp holds all components needed for testing
type testApp struct {
	app      *fiber.App
	commands *service.CommandService
	storage  *memoryStorage
	changes  *changeCounter
}

// setupApp creates a Fiber app wired like main.go against local Redis and the
// postgres at TEST_DATABASE_URL. The transcoder is unconfigured, so job
// submissions return mock job names.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	// Redis (localhost — must be running)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	db, err := repository.Connect(ctx, dbURL, 4)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	if err := repository.RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	contents := repository.NewContentRepository(db)
	commands := repository.NewCommandRepository(db)
	failures := repository.NewCleanupRepository(db)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	storage := newMemoryStorage()
	transcoder := client.NewTranscoderClient(&config.TranscoderConfig{})
	changes := &changeCounter{}
	dedup := events.NewRedisDeduper(redisClient, time.Hour, log)

	paths := service.Paths{
		BucketURI:        testBucketURI,
		IntakePrefix:     "contents/videos/",
		TranscodedPrefix: "transcoded-videos/",
	}

	uploadTrigger := service.NewUploadTrigger(contents, transcoder, paths, changes, log)
	manualTrigger := service.NewManualTrigger(contents, transcoder, paths, changes, log)
	listener := service.NewCompletionListener(contents, paths, dedup, changes, log)
	cleanup := service.NewCleanupHandler(storage, failures, paths, log)
	contentService := service.NewContentService(contents, storage, cleanup, paths, log)
	commandService := service.NewCommandService(contents, commands, asynqClient, manualTrigger, log)
	dispatcher := events.NewDispatcher(events.Topics{}, uploadTrigger, manualTrigger, cleanup, listener, log)

	validate := validator.New()
	authn := auth.NewAuthenticator(nil, testJWTSecret)
	contentHandler := handler.NewContentHandler(contentService, commandService, validate)
	eventsHandler := handler.NewEventsHandler(dispatcher, testEventToken, log)
	authHandler := handler.NewAuthHandler(authn)
	rateLimiter := middleware.NewRateLimiter(redisClient, log)

	app := fiber.New(fiber.Config{
		BodyLimit: handler.MaxUploadSize,
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/auth/verify", authHandler.Verify)

	pushed := app.Group("/events", eventsHandler.RequireToken())
	pushed.Post("/storage", eventsHandler.Storage)
	pushed.Post("/records", eventsHandler.Records)
	pushed.Post("/notifications", eventsHandler.Notifications)

	api := app.Group("/api", middleware.Authenticate(authn))
	// Use very high rate limits so tests don't get blocked
	g := api.Group("/contents")
	g.Post("/", contentHandler.Create)
	g.Post("/upload", rateLimiter.UploadLimit(10000), contentHandler.Upload)
	g.Get("/:id", contentHandler.Get)
	g.Delete("/:id", contentHandler.Delete)
	g.Post("/:id/transcode", rateLimiter.CommandLimit(10000), contentHandler.Transcode)
	g.Post("/:id/cancel", rateLimiter.CommandLimit(10000), contentHandler.Cancel)
	g.Get("/:id/commands", contentHandler.Commands)
	g.Get("/:id/source", contentHandler.Source)

	return &testApp{
		app:      app,
		commands: commandService,
		storage:  storage,
		changes:  changes,
	}
}

// changeCounter counts status changes the pipeline reports.
type changeCounter struct {
	mu    sync.Mutex
	count int
}

func (c *changeCounter) ContentChanged(context.Context, *model.Content) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func (c *changeCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// memoryStorage is an object store that keeps uploads in memory.
type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (s *memoryStorage) Upload(_ context.Context, key string, body io.Reader, _ client.UploadOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return s.GetPublicURL(key), nil
}

func (s *memoryStorage) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *memoryStorage) DeletePrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			delete(s.objects, k)
			n++
		}
	}
	return n, nil
}

func (s *memoryStorage) GetSignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return s.GetPublicURL(key) + "?signature=test", nil
}

func (s *memoryStorage) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (s *memoryStorage) put(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = []byte("segment")
}

// generateToken creates a legacy HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	claims := auth.LegacyClaims{
		UserID: "test-user-123",
		Email:  "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "learnhub-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	resp, err := doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + generateToken(t),
	})
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// pushEvent delivers an event the way the push subscription does.
func pushEvent(t *testing.T, app *fiber.App, path, body string) {
	t.Helper()
	resp, err := doRequest(app, http.MethodPost, path, body, map[string]string{
		handler.EventTokenHeader: testEventToken,
	})
	if err != nil {
		t.Fatalf("push %s failed: %v", path, err)
	}
	resp.Body.Close()
	assertStatus(t, resp, http.StatusNoContent)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// decodeBody parses the response body into v.
func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	body := readBody(t, resp)
	if err := json.Unmarshal([]byte(body), v); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
