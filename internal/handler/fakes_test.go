package handler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/learnhub/api/internal/client"
	"github.com/learnhub/api/internal/model"
	"github.com/learnhub/api/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPaths() service.Paths {
	return service.Paths{
		BucketURI:        "s3://media",
		IntakePrefix:     "contents/videos/",
		TranscodedPrefix: "transcoded-videos/",
	}
}

type contentStore struct {
	mu      sync.Mutex
	records map[string]*model.Content
}

func newContentStore(records ...*model.Content) *contentStore {
	s := &contentStore{records: map[string]*model.Content{}}
	for _, r := range records {
		c := *r
		s.records[c.ID] = &c
	}
	return s
}

func (s *contentStore) Create(_ context.Context, content *model.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Path == content.Path {
			return model.ErrDuplicatePath
		}
	}
	c := *content
	s.records[c.ID] = &c
	return nil
}

func (s *contentStore) Get(_ context.Context, id string) (*model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, model.ErrContentNotFound
	}
	c := *r
	return &c, nil
}

func (s *contentStore) FindByPath(_ context.Context, path string) (*model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Path == path {
			c := *r
			return &c, nil
		}
	}
	return nil, model.ErrContentNotFound
}

func (s *contentStore) Update(_ context.Context, id string, upd model.ContentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return model.ErrContentNotFound
	}
	r.Apply(upd)
	return nil
}

func (s *contentStore) UpdateIfJobName(_ context.Context, id, jobName string, upd model.ContentUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.TranscodeJobName != jobName {
		return false, nil
	}
	r.Apply(upd)
	return true, nil
}

func (s *contentStore) Delete(_ context.Context, id string) (*model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, model.ErrContentNotFound
	}
	delete(s.records, id)
	return r, nil
}

type commandStore struct {
	mu   sync.Mutex
	cmds []model.TranscodeCommand
}

func (s *commandStore) Create(_ context.Context, cmd *model.TranscodeCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, *cmd)
	return nil
}

func (s *commandStore) Get(_ context.Context, id string) (*model.TranscodeCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cmds {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, model.ErrCommandNotFound
}

func (s *commandStore) ListByContent(_ context.Context, contentID string, _ int) ([]model.TranscodeCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TranscodeCommand
	for _, c := range s.cmds {
		if c.ContentID == contentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *commandStore) Claim(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cmds {
		if s.cmds[i].ID == id && s.cmds[i].Status == model.CommandStatusPending {
			s.cmds[i].Status = model.CommandStatusConsumed
			return true, nil
		}
	}
	return false, nil
}

func (s *commandStore) Fail(_ context.Context, id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cmds {
		if s.cmds[i].ID == id {
			s.cmds[i].Status = model.CommandStatusFailed
			s.cmds[i].Error = &errMsg
		}
	}
	return nil
}

type taskQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (q *taskQueue) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type jobService struct{}

func (jobService) CreateJob(context.Context, *model.JobConfig) (string, error) {
	return "projects/p/locations/l/jobs/test", nil
}

func (jobService) DeleteJob(context.Context, string) error { return nil }

type uploadedObject struct {
	key  string
	body []byte
	opts client.UploadOptions
}

type objectStorage struct {
	mu      sync.Mutex
	objects []uploadedObject
}

func (s *objectStorage) Upload(_ context.Context, key string, body io.Reader, opts client.UploadOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, uploadedObject{key: key, body: data, opts: opts})
	return "https://cdn.example.com/" + key, nil
}

func (s *objectStorage) ListPrefix(context.Context, string) ([]string, error) { return nil, nil }

func (s *objectStorage) DeletePrefix(context.Context, string) (int, error) { return 0, nil }

func (s *objectStorage) GetSignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.example.com/" + key + "?signed=1", nil
}

func (s *objectStorage) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}
