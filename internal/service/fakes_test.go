package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/learnhub/api/internal/client"
	"github.com/learnhub/api/internal/model"
)

var errBoom = errors.New("boom")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPaths() Paths {
	return Paths{
		BucketURI:        "gs://bucket",
		IntakePrefix:     "contents/videos/",
		TranscodedPrefix: "transcoded-videos/",
	}
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*model.Content
	writes  int
}

func newMemoryStore(records ...*model.Content) *memoryStore {
	s := &memoryStore{records: map[string]*model.Content{}}
	for _, r := range records {
		c := *r
		s.records[c.ID] = &c
	}
	return s
}

func (s *memoryStore) Create(_ context.Context, content *model.Content) error {
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

func (s *memoryStore) Get(_ context.Context, id string) (*model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, model.ErrContentNotFound
	}
	c := *r
	return &c, nil
}

func (s *memoryStore) FindByPath(_ context.Context, path string) (*model.Content, error) {
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

func (s *memoryStore) Update(_ context.Context, id string, upd model.ContentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return model.ErrContentNotFound
	}
	r.Apply(upd)
	s.writes++
	return nil
}

func (s *memoryStore) UpdateIfJobName(_ context.Context, id, jobName string, upd model.ContentUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.TranscodeJobName != jobName {
		return false, nil
	}
	r.Apply(upd)
	s.writes++
	return true, nil
}

func (s *memoryStore) Delete(_ context.Context, id string) (*model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, model.ErrContentNotFound
	}
	delete(s.records, id)
	return r, nil
}

func (s *memoryStore) record(id string) model.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.records[id]
}

// fakeJobs records submissions; hook runs inside CreateJob before it returns.
type fakeJobs struct {
	created   []*model.JobConfig
	deleted   []string
	nextName  string
	createErr error
	deleteErr error
	hook      func()
}

func (f *fakeJobs) CreateJob(_ context.Context, job *model.JobConfig) (string, error) {
	if f.hook != nil {
		f.hook()
	}
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, job)
	if f.nextName != "" {
		return f.nextName, nil
	}
	return "job-" + time.Now().Format("150405.000000"), nil
}

func (f *fakeJobs) DeleteJob(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return f.deleteErr
}

type fakeStorage struct {
	uploads   []string
	metadata  map[string]string
	deleted   []string
	deleteErr error
	uploadErr error
}

func (f *fakeStorage) Upload(_ context.Context, key string, _ io.Reader, opts client.UploadOptions) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	f.metadata = opts.Metadata
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeStorage) ListPrefix(context.Context, string) ([]string, error) { return nil, nil }

func (f *fakeStorage) DeletePrefix(_ context.Context, prefix string) (int, error) {
	f.deleted = append(f.deleted, prefix)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return 3, nil
}

func (f *fakeStorage) GetSignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

func (f *fakeStorage) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type fakeFailures struct {
	failures []model.CleanupFailure
}

func (f *fakeFailures) Record(_ context.Context, contentID, prefix, errMsg string) error {
	f.failures = append(f.failures, model.CleanupFailure{
		ID:        "failure-" + contentID,
		ContentID: contentID,
		Prefix:    prefix,
		Error:     errMsg,
		Attempts:  1,
	})
	return nil
}

func (f *fakeFailures) ListUnresolved(_ context.Context, maxAttempts, limit int) ([]model.CleanupFailure, error) {
	var out []model.CleanupFailure
	for _, failure := range f.failures {
		if !failure.Resolved && (maxAttempts <= 0 || failure.Attempts < maxAttempts) {
			out = append(out, failure)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeFailures) MarkResolved(_ context.Context, id string) error {
	for i := range f.failures {
		if f.failures[i].ID == id {
			f.failures[i].Resolved = true
		}
	}
	return nil
}

func (f *fakeFailures) MarkAttempt(_ context.Context, id, errMsg string) error {
	for i := range f.failures {
		if f.failures[i].ID == id {
			f.failures[i].Attempts++
			f.failures[i].Error = errMsg
		}
	}
	return nil
}

type fakeCommands struct {
	commands map[string]*model.TranscodeCommand
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{commands: map[string]*model.TranscodeCommand{}}
}

func (f *fakeCommands) Create(_ context.Context, cmd *model.TranscodeCommand) error {
	c := *cmd
	f.commands[c.ID] = &c
	return nil
}

func (f *fakeCommands) Get(_ context.Context, id string) (*model.TranscodeCommand, error) {
	c, ok := f.commands[id]
	if !ok {
		return nil, model.ErrCommandNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCommands) ListByContent(_ context.Context, contentID string, limit int) ([]model.TranscodeCommand, error) {
	var out []model.TranscodeCommand
	for _, c := range f.commands {
		if c.ContentID == contentID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCommands) Claim(_ context.Context, id string) (bool, error) {
	c, ok := f.commands[id]
	if !ok || c.Status != model.CommandStatusPending {
		return false, nil
	}
	c.Status = model.CommandStatusConsumed
	return true, nil
}

func (f *fakeCommands) Fail(_ context.Context, id, errMsg string) error {
	c, ok := f.commands[id]
	if !ok {
		return model.ErrCommandNotFound
	}
	c.Status = model.CommandStatusFailed
	c.Error = &errMsg
	return nil
}

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeQueue) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

type memoryDeduper struct {
	seen map[string]bool
}

func (d *memoryDeduper) First(_ context.Context, key string) bool {
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

func (d *memoryDeduper) Forget(_ context.Context, key string) {
	delete(d.seen, key)
}

type recordingNotifier struct {
	changes []model.Content
}

func (n *recordingNotifier) ContentChanged(_ context.Context, content *model.Content) {
	n.changes = append(n.changes, *content)
}
