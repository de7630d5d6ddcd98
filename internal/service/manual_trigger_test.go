package service

import (
	"context"
	"errors"
	"testing"

	"github.com/learnhub/api/internal/model"
)

func newTestManualTrigger(store *memoryStore, jobs *fakeJobs) *ManualTrigger {
	return NewManualTrigger(store, jobs, testPaths(), nil, testLogger())
}

func videoRecord(mutate func(c *model.Content)) *model.Content {
	c := &model.Content{
		ID:   "c1",
		Path: "contents/videos/lesson.mp4",
		Type: model.ContentTypeVideo,
	}
	if mutate != nil {
		mutate(c)
	}
	return c
}

func TestManualTrigger_RetranscodeOnEdge(t *testing.T) {
	before := videoRecord(func(c *model.Content) {
		c.TranscodeStatus = model.TranscodeStatusFailed
		c.ErrorMessage = "old failure"
		c.TranscodeJobName = "job-old"
		c.TranscodeAttempt = 2
	})
	after := videoRecord(func(c *model.Content) {
		*c = *before
		c.TranscodeTrigger = model.TranscodeTriggerManual
	})
	store := newMemoryStore(after)
	jobs := &fakeJobs{nextName: "job-new"}

	newTestManualTrigger(store, jobs).HandleUpdate(context.Background(), before, after)

	got := store.record("c1")
	if len(jobs.created) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs.created))
	}
	if got.TranscodeTrigger != model.TranscodeTriggerNone {
		t.Errorf("expected trigger cleared, got %q", got.TranscodeTrigger)
	}
	if got.ErrorMessage != "" {
		t.Errorf("expected error cleared, got %q", got.ErrorMessage)
	}
	if got.TranscodeJobName != "job-new" {
		t.Errorf("expected job-new, got %q", got.TranscodeJobName)
	}
	if got.TranscodeStatus != model.TranscodeStatusProcessing {
		t.Errorf("expected processing, got %q", got.TranscodeStatus)
	}
	if got.TranscodeAttempt != 3 {
		t.Errorf("expected attempt 3, got %d", got.TranscodeAttempt)
	}
	if jobs.created[0].InputURI != "gs://bucket/contents/videos/lesson.mp4" {
		t.Errorf("unexpected input uri %q", jobs.created[0].InputURI)
	}
}

func TestManualTrigger_SameValueDoesNotResubmit(t *testing.T) {
	before := videoRecord(func(c *model.Content) { c.TranscodeTrigger = model.TranscodeTriggerManual })
	after := videoRecord(func(c *model.Content) {
		c.TranscodeTrigger = model.TranscodeTriggerManual
		c.Title = "renamed"
	})
	store := newMemoryStore(after)
	jobs := &fakeJobs{}

	newTestManualTrigger(store, jobs).HandleUpdate(context.Background(), before, after)

	if len(jobs.created) != 0 {
		t.Errorf("expected no job, got %d", len(jobs.created))
	}
	if store.writes != 0 {
		t.Errorf("expected no writes, got %d", store.writes)
	}
}

func TestManualTrigger_OwnClearingWriteDoesNotAct(t *testing.T) {
	before := videoRecord(func(c *model.Content) { c.TranscodeTrigger = model.TranscodeTriggerCancel })
	after := videoRecord(nil)
	store := newMemoryStore(after)
	jobs := &fakeJobs{}

	newTestManualTrigger(store, jobs).HandleUpdate(context.Background(), before, after)

	if len(jobs.created) != 0 || len(jobs.deleted) != 0 {
		t.Errorf("expected no job service calls, got %d creates %d deletes", len(jobs.created), len(jobs.deleted))
	}
}

func TestManualTrigger_RetranscodeFailureClearsTrigger(t *testing.T) {
	after := videoRecord(func(c *model.Content) { c.TranscodeTrigger = model.TranscodeTriggerManual })
	store := newMemoryStore(after)
	jobs := &fakeJobs{createErr: errBoom}

	newTestManualTrigger(store, jobs).HandleUpdate(context.Background(), nil, after)

	got := store.record("c1")
	if got.TranscodeStatus != model.TranscodeStatusFailed {
		t.Errorf("expected failed, got %q", got.TranscodeStatus)
	}
	if got.ErrorMessage != errBoom.Error() {
		t.Errorf("expected error %q, got %q", errBoom.Error(), got.ErrorMessage)
	}
	if got.TranscodeTrigger != model.TranscodeTriggerNone {
		t.Errorf("expected trigger cleared, got %q", got.TranscodeTrigger)
	}
}

func TestManualTrigger_CancelAlwaysEndsCancelled(t *testing.T) {
	for _, deleteErr := range []error{nil, errBoom} {
		before := videoRecord(func(c *model.Content) {
			c.TranscodeStatus = model.TranscodeStatusProcessing
			c.TranscodeJobName = "job-123"
			c.ErrorMessage = "stale"
		})
		after := videoRecord(func(c *model.Content) {
			*c = *before
			c.TranscodeTrigger = model.TranscodeTriggerCancel
		})
		store := newMemoryStore(after)
		jobs := &fakeJobs{deleteErr: deleteErr}

		newTestManualTrigger(store, jobs).HandleUpdate(context.Background(), before, after)

		got := store.record("c1")
		if got.TranscodeStatus != model.TranscodeStatusCancelled {
			t.Errorf("deleteErr=%v: expected cancelled, got %q", deleteErr, got.TranscodeStatus)
		}
		if got.TranscodeTrigger != model.TranscodeTriggerNone {
			t.Errorf("deleteErr=%v: expected trigger cleared, got %q", deleteErr, got.TranscodeTrigger)
		}
		if got.ErrorMessage != "" {
			t.Errorf("deleteErr=%v: expected error cleared, got %q", deleteErr, got.ErrorMessage)
		}
		if !got.CancelRequested {
			t.Errorf("deleteErr=%v: expected cancelRequested", deleteErr)
		}
		if got.TranscodeJobName != "job-123" {
			t.Errorf("deleteErr=%v: expected job name kept, got %q", deleteErr, got.TranscodeJobName)
		}
		if len(jobs.deleted) != 1 || jobs.deleted[0] != "job-123" {
			t.Errorf("deleteErr=%v: expected delete of job-123, got %v", deleteErr, jobs.deleted)
		}
	}
}

func TestManualTrigger_CancelWithoutJob(t *testing.T) {
	after := videoRecord(func(c *model.Content) {
		c.TranscodeStatus = model.TranscodeStatusFailed
		c.TranscodeTrigger = model.TranscodeTriggerCancel
	})
	store := newMemoryStore(after)
	jobs := &fakeJobs{}
	trigger := newTestManualTrigger(store, jobs)

	err := trigger.Cancel(context.Background(), after)
	if !errors.Is(err, model.ErrNoActiveJob) {
		t.Fatalf("expected ErrNoActiveJob, got %v", err)
	}

	got := store.record("c1")
	if got.TranscodeTrigger != model.TranscodeTriggerNone {
		t.Errorf("expected trigger cleared, got %q", got.TranscodeTrigger)
	}
	if got.TranscodeStatus != model.TranscodeStatusFailed {
		t.Errorf("expected status untouched, got %q", got.TranscodeStatus)
	}
	if len(jobs.deleted) != 0 {
		t.Errorf("expected no delete call, got %v", jobs.deleted)
	}
}
