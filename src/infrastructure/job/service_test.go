package job_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/pkumv1/AgenticAI-1/src/core/agentflow"
	"github.com/pkumv1/AgenticAI-1/src/infrastructure/job"
	"github.com/pkumv1/AgenticAI-1/src/storage/postgres/transcriptctrl"
)

type fakeRepo struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]*job.Job
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: make(map[int]*job.Job)}
}

func (r *fakeRepo) Create(_ context.Context, taskType string, payload json.RawMessage) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	j := &job.Job{ID: r.nextID, TaskType: taskType, Payload: payload, Status: job.JobStatusPending}
	r.jobs[j.ID] = j
	return j, nil
}

func (r *fakeRepo) Get(_ context.Context, id int) (*job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *j
	return &copied, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id int, status job.JobStatus, errText *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	j.Status = status
	j.Error = errText
	return nil
}

func (r *fakeRepo) status(id int) job.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id].Status
}

type fakeStore struct {
	mu      sync.Mutex
	created []transcriptctrl.Transcript
	err     error
}

func (s *fakeStore) Create(_ context.Context, sessionID, question, answer, state string, steps json.RawMessage) (*transcriptctrl.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	t := transcriptctrl.Transcript{
		ID:        int64(len(s.created) + 1),
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		State:     state,
		Steps:     steps,
	}
	s.created = append(s.created, t)
	return &t, nil
}

func transcriptPayload(t *testing.T) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(job.TranscriptPayload{
		SessionID: "sess-1",
		Question:  "When does the conference start?",
		Answer:    "The conference starts on 9 March.",
		State:     "finished",
		Steps:     []agentflow.Step{{Iteration: 1, Tool: "QA Tool - conference.txt", Observation: "9 March"}},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return payload
}

func TestEnqueueJobPublishesPendingJob(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubsub.Subscribe(ctx, "jobs")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	repo := newFakeRepo()
	svc := job.NewJobService(pubsub, repo, watermill.NopLogger{}, job.NewTranscriptTask(&fakeStore{}))

	queued, err := svc.EnqueueJob(ctx, job.TaskTypeTranscriptArchive, transcriptPayload(t))
	if err != nil {
		t.Fatalf("EnqueueJob() error = %v", err)
	}
	if queued.Status != job.JobStatusPending {
		t.Errorf("Status = %q, want %q", queued.Status, job.JobStatusPending)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		var jobMsg job.JobMessage
		if err := json.Unmarshal(msg.Payload, &jobMsg); err != nil {
			t.Fatalf("unmarshal job message: %v", err)
		}
		if jobMsg.JobID != queued.ID || jobMsg.TaskType != job.TaskTypeTranscriptArchive {
			t.Errorf("JobMessage = %+v, want id %d task %q", jobMsg, queued.ID, job.TaskTypeTranscriptArchive)
		}
	case <-ctx.Done():
		t.Fatal("no job message published")
	}
}

func TestProcessJobMessageArchivesTranscript(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStore{}
	svc := job.NewJobService(gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}), repo, watermill.NopLogger{}, job.NewTranscriptTask(store))

	queued, err := repo.Create(context.Background(), job.TaskTypeTranscriptArchive, transcriptPayload(t))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	msgPayload, _ := json.Marshal(job.JobMessage{JobID: queued.ID, TaskType: queued.TaskType, Payload: queued.Payload})
	if err := svc.ProcessJobMessage(message.NewMessage("1", msgPayload)); err != nil {
		t.Fatalf("ProcessJobMessage() error = %v", err)
	}

	if got := repo.status(queued.ID); got != job.JobStatusCompleted {
		t.Errorf("status = %q, want %q", got, job.JobStatusCompleted)
	}
	if len(store.created) != 1 {
		t.Fatalf("len(created) = %d, want 1", len(store.created))
	}
	created := store.created[0]
	if created.SessionID != "sess-1" || created.Question != "When does the conference start?" {
		t.Errorf("stored transcript = %+v", created)
	}
	if created.State != "finished" || len(created.Steps) == 0 {
		t.Errorf("stored transcript missing state or steps: %+v", created)
	}
}

func TestProcessJobMessageMarksFailure(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStore{err: errors.New("db down")}
	svc := job.NewJobService(gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}), repo, watermill.NopLogger{}, job.NewTranscriptTask(store))

	queued, err := repo.Create(context.Background(), job.TaskTypeTranscriptArchive, transcriptPayload(t))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	msgPayload, _ := json.Marshal(job.JobMessage{JobID: queued.ID, TaskType: queued.TaskType, Payload: queued.Payload})
	if err := svc.ProcessJobMessage(message.NewMessage("1", msgPayload)); err == nil {
		t.Fatal("ProcessJobMessage() error = nil, want failure")
	}

	if got := repo.status(queued.ID); got != job.JobStatusFailed {
		t.Errorf("status = %q, want %q", got, job.JobStatusFailed)
	}
}

func TestProcessJobMessageUnknownTask(t *testing.T) {
	repo := newFakeRepo()
	svc := job.NewJobService(gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}), repo, watermill.NopLogger{}, job.NewTranscriptTask(&fakeStore{}))

	queued, err := repo.Create(context.Background(), "mystery", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	msgPayload, _ := json.Marshal(job.JobMessage{JobID: queued.ID, TaskType: queued.TaskType, Payload: queued.Payload})
	err = svc.ProcessJobMessage(message.NewMessage("1", msgPayload))
	if err == nil {
		t.Fatal("ProcessJobMessage() error = nil, want unknown task failure")
	}
	if got := repo.status(queued.ID); got != job.JobStatusFailed {
		t.Errorf("status = %q, want %q", got, job.JobStatusFailed)
	}
}
