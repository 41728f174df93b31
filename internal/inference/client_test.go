package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/sam/internal/logging"
	"github.com/harper/sam/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// fakeService answers each request with the next scripted response.
type fakeService struct {
	mu        sync.Mutex
	responses []fakeResponse
	requests  []string
	calls     atomic.Int32
}

type fakeResponse struct {
	status     int
	body       string
	retryAfter string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, string(body))
	i := int(f.calls.Add(1)) - 1
	resp := f.responses[len(f.responses)-1]
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	f.mu.Unlock()

	if resp.retryAfter != "" {
		w.Header().Set("Retry-After", resp.retryAfter)
	}
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

// envelope wraps a payload the way generateContent returns it.
func envelope(t *testing.T, payload string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": payload}}}},
		},
	})
	require.NoError(t, err)
	return string(b)
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newTestClient(t *testing.T, svc *fakeService, rec *sleepRecorder) *Client {
	t.Helper()
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return NewClient("test-key",
		WithBaseURL(srv.URL),
		WithSleep(rec.sleep),
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(logging.Discard()),
	)
}

const taskPayload = `{"type":"todo","title":"Call dentist","summary":"Book a checkup","body":"I need to call the dentist tomorrow","items":[{"text":"Call the dentist","done":false}],"tags":["health"],"isImportant":true,"reminder":{"enabled":true,"time":1741993200000,"description":"tomorrow at 11pm"}}`

func TestStructureRetriesThenSucceeds(t *testing.T) {
	svc := &fakeService{responses: []fakeResponse{
		{status: 503, body: "busy"},
		{status: 503, body: "busy"},
		{status: 200, body: envelope(t, taskPayload)},
	}}
	rec := &sleepRecorder{}
	c := newTestClient(t, svc, rec)

	got := c.Structure(context.Background(), "I need to call the dentist tomorrow")

	assert.Equal(t, int32(3), svc.calls.Load())
	require.Len(t, rec.waits, 2)
	assert.Equal(t, time.Second, rec.waits[0])
	assert.Equal(t, 2*time.Second, rec.waits[1])
	assert.Greater(t, rec.waits[1], rec.waits[0])

	assert.Equal(t, models.KindActionable, got.Kind)
	assert.Equal(t, "Call dentist", got.Title)
	assert.True(t, got.Important)
	assert.Empty(t, got.AIError)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Reminder)
	assert.True(t, got.Reminder.Enabled)
	assert.False(t, got.Reminder.Notified)
	assert.Equal(t, int64(1741993200000), got.Reminder.FireAt.UnixMilli())
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, fixedNow.UnixMilli(), got.CreatedAt.UnixMilli())
}

func TestStructureDoesNotRetryClientErrors(t *testing.T) {
	svc := &fakeService{responses: []fakeResponse{{status: 400, body: "bad key"}}}
	rec := &sleepRecorder{}
	c := newTestClient(t, svc, rec)

	got := c.Structure(context.Background(), "buy milk")

	assert.Equal(t, int32(1), svc.calls.Load())
	assert.Empty(t, rec.waits)
	assert.Equal(t, models.KindActionable, got.Kind)
	assert.Equal(t, []string{TagOffline}, got.Tags)
	assert.Contains(t, got.AIError, "400")
}

func TestStructureHonorsRetryAfter(t *testing.T) {
	svc := &fakeService{responses: []fakeResponse{
		{status: 429, retryAfter: "7"},
		{status: 200, body: envelope(t, `{"type":"note","title":"Sky","body":"blue"}`)},
	}}
	rec := &sleepRecorder{}
	c := newTestClient(t, svc, rec)

	got := c.Structure(context.Background(), "the sky")

	require.Equal(t, []time.Duration{7 * time.Second}, rec.waits)
	assert.Equal(t, models.KindNote, got.Kind)
	assert.Nil(t, got.Reminder)
}

func TestStructureExhaustsRetries(t *testing.T) {
	svc := &fakeService{responses: []fakeResponse{{status: 500}}}
	rec := &sleepRecorder{}
	c := newTestClient(t, svc, rec)

	got := c.Structure(context.Background(), "The sky was beautiful today")

	assert.Equal(t, int32(3), svc.calls.Load())
	assert.Len(t, rec.waits, 2)
	assert.Equal(t, models.KindNote, got.Kind)
	assert.Equal(t, []string{TagOffline}, got.Tags)
	assert.Contains(t, got.AIError, "retries exhausted")
}

func TestStructureTransportErrorsAreRetried(t *testing.T) {
	rec := &sleepRecorder{}
	c := NewClient("k",
		WithBaseURL("http://127.0.0.1:1"),
		WithSleep(rec.sleep),
		WithLogger(logging.Discard()),
	)

	got := c.Structure(context.Background(), "remind me")

	assert.Len(t, rec.waits, 2)
	assert.Equal(t, TitleActionable, got.Title)
	assert.NotEmpty(t, got.AIError)
}

func TestStructureStopsRetryingWhenCancelled(t *testing.T) {
	svc := &fakeService{responses: []fakeResponse{{status: 503}}}
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, svc, &sleepRecorder{})
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	got := c.Structure(ctx, "anything")

	assert.Equal(t, int32(1), svc.calls.Load())
	assert.Contains(t, got.AIError, "retry aborted")
}

func TestStructureMissingReminderIsNil(t *testing.T) {
	svc := &fakeService{responses: []fakeResponse{
		{status: 200, body: envelope(t, `{"type":"note","title":"Idea","summary":"s","body":"b","tags":[],"isImportant":false}`)},
	}}
	c := newTestClient(t, svc, &sleepRecorder{})

	got := c.Structure(context.Background(), "an idea")

	assert.Nil(t, got.Reminder)
	assert.Empty(t, got.AIError)
	assert.Equal(t, "Idea", got.Title)
}

func TestStructureReminderTimeNumberForms(t *testing.T) {
	want := time.UnixMilli(1741993200000)
	for _, form := range []string{"1741993200000", "1741993200000.0", "1.7419932e12", "1741993200000.4"} {
		t.Run(form, func(t *testing.T) {
			payload := `{"type":"note","title":"Dentist","reminder":{"enabled":true,"time":` + form + `}}`
			svc := &fakeService{responses: []fakeResponse{{status: 200, body: envelope(t, payload)}}}
			c := newTestClient(t, svc, &sleepRecorder{})

			got := c.Structure(context.Background(), "dentist tomorrow")

			assert.Empty(t, got.AIError)
			require.NotNil(t, got.Reminder)
			assert.True(t, want.Equal(got.Reminder.FireAt), "got %s", got.Reminder.FireAt)
		})
	}
}

func TestStructureRejectsSchemaMismatch(t *testing.T) {
	cases := map[string]string{
		"not json":      `here you go!`,
		"bad type":      `{"type":"memo","title":"x"}`,
		"unknown field": `{"type":"note","title":"x","mood":"happy"}`,
		"no time":       `{"type":"note","title":"x","reminder":{"enabled":true}}`,
		"quoted time":   `{"type":"note","title":"x","reminder":{"enabled":true,"time":"1741993200000"}}`,
		"no title":      `{"type":"note"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{responses: []fakeResponse{{status: 200, body: envelope(t, payload)}}}
			rec := &sleepRecorder{}
			c := newTestClient(t, svc, rec)

			got := c.Structure(context.Background(), "note this")

			assert.Equal(t, int32(1), svc.calls.Load(), "schema mismatch must not retry")
			assert.Equal(t, TitleNote, got.Title)
			assert.Equal(t, []string{TagOffline}, got.Tags)
			assert.NotEmpty(t, got.AIError)
		})
	}
}

func TestStructureRequestCarriesTimeAndText(t *testing.T) {
	svc := &fakeService{responses: []fakeResponse{{status: 200, body: envelope(t, `{"type":"note","title":"x"}`)}}}
	c := newTestClient(t, svc, &sleepRecorder{})

	c.Structure(context.Background(), "meet Ana next week")

	require.Len(t, svc.requests, 1)
	var req generateRequest
	require.NoError(t, json.Unmarshal([]byte(svc.requests[0]), &req))
	require.NotNil(t, req.SystemInstruction)
	assert.Contains(t, req.SystemInstruction.Parts[0].Text, fmt.Sprint(fixedNow.UnixMilli()))
	assert.Contains(t, req.Contents[0].Parts[0].Text, "meet Ana next week")
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
}

func TestStructureWithoutCredential(t *testing.T) {
	c := NewClient("", WithClock(func() time.Time { return fixedNow }))

	task := c.Structure(context.Background(), "I need to call the dentist")
	assert.Equal(t, models.KindActionable, task.Kind)
	require.Len(t, task.Items, 1)
	assert.Equal(t, "I need to call the dentist", task.Items[0].Text)
	assert.Equal(t, []string{TagDemo}, task.Tags)
	assert.Empty(t, task.AIError)

	note := c.Structure(context.Background(), "The sky was beautiful today")
	assert.Equal(t, models.KindNote, note.Kind)
	assert.Empty(t, note.Items)
	assert.Equal(t, TitleNote, note.Title)
}

func TestStructureEmptyInput(t *testing.T) {
	c := NewClient("")

	got := c.Structure(context.Background(), "")

	require.NotNil(t, got)
	assert.Equal(t, models.KindNote, got.Kind)
	assert.Equal(t, "...", got.Summary)
	assert.Equal(t, "", got.Body)
}

func TestSearchBoundsContext(t *testing.T) {
	var records []*models.Record
	for i := 0; i < 60; i++ {
		r := models.NewRecord(models.KindNote, fmt.Sprintf("title-%02d", i), strings.Repeat("x", 300)+"TAIL")
		records = append(records, r)
	}
	svc := &fakeService{responses: []fakeResponse{
		{status: 200, body: envelope(t, fmt.Sprintf(`{"matches":[%q]}`, records[3].ID))},
	}}
	c := newTestClient(t, svc, &sleepRecorder{})

	got := c.Search(context.Background(), "title", records)

	assert.Equal(t, []string{records[3].ID}, got)
	require.Len(t, svc.requests, 1)
	sent := svc.requests[0]
	assert.Contains(t, sent, "title-49")
	assert.NotContains(t, sent, "title-50")
	assert.NotContains(t, sent, "TAIL")
}

func TestSearchEmptyMatchesDoNotFallBack(t *testing.T) {
	records := []*models.Record{models.NewRecord(models.KindNote, "groceries", "milk")}
	svc := &fakeService{responses: []fakeResponse{{status: 200, body: envelope(t, `{"matches":[]}`)}}}
	c := newTestClient(t, svc, &sleepRecorder{})

	got := c.Search(context.Background(), "groceries", records)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchDropsUnknownIDs(t *testing.T) {
	r := models.NewRecord(models.KindNote, "a", "b")
	svc := &fakeService{responses: []fakeResponse{
		{status: 200, body: envelope(t, fmt.Sprintf(`{"matches":["ghost",%q,%q]}`, r.ID, r.ID))},
	}}
	c := newTestClient(t, svc, &sleepRecorder{})

	assert.Equal(t, []string{r.ID}, c.Search(context.Background(), "a", []*models.Record{r}))
}

func TestSearchFallsBackOnFailure(t *testing.T) {
	milk := models.NewRecord(models.KindActionable, "Groceries", "buy MILK")
	sky := models.NewRecord(models.KindNote, "Sky", "blue")
	sky.Tags = []string{"weather"}
	records := []*models.Record{milk, sky}

	svc := &fakeService{responses: []fakeResponse{{status: 503}}}
	rec := &sleepRecorder{}
	c := newTestClient(t, svc, rec)

	assert.Equal(t, []string{milk.ID}, c.Search(context.Background(), "milk", records))
	assert.Equal(t, int32(3), svc.calls.Load())
	assert.Len(t, rec.waits, 2)

	offline := NewClient("")
	assert.Equal(t, []string{sky.ID}, offline.Search(context.Background(), "WEATH", records))
	assert.Equal(t, []string{}, offline.Search(context.Background(), "nothing", records))
}
