package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/agentscrape/models"
)

// stubFetcher serves canned details keyed by profile id and records the
// highest number of concurrent FetchDetail calls it observed.
type stubFetcher struct {
	details map[string]*models.AgentRecord
	errs    map[string]error
	delay   time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32

	mu    sync.Mutex
	calls []string
}

func (f *stubFetcher) FetchDetail(_ context.Context, id string) (*models.AgentRecord, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		old := f.peak.Load()
		if n <= old || f.peak.CompareAndSwap(old, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return f.details[id], nil
}

func profile(id string) string {
	return "https://onereal.com/profile/" + id
}

func TestProfileID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://onereal.com/profile/jane-doe", "jane-doe", true},
		{"https://onereal.com/profile/jane-doe/", "jane-doe", true},
		{"https://onereal.com/profile/abc123?ref=search", "abc123", true},
		{"/profile/x/y", "x", true},
		{"https://onereal.com/search-agent", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ProfileID(tt.url)
		assert.Equal(t, tt.wantOK, ok, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestMerge_DetailWinsWhenPresent(t *testing.T) {
	summary := models.AgentRecord{
		Name:       "Jane",
		Location:   "Austin, TX",
		ImageURL:   "https://img/summary.jpg",
		ProfileURL: profile("jane"),
		Languages:  []string{"English"},
	}
	detail := models.AgentRecord{
		Name:       "Jane Doe",
		Email:      "jane@example.com",
		ProfileURL: "https://elsewhere/profile/other",
	}

	got := Merge(summary, detail)

	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "Austin, TX", got.Location)
	assert.Equal(t, "https://img/summary.jpg", got.ImageURL)
	assert.Equal(t, []string{"English"}, got.Languages)
	assert.Equal(t, profile("jane"), got.ProfileURL)
}

func TestEnrich_AllSucceed(t *testing.T) {
	summaries := []models.AgentRecord{
		{Name: "A", ProfileURL: profile("a"), Location: "Austin, TX"},
		{Name: "B", ProfileURL: profile("b")},
	}
	fetcher := &stubFetcher{details: map[string]*models.AgentRecord{
		"a": {Name: "Alice A", Phone: "555"},
		"b": {Email: "b@x.com", Specialties: []string{"Luxury"}},
	}}

	got, failures := Enrich(context.Background(), fetcher, summaries)

	require.Len(t, got, 2)
	assert.Zero(t, failures)
	assert.Equal(t, models.AgentRecord{
		Name: "Alice A", Phone: "555", Location: "Austin, TX", ProfileURL: profile("a"),
	}, got[0])
	assert.Equal(t, models.AgentRecord{
		Name: "B", Email: "b@x.com", Specialties: []string{"Luxury"}, ProfileURL: profile("b"),
	}, got[1])
}

func TestEnrich_FailureKeepsSummary(t *testing.T) {
	summaries := []models.AgentRecord{
		{Name: "A", ProfileURL: profile("a")},
		{Name: "B", ProfileURL: profile("b")},
		{Name: "C", ProfileURL: profile("c")},
	}
	fetcher := &stubFetcher{
		details: map[string]*models.AgentRecord{
			"a": {Email: "a@x.com"},
			"c": {ProfileURL: profile("c")}, // nothing but the URL
		},
		errs: map[string]error{"b": errors.New("navigation timeout")},
	}

	got, failures := Enrich(context.Background(), fetcher, summaries)

	require.Len(t, got, 3)
	assert.Equal(t, 2, failures)
	assert.Equal(t, "a@x.com", got[0].Email)
	assert.Equal(t, summaries[1], got[1])
	assert.Equal(t, summaries[2], got[2])
}

func TestEnrich_NotFoundCountsAsFailure(t *testing.T) {
	summaries := []models.AgentRecord{{Name: "A", ProfileURL: profile("gone")}}

	got, failures := Enrich(context.Background(), &stubFetcher{}, summaries)

	assert.Equal(t, 1, failures)
	assert.Equal(t, summaries, got)
}

func TestEnrich_ConcurrencyFillsCap(t *testing.T) {
	summaries := make([]models.AgentRecord, 12)
	details := make(map[string]*models.AgentRecord, len(summaries))
	for i := range summaries {
		id := fmt.Sprintf("agent-%d", i)
		summaries[i] = models.AgentRecord{ProfileURL: profile(id)}
		details[id] = &models.AgentRecord{Name: id}
	}
	fetcher := &stubFetcher{details: details, delay: 20 * time.Millisecond}

	got, failures := Enrich(context.Background(), fetcher, summaries)

	require.Len(t, got, len(summaries))
	assert.Zero(t, failures)
	assert.Len(t, fetcher.calls, len(summaries))
	assert.Equal(t, int32(MaxConcurrentFetches), fetcher.peak.Load(), "the gate is filled, not serialized")
	assert.Equal(t, int32(0), fetcher.inFlight.Load())
	for i, rec := range got {
		assert.Equal(t, fmt.Sprintf("agent-%d", i), rec.Name)
	}
}

// panicFetcher panics for one id and serves a detail for every other.
type panicFetcher struct{ bad string }

func (f panicFetcher) FetchDetail(_ context.Context, id string) (*models.AgentRecord, error) {
	if id == f.bad {
		panic("renderer crashed")
	}
	return &models.AgentRecord{Name: "Detail " + id}, nil
}

func TestEnrich_PanicCountsAsFailure(t *testing.T) {
	summaries := []models.AgentRecord{
		{Name: "Jane", ProfileURL: profile("jane")},
		{Name: "Sam", ProfileURL: profile("sam")},
	}

	var (
		got      []models.AgentRecord
		failures int
	)
	require.NotPanics(t, func() {
		got, failures = Enrich(context.Background(), panicFetcher{bad: "sam"}, summaries)
	})

	require.Len(t, got, 2)
	assert.Equal(t, 1, failures)
	assert.Equal(t, "Detail jane", got[0].Name)
	assert.Equal(t, summaries[1], got[1])
}

// Two unparseable URLs pass through uncounted, one fetch throws and is
// counted, and the remaining two are merged.
func TestEnrich_MixedBatch(t *testing.T) {
	summaries := []models.AgentRecord{
		{Name: "no-url"},
		{Name: "A", ProfileURL: profile("a")},
		{Name: "bad-url", ProfileURL: "https://onereal.com/agents/bad"},
		{Name: "B", ProfileURL: profile("b")},
		{Name: "C", ProfileURL: profile("c")},
	}
	fetcher := &stubFetcher{
		details: map[string]*models.AgentRecord{
			"a": {Email: "a@x.com"},
			"c": {Email: "c@x.com"},
		},
		errs: map[string]error{"b": errors.New("boom")},
	}

	got, failures := Enrich(context.Background(), fetcher, summaries)

	require.Len(t, got, 5)
	assert.Equal(t, 1, failures)
	assert.Equal(t, summaries[0], got[0])
	assert.Equal(t, summaries[2], got[2])
	assert.Equal(t, summaries[3], got[3])
	assert.Equal(t, "a@x.com", got[1].Email)
	assert.Equal(t, "c@x.com", got[4].Email)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, fetcher.calls)
}

func TestEnrich_Empty(t *testing.T) {
	got, failures := Enrich(context.Background(), &stubFetcher{}, nil)
	assert.Empty(t, got)
	assert.Zero(t, failures)
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "done", FailureMessage("done", 0))
	assert.Equal(t, "done (2 profiles failed to load details)", FailureMessage("done", 2))
}
