package enrich

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/renyezhang/toppaper/internal/record"
	"github.com/renyezhang/toppaper/internal/search"
	"github.com/renyezhang/toppaper/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	results  map[string][]string
	failures map[string]error
	calls    []string
	resets   int
	resetErr error
	onSearch func(query string)
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]string, error) {
	f.calls = append(f.calls, query)
	if f.onSearch != nil {
		f.onSearch(query)
	}
	if err := f.failures[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

func (f *fakeSearcher) Reset(context.Context) error {
	f.resets++
	return f.resetErr
}

func (f *fakeSearcher) Close() error { return nil }

type fakeVerifier map[string]bool

func (v fakeVerifier) RepoExists(_ context.Context, link string) (bool, error) {
	return v[link], nil
}

func newTestEngine(s Searcher, pacing Pacing) (*Engine, *[]time.Duration) {
	var delays []time.Duration
	e := NewEngine(s, pacing, zerolog.Nop())
	e.rng = rand.New(rand.NewSource(1))
	e.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return e, &delays
}

// writeScenario stores ten records, two of which were already searched.
func writeScenario(t *testing.T) (string, *fakeSearcher) {
	t.Helper()

	var recs []record.Record
	results := map[string][]string{}
	for i := 0; i < 10; i++ {
		title := fmt.Sprintf("Paper Number %d", i)
		rec := record.Record{Title: title, Source: "CVPR", Year: 2020}
		switch {
		case i == 0:
			rec.SetCode("https://github.com/done/before")
		case i == 1:
			rec.SetCode("")
		case i%3 == 0:
			results[title] = []string{"https://arxiv.org/abs/1", "https://example.com/blog"}
		default:
			results[title] = []string{
				"https://arxiv.org/abs/1",
				fmt.Sprintf("https://www.github.com/lab/paper%d/tree/main", i),
				"https://gitlab.com/other/x",
			}
		}
		recs = append(recs, rec)
	}

	path := filepath.Join(t.TempDir(), "papers.jsonl")
	require.NoError(t, storage.WriteAll(path, recs))
	return path, &fakeSearcher{results: results}
}

func TestRun_TenRecordScenario(t *testing.T) {
	path, s := writeScenario(t)
	e, _ := newTestEngine(s, Pacing{})

	stats, err := e.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Len(t, s.calls, 8)
	assert.Equal(t, 8, stats.Processed)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 5, stats.Found)
	assert.Equal(t, 3, stats.Missed)
	recs, err := storage.ReadAll(path)
	require.NoError(t, err)
	require.Len(t, recs, 10)

	for i, rec := range recs {
		require.True(t, rec.HasCode(), "record %d has no marker", i)
	}
	assert.Equal(t, "https://github.com/done/before", recs[0].CodeURL())
	assert.Equal(t, "", recs[1].CodeURL())
	assert.Equal(t, "https://github.com/lab/paper2", recs[2].CodeURL())
	assert.Equal(t, "", recs[3].CodeURL())
	assert.Equal(t, "https://github.com/lab/paper4", recs[4].CodeURL())
}

func TestRun_Idempotent(t *testing.T) {
	path, s := writeScenario(t)
	e, _ := newTestEngine(s, Pacing{})

	_, err := e.Run(context.Background(), path)
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	s.calls = nil
	stats, err := e.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, s.calls)
	assert.Equal(t, 10, stats.Skipped)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_ResetCadenceAndDelays(t *testing.T) {
	path, s := writeScenario(t)
	s.resetErr = errors.New("browser crashed")
	e, delays := newTestEngine(s, Pacing{MinDelay: time.Second, MaxDelay: 3 * time.Second, ResetEvery: 3})

	stats, err := e.Run(context.Background(), path)
	require.NoError(t, err)

	// Resets before the 4th and 7th lookups; a failing reset does not stop the run.
	assert.Equal(t, 2, s.resets)
	assert.Equal(t, 2, stats.Resets)
	assert.Equal(t, 8, stats.Processed)

	require.Len(t, *delays, 7)
	for _, d := range *delays {
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}
}

func TestRun_LookupErrorLeavesRecordUntouched(t *testing.T) {
	path, s := writeScenario(t)
	s.failures = map[string]error{"Paper Number 4": errors.New("captcha")}
	e, _ := newTestEngine(s, Pacing{})

	stats, err := e.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 7, stats.Processed)

	recs, err := storage.ReadAll(path)
	require.NoError(t, err)
	assert.False(t, recs[4].HasCode())
	assert.True(t, recs[5].HasCode())
}

func TestRun_CancelKeepsWrittenResults(t *testing.T) {
	path, s := writeScenario(t)
	ctx, cancel := context.WithCancel(context.Background())
	s.onSearch = func(query string) {
		if query == "Paper Number 3" {
			cancel()
		}
	}
	e, _ := newTestEngine(s, Pacing{})

	_, err := e.Run(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)

	recs, err := storage.ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/lab/paper2", recs[2].CodeURL())
	assert.False(t, recs[3].HasCode())
	assert.False(t, recs[4].HasCode())
}

func TestRun_VerifierRejectsMissingRepos(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papers.jsonl")
	require.NoError(t, storage.WriteAll(path, []record.Record{{Title: "Verified Paper"}}))

	s := &fakeSearcher{results: map[string][]string{
		"Verified Paper": {"https://github.com/gone/repo", "https://github.com/real/repo"},
	}}
	e, _ := newTestEngine(s, Pacing{})
	e.Verifier = fakeVerifier{"https://github.com/real/repo": true}

	_, err := e.Run(context.Background(), path)
	require.NoError(t, err)

	recs, err := storage.ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/real/repo", recs[0].CodeURL())
}

func TestRun_SkipsNonRepositoryGitHubPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papers.jsonl")
	require.NoError(t, storage.WriteAll(path, []record.Record{{Title: "Topic Paper"}}))

	s := &fakeSearcher{results: map[string][]string{
		"Topic Paper": {"https://github.com/topics/vision", "https://gitlab.com/group/project"},
	}}
	e, _ := newTestEngine(s, Pacing{})

	_, err := e.Run(context.Background(), path)
	require.NoError(t, err)

	recs, err := storage.ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, "https://gitlab.com/group/project", recs[0].CodeURL())
}

func TestRun_ChallengePageIsRetriedLater(t *testing.T) {
	challenge := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if challenge {
			w.Write([]byte(`<html><body><h1>One last step</h1><p>Please solve the challenge.</p></body></html>`))
			return
		}
		w.Write([]byte(`<html><body><ol id="b_results">
<li class="b_algo"><h2><a href="https://github.com/facebookresearch/mae">MAE</a></h2></li>
</ol></body></html>`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "papers.jsonl")
	require.NoError(t, storage.WriteAll(path, []record.Record{{Title: "Masked Autoencoders"}}))

	e, _ := newTestEngine(search.NewHTML("test-agent", search.WithEndpoint(srv.URL)), Pacing{})

	stats, err := e.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Missed)

	recs, err := storage.ReadAll(path)
	require.NoError(t, err)
	assert.False(t, recs[0].HasCode())

	challenge = false
	stats, err = e.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 1, stats.Found)

	recs, err = storage.ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/facebookresearch/mae", recs[0].CodeURL())
}

func TestRefresh_ReplacesMarker(t *testing.T) {
	path, s := writeScenario(t)
	s.results["Paper Number 1"] = []string{"https://gitlab.com/lab/paper1"}
	e, _ := newTestEngine(s, Pacing{})

	rec, err := e.Refresh(context.Background(), path, "paper number 1")
	require.NoError(t, err)
	assert.Equal(t, "https://gitlab.com/lab/paper1", rec.CodeURL())
	assert.Equal(t, []string{"Paper Number 1"}, s.calls)

	recs, err := storage.ReadAll(path)
	require.NoError(t, err)
	require.Len(t, recs, 10)
	assert.Equal(t, "https://gitlab.com/lab/paper1", recs[1].CodeURL())
	assert.Equal(t, "https://github.com/done/before", recs[0].CodeURL())
	assert.False(t, recs[2].HasCode())
}

func TestRefresh_Errors(t *testing.T) {
	path, s := writeScenario(t)
	s.failures = map[string]error{"Paper Number 0": errors.New("captcha")}
	e, _ := newTestEngine(s, Pacing{})

	_, err := e.Refresh(context.Background(), path, "No Such Paper")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	before, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = e.Refresh(context.Background(), path, "Paper Number 0")
	require.Error(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMatchHost(t *testing.T) {
	hosts := []string{"github.com", "GitLab.com"}

	tests := []struct {
		link string
		host string
		ok   bool
	}{
		{"https://github.com/a/b", "github.com", true},
		{"https://www.github.com/a/b", "github.com", true},
		{"http://gitlab.com/a/b", "gitlab.com", true},
		{"https://notgithub.com/a/b", "", false},
		{"https://github.com.evil.io/a", "", false},
		{"ftp://github.com/a/b", "", false},
		{"github.com/a/b", "", false},
	}

	for _, tt := range tests {
		host, ok := MatchHost(tt.link, hosts)
		assert.Equal(t, tt.ok, ok, tt.link)
		assert.Equal(t, tt.host, host, tt.link)
	}
}
