package similarity_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"autoqueue/internal/config"
	"autoqueue/internal/similarity"
)

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func xmlResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestProvider(client similarity.HTTPDoer) *similarity.Provider {
	cfg := config.Default().Provider
	cfg.APIKey = "test-key"
	cfg.ThrottleMillis = 1
	return similarity.NewProvider(cfg, client, nil)
}

func TestProviderParsesSimilarTracks(t *testing.T) {
	var gotURL string
	provider := newTestProvider(doerFunc(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return xmlResponse(`<?xml version="1.0"?>
<lfm status="ok">
  <similartracks>
    <track><name>Sinnerman</name><match>0.93</match><artist><name>Nina Simone</name></artist></track>
    <track><name>Strange Fruit</name><match>0.4</match><artist><name>Billie Holiday</name></artist></track>
  </similartracks>
</lfm>`), nil
	}))

	matches, err := provider.SimilarTracks(context.Background(), "Nina Simone", "Feeling Good")
	if err != nil {
		t.Fatalf("similar tracks: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %+v", matches)
	}
	if matches[0].Score != 93 || matches[0].Artist != "nina simone" || matches[0].Title != "sinnerman" {
		t.Fatalf("unexpected first match: %+v", matches[0])
	}
	if !strings.Contains(gotURL, "method=track.getsimilar") || !strings.Contains(gotURL, "api_key=test-key") {
		t.Fatalf("unexpected request URL: %s", gotURL)
	}
}

func TestProviderParsesSimilarArtists(t *testing.T) {
	provider := newTestProvider(doerFunc(func(_ *http.Request) (*http.Response, error) {
		return xmlResponse(`<?xml version="1.0"?>
<lfm status="ok">
  <similarartists>
    <artist><name>Can</name><match>0.8</match></artist>
  </similarartists>
</lfm>`), nil
	}))

	matches, err := provider.SimilarArtists(context.Background(), "Faust")
	if err != nil {
		t.Fatalf("similar artists: %v", err)
	}
	if len(matches) != 1 || matches[0].Score != 80 || matches[0].Name != "can" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestProviderDisablesAfterParseError(t *testing.T) {
	calls := 0
	provider := newTestProvider(doerFunc(func(_ *http.Request) (*http.Response, error) {
		calls++
		return xmlResponse("this is not xml <<<"), nil
	}))
	ctx := context.Background()

	_, err := provider.SimilarTracks(ctx, "artist", "title")
	if !errors.Is(err, similarity.ErrExternalLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if !provider.Disabled() {
		t.Fatal("expected provider to disable itself")
	}

	_, err = provider.SimilarArtists(ctx, "artist")
	if !errors.Is(err, similarity.ErrProviderDisabled) {
		t.Fatalf("expected ErrProviderDisabled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no further requests after disable, got %d", calls)
	}
}

func TestProviderKeepsRunningAfterHTTPError(t *testing.T) {
	calls := 0
	provider := newTestProvider(doerFunc(func(_ *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return &http.Response{StatusCode: http.StatusServiceUnavailable, Body: io.NopCloser(strings.NewReader(""))}, nil
		}
		return xmlResponse(`<lfm status="ok"><similarartists></similarartists></lfm>`), nil
	}))
	ctx := context.Background()

	if _, err := provider.SimilarArtists(ctx, "artist"); !errors.Is(err, similarity.ErrExternalLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if provider.Disabled() {
		t.Fatal("transient failure must not disable the provider")
	}
	if _, err := provider.SimilarArtists(ctx, "artist"); err != nil {
		t.Fatalf("expected recovery on next call, got %v", err)
	}
}
