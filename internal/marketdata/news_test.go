package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewsFeedFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "NEWS_SENTIMENT" {
			t.Errorf("unexpected function %q", got)
		}
		fmt.Fprint(w, `{"feed":[
			{"title":"Gold rallies","url":"https://example.com/a","time_published":"20260831T090000","source":"Wire","summary":"Gold up."},
			{"title":"Dollar slips","url":"https://example.com/b","time_published":"20260831T084500","source":"Wire","summary":"USD down."}
		]}`)
	}))
	defer server.Close()

	f := newNewsFetcher("test-key")
	f.baseURL = server.URL

	items, err := f.fetchFeed(context.Background(), "XAUUSD", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Gold rallies" || items[0].Source != "Wire" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[0].Published != "20260831T090000" {
		t.Errorf("unexpected published stamp: %q", items[0].Published)
	}
}

func TestNewsFeedLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"feed":[
			{"title":"a"},{"title":"b"},{"title":"c"}
		]}`)
	}))
	defer server.Close()

	f := newNewsFetcher("test-key")
	f.baseURL = server.URL

	items, err := f.fetchFeed(context.Background(), "XAUUSD", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("expected limit of 2 items, got %d", len(items))
	}
}

func TestNewsFeedEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"note":"rate limited"}`)
	}))
	defer server.Close()

	f := newNewsFetcher("test-key")
	f.baseURL = server.URL

	if _, err := f.fetchFeed(context.Background(), "XAUUSD", 5); err == nil {
		t.Error("expected error for empty feed")
	}
}
