package judge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseFieldLayouts(t *testing.T) {
	cases := []struct {
		body string
		want Result
	}{
		{`{"checks_passed": 9, "checks_run": 10, "style_score": 85}`, Result{9, 10, 85}},
		{`{"checks": {"passed": 4, "run": 5}, "style50": {"score": 0.9}}`, Result{4, 5, 90}},
		{`{"check50": {"passed": 3, "run": 3}, "style50": 1.0}`, Result{3, 3, 100}},
		{`{}`, Result{}},
	}
	for _, tc := range cases {
		if got := Parse([]byte(tc.body)); got != tc.want {
			t.Errorf("Parse(%s) = %+v, want %+v", tc.body, got, tc.want)
		}
	}
}

func TestResultsRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"checks_passed": 7, "checks_run": 8, "style_score": 75}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.backoff = time.Millisecond
	res, err := c.Results(context.Background(), "mario", "octocat")
	if err != nil {
		t.Fatal(err)
	}
	if res.ChecksPassed != 7 || res.StyleScore != 75 {
		t.Fatalf("res = %+v", res)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d", attempts)
	}
}

func TestResultsGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.backoff = time.Millisecond
	if _, err := c.Results(context.Background(), "mario", "octocat"); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
}
