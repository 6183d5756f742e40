package judge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// Result is what the external judge knows about one student's work on one
// problem: correctness checks and a style score in percent.
type Result struct {
	ChecksPassed int
	ChecksRun    int
	StyleScore   int
}

// Client fetches judge results over HTTP. Responses from different judge
// versions shuffle field names around, so values are plucked leniently
// instead of decoded into a fixed struct.
type Client struct {
	base    string
	http    *http.Client
	retries int
	backoff time.Duration
}

func New(base string) *Client {
	return &Client{
		base:    base,
		http:    &http.Client{Timeout: 15 * time.Second},
		retries: 3,
		backoff: 2 * time.Second,
	}
}

// Results fetches the latest judge numbers for a problem slug and username.
// Transient failures retry with linear backoff; after the last attempt the
// error is returned for the caller to treat as "no contribution".
func (c *Client) Results(ctx context.Context, slug, username string) (Result, error) {
	url := fmt.Sprintf("%s/results/%s/%s", c.base, slug, username)
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
		res, err := c.fetch(ctx, url)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return Result{}, fmt.Errorf("judge %s/%s: %w", slug, username, lastErr)
}

func (c *Client) fetch(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}
	return Parse(body), nil
}

// Parse plucks the judge numbers out of a response body, tolerating the field
// layouts the judge has used over the years.
func Parse(body []byte) Result {
	doc := gjson.ParseBytes(body)
	res := Result{
		ChecksPassed: firstInt(doc, "checks_passed", "checks.passed", "check50.passed"),
		ChecksRun:    firstInt(doc, "checks_run", "checks.run", "check50.run"),
	}
	style := first(doc, "style_score", "style50.score", "style50")
	if style.Exists() {
		score := style.Float()
		if score <= 1 {
			score *= 100
		}
		res.StyleScore = int(score + 0.5)
	}
	return res
}

func first(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := doc.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func firstInt(doc gjson.Result, paths ...string) int {
	return int(first(doc, paths...).Int())
}
