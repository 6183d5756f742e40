package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to the classroom service's gradebook API. With a token URL
// configured it authenticates via the OAuth2 client-credentials grant;
// without one it speaks plain HTTP, which is what local setups use.
type Client struct {
	base    string
	http    *http.Client
	retries int
	backoff time.Duration
}

type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

func NewClient(cfg Config) *Client {
	h := &http.Client{}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		h = cc.Client(context.Background())
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	} else {
		h.Timeout = 15 * time.Second
	}
	return &Client{base: cfg.BaseURL, http: h, retries: 3, backoff: 2 * time.Second}
}

func (c *Client) ListAssignments(ctx context.Context, resourceID string) ([]Assignment, error) {
	u, err := url.Parse(c.base + "/assignments")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("resource_id", resourceID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("list assignments: %s", res.Status)
	}
	var items []Assignment
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) CreateAssignment(ctx context.Context, cr CreateAssignmentReq) (Assignment, error) {
	body, err := json.Marshal(cr)
	if err != nil {
		return Assignment{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/assignments", bytes.NewReader(body))
	if err != nil {
		return Assignment{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return Assignment{}, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return Assignment{}, fmt.Errorf("create assignment: %s", res.Status)
	}
	var a Assignment
	if err := json.NewDecoder(res.Body).Decode(&a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// PostScore retries transient failures with a linearly growing backoff. Score
// posts are idempotent upstream (latest timestamp wins), so a retried
// duplicate is harmless.
func (c *Client) PostScore(ctx context.Context, assignmentID string, s Score) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	target := c.base + "/assignments/" + url.PathEscape(assignmentID) + "/scores"

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		res, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		res.Body.Close()
		if res.StatusCode/100 == 2 {
			return nil
		}
		lastErr = fmt.Errorf("post score: %s", res.Status)
	}
	return fmt.Errorf("post score to %s: %w", assignmentID, lastErr)
}
