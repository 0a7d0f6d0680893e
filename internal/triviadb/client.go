// Package triviadb is an HTTP client for the Open Trivia DB question bank.
package triviadb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trivia-quiz-service/internal/domain"
)

// DefaultBaseURL is the public Open Trivia DB endpoint.
const DefaultBaseURL = "https://opentdb.com"

// Remote response codes, per the service's documented contract.
const (
	codeSuccess          = 0
	codeNoResults        = 1
	codeInvalidParameter = 2
	codeTokenNotFound    = 3
	codeTokenEmpty       = 4
	codeRateLimited      = 5
)

// Client talks to the remote question bank. It performs one outbound request
// per call and classifies the response; it never mutates tokens itself.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a Client for baseURL. An empty baseURL selects the public
// service; a zero timeout defaults to 15 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type questionsResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []domain.Question `json:"results"`
}

type tokenResponse struct {
	ResponseCode int    `json:"response_code"`
	Token        string `json:"token"`
}

type categoriesResponse struct {
	TriviaCategories []domain.Category `json:"trivia_categories"`
}

// FetchQuestions requests a question set matching criteria. Unset criteria
// fields and an empty token are omitted from the query rather than sent
// empty. Network or payload failures come back as a transport outcome,
// distinct from every remote response code.
func (c *Client) FetchQuestions(ctx context.Context, criteria domain.Criteria, token string) domain.FetchOutcome {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(criteria.Amount))
	if token != "" {
		query.Set("token", token)
	}
	if criteria.Category != "" {
		query.Set("category", criteria.Category)
	}
	if criteria.Difficulty != "" {
		query.Set("difficulty", string(criteria.Difficulty))
	}
	if criteria.Type != "" {
		query.Set("type", string(criteria.Type))
	}

	var payload questionsResponse
	if err := c.getJSON(ctx, "/api.php?"+query.Encode(), &payload); err != nil {
		return domain.FetchOutcome{Status: domain.FetchTransportError, Err: err}
	}
	return classify(payload)
}

func classify(payload questionsResponse) domain.FetchOutcome {
	switch payload.ResponseCode {
	case codeSuccess:
		if len(payload.Results) == 0 {
			// The service occasionally reports success with an empty set;
			// callers treat that the same as "no results".
			return domain.FetchOutcome{Status: domain.FetchNoResults}
		}
		return domain.FetchOutcome{Status: domain.FetchReady, Questions: payload.Results}
	case codeNoResults:
		return domain.FetchOutcome{Status: domain.FetchNoResults, Code: payload.ResponseCode}
	case codeInvalidParameter:
		return domain.FetchOutcome{Status: domain.FetchInvalidParameters, Code: payload.ResponseCode}
	case codeTokenNotFound:
		return domain.FetchOutcome{Status: domain.FetchTokenInvalid, Code: payload.ResponseCode}
	case codeTokenEmpty:
		return domain.FetchOutcome{Status: domain.FetchTokenExhausted, Code: payload.ResponseCode}
	case codeRateLimited:
		return domain.FetchOutcome{Status: domain.FetchRateLimited, Code: payload.ResponseCode}
	default:
		return domain.FetchOutcome{Status: domain.FetchUnknownError, Code: payload.ResponseCode}
	}
}

// RequestToken obtains a fresh session token.
func (c *Client) RequestToken(ctx context.Context) (string, error) {
	var payload tokenResponse
	if err := c.getJSON(ctx, "/api_token.php?command=request", &payload); err != nil {
		return "", err
	}
	if payload.ResponseCode != codeSuccess || payload.Token == "" {
		return "", fmt.Errorf("token request: response code %d", payload.ResponseCode)
	}
	return payload.Token, nil
}

// ResetToken invalidates token on the remote side.
func (c *Client) ResetToken(ctx context.Context, token string) error {
	query := url.Values{}
	query.Set("command", "reset")
	query.Set("token", token)

	var payload tokenResponse
	if err := c.getJSON(ctx, "/api_token.php?"+query.Encode(), &payload); err != nil {
		return err
	}
	if payload.ResponseCode != codeSuccess {
		return fmt.Errorf("token reset: response code %d", payload.ResponseCode)
	}
	return nil
}

// ListCategories fetches the remote category list.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var payload categoriesResponse
	if err := c.getJSON(ctx, "/api_category.php", &payload); err != nil {
		return nil, err
	}
	return payload.TriviaCategories, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	target := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("request %s: status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	log.Printf("triviadb: GET %s in %v", path, time.Since(start))
	return nil
}
