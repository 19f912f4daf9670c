package opentdb

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"

	"github.com/PoluyanbIch/GoTriviaBot/internal/service"
)

func (c ResponseCode) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeNoResults:
		return "no results"
	case CodeInvalidParameter:
		return "invalid parameter"
	case CodeTokenNotFound:
		return "token not found"
	case CodeTokenEmpty:
		return "token empty"
	case CodeRateLimit:
		return "rate limit"
	default:
		return fmt.Sprintf("code %d", int(c))
	}
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := req.C().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetUserAgent(userAgent).
		SetCommonHeader("Accept", "application/json").
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)

	return &Client{
		http: httpClient,
		rng:  service.NewRand(),
	}
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.token
}

// AcquireToken requests a session token unless one is already held.
// A response without a token is not an error: fetching then continues without one.
func (c *Client) AcquireToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	var resp tokenResponse
	if err := c.get(ctx, tokenPath, map[string]string{"command": "request"}, &resp); err != nil {
		return "", errors.Wrap(err, "failed to request session token")
	}
	if resp.Token == "" {
		log.Printf("Warning: OpenTDB returned no session token (%v), questions may repeat", resp.ResponseCode)
	}
	c.token = resp.Token

	return c.token, nil
}

// ResetToken makes every question available again for the held token.
func (c *Client) ResetToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var resp tokenResponse
	query := map[string]string{"command": "reset", "token": c.token}
	if err := c.get(ctx, tokenPath, query, &resp); err != nil {
		return errors.Wrapf(err, "failed to reset session token %q", c.token)
	}
	if resp.Token != "" {
		c.token = resp.Token
	}

	return nil
}

// ListCategories returns the categories prefixed with the "Any" entry.
func (c *Client) ListCategories(ctx context.Context) ([]service.Category, error) {
	var resp categoriesResponse
	if err := c.get(ctx, categoriesPath, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}

	categories := make([]service.Category, 0, len(resp.TriviaCategories)+1)
	categories = append(categories, service.AnyCategory)
	// the category endpoint takes no encode parameter, names arrive as plain text
	for _, category := range resp.TriviaCategories {
		categories = append(categories, service.Category{ID: strconv.Itoa(category.ID), Name: category.Name})
	}

	return categories, nil
}

// FetchQuestions loads multiple-choice questions. OpenTDB refusals other than token
// exhaustion yield an empty result; exhaustion resets the token and retries once.
// A token the service no longer knows is dropped, and the next fetch requests a new one.
func (c *Client) FetchQuestions(ctx context.Context, params service.Params) ([]service.QuizQuestion, error) {
	if _, err := c.AcquireToken(ctx); err != nil {
		log.Printf("Error acquiring session token, fetching without one: %v", err)
	}

	for attempt := 0; attempt <= maxTokenResets; attempt++ {
		if attempt > 0 {
			if err := c.ResetToken(ctx); err != nil {
				return nil, err
			}
		}

		token := c.Token()
		resp, err := c.requestQuestions(ctx, params, token)
		if err != nil {
			return nil, err
		}

		switch resp.ResponseCode {
		case CodeSuccess:
			return c.decodeQuestions(resp.Results)
		case CodeTokenEmpty:
			continue
		case CodeTokenNotFound:
			c.dropToken(token)
			log.Printf("OpenTDB no longer knows session token %q, dropped it", token)
			return nil, nil
		default:
			log.Printf("OpenTDB refused questions for %+v: %v", params, resp.ResponseCode)
			return nil, nil
		}
	}

	log.Printf("OpenTDB token still exhausted after %d reset(s) for %+v", maxTokenResets, params)

	return nil, nil
}

// dropToken forgets the held token unless it was already replaced by another one.
func (c *Client) dropToken(stale string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == stale {
		c.token = ""
	}
}

func (c *Client) requestQuestions(ctx context.Context, params service.Params, token string) (*questionsResponse, error) {
	query := map[string]string{
		"amount": strconv.Itoa(params.Amount),
		"type":   "multiple",
		"encode": "url3986",
	}
	if params.Category != "" {
		query["category"] = params.Category
	}
	if params.Difficulty != service.DifficultyAny {
		query["difficulty"] = string(params.Difficulty)
	}
	if token != "" {
		query["token"] = token
	}

	var resp questionsResponse
	if err := c.get(ctx, questionsPath, query, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch questions for %+v", params)
	}

	return &resp, nil
}

func (c *Client) decodeQuestions(results []rawQuestion) ([]service.QuizQuestion, error) {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	questions := make([]service.QuizQuestion, 0, len(results))
	for i := range results {
		q, err := c.decodeQuestion(&results[i])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode question #%d", i+1)
		}
		questions = append(questions, q)
	}

	return questions, nil
}

func (c *Client) decodeQuestion(raw *rawQuestion) (service.QuizQuestion, error) {
	fields := []string{raw.Category, raw.Difficulty, raw.Question, raw.CorrectAnswer}
	fields = append(fields, raw.IncorrectAnswers...)

	decoded := make([]string, len(fields))
	for i, field := range fields {
		value, err := url.PathUnescape(field)
		if err != nil {
			return service.QuizQuestion{}, multierror.Append(ErrDecodeFailed, errors.Wrapf(err, "field %q", field))
		}
		decoded[i] = value
	}

	return service.NewQuizQuestion(c.rng, decoded[0], service.Difficulty(decoded[1]), decoded[2], decoded[3], decoded[4:]), nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, dest any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return multierror.Append(ErrRequestFailed, errors.Wrapf(err, "GET %v", path))
	}
	if !resp.IsSuccessState() {
		return errors.Wrapf(ErrUnexpectedStatus, "GET %v: %v", path, resp.GetStatusCode())
	}

	data, err := resp.ToBytes()
	if err != nil {
		return multierror.Append(ErrRequestFailed, errors.Wrapf(err, "failed to read body of %v", path))
	}
	if err = json.UnmarshalContext(ctx, data, dest); err != nil {
		return multierror.Append(ErrDecodeFailed, errors.Wrapf(err, "failed to unmarshal %v, data: %v", path, string(data)))
	}

	return nil
}
