package opentdb

import (
	"math/rand"
	"sync"
	"time"

	"github.com/imroc/req/v3"
	"github.com/pkg/errors"
)

// Public API.

const (
	DefaultBaseURL = "https://opentdb.com"
	DefaultTimeout = 10 * time.Second
)

type ResponseCode int

const (
	CodeSuccess          ResponseCode = 0
	CodeNoResults        ResponseCode = 1
	CodeInvalidParameter ResponseCode = 2
	CodeTokenNotFound    ResponseCode = 3
	CodeTokenEmpty       ResponseCode = 4
	CodeRateLimit        ResponseCode = 5
)

var (
	ErrRequestFailed    = errors.New("opentdb request failed")
	ErrUnexpectedStatus = errors.New("unexpected http status")
	ErrDecodeFailed     = errors.New("cannot decode opentdb response")
)

// Client talks to the Open Trivia Database. It holds the session token that keeps a
// process from being served the same question twice, and is safe for concurrent use.
type Client struct {
	http *req.Client

	mu    sync.Mutex
	token string

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Private API.

const (
	tokenPath      = "/api_token.php"
	categoriesPath = "/api_category.php"
	questionsPath  = "/api.php"

	// A token exhausted for a filter combination is reset and the fetch repeated once.
	maxTokenResets = 1

	userAgent = "GoTriviaBot/1.0"
)

type (
	tokenResponse struct {
		Token           string       `json:"token"`
		ResponseMessage string       `json:"response_message"`
		ResponseCode    ResponseCode `json:"response_code"`
	}

	categoriesResponse struct {
		TriviaCategories []struct {
			Name string `json:"name"`
			ID   int    `json:"id"`
		} `json:"trivia_categories"`
	}

	questionsResponse struct {
		Results      []rawQuestion `json:"results"`
		ResponseCode ResponseCode  `json:"response_code"`
	}

	rawQuestion struct {
		Type             string   `json:"type"`
		Difficulty       string   `json:"difficulty"`
		Category         string   `json:"category"`
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	}
)
