package opentdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PoluyanbIch/GoTriviaBot/internal/service"
)

const questionsJSON = `{"response_code":0,"results":[
{"type":"multiple","difficulty":"easy","category":"General%20Knowledge","question":"What%20is%20the%20capital%20of%20France%3F","correct_answer":"Paris","incorrect_answers":["Melbourne","Warsaw","Guadalajara"]},
{"type":"multiple","difficulty":"hard","category":"Science%3A%20Computers","question":"Who%20wrote%20%22Go%22%20%26%20friends%3F","correct_answer":"Rob%20Pike","incorrect_answers":["Ada%20Lovelace","Alan%20Turing","Grace%20Hopper"]}]}`

// helperServer fakes OpenTDB. Without a token handler, token requests get no token.
func helperServer(t *testing.T, handlers map[string]http.HandlerFunc) *Client {
	t.Helper()

	if _, ok := handlers[tokenPath]; !ok {
		handlers[tokenPath] = reply(`{"response_code":0}`)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request: %v", r.URL)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, time.Second)
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	}
}

func TestAcquireTokenIsIdempotent(t *testing.T) {
	var requests atomic.Int32
	c := helperServer(t, map[string]http.HandlerFunc{
		tokenPath: func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			assert.Equal(t, "request", r.URL.Query().Get("command"))
			fmt.Fprint(w, `{"response_code":0,"response_message":"Token Generated Successfully!","token":"abc123"}`)
		},
	})

	for range 3 {
		token, err := c.AcquireToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "abc123", token)
	}
	require.Equal(t, int32(1), requests.Load())
	require.Equal(t, "abc123", c.Token())
}

func TestAcquireTokenFailsOpen(t *testing.T) {
	c := helperServer(t, map[string]http.HandlerFunc{
		tokenPath: reply(`{"response_code":0}`),
	})

	token, err := c.AcquireToken(context.Background())
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestAcquireTokenRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewClient(srv.URL, time.Second).AcquireToken(context.Background())
	require.ErrorIs(t, err, ErrRequestFailed)
}

func TestListCategoriesPrefixesAny(t *testing.T) {
	c := helperServer(t, map[string]http.HandlerFunc{
		categoriesPath: reply(`{"trivia_categories":[{"id":9,"name":"General Knowledge"},{"id":18,"name":"Science: Computers"},{"id":99,"name":"100%20Trivia"}]}`),
	})

	categories, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []service.Category{
		{ID: "", Name: "Any"},
		{ID: "9", Name: "General Knowledge"},
		{ID: "18", Name: "Science: Computers"},
		{ID: "99", Name: "100%20Trivia"},
	}, categories)
}

func TestFetchQuestions(t *testing.T) {
	var (
		mu    sync.Mutex
		query url.Values
	)
	c := helperServer(t, map[string]http.HandlerFunc{
		tokenPath: reply(`{"response_code":0,"token":"tok"}`),
		questionsPath: func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			query = r.URL.Query()
			mu.Unlock()
			fmt.Fprint(w, questionsJSON)
		},
	})
	_, err := c.AcquireToken(context.Background())
	require.NoError(t, err)

	questions, err := c.FetchQuestions(context.Background(), service.Params{Amount: 5, Category: "18", Difficulty: service.DifficultyHard})
	require.NoError(t, err)
	require.Len(t, questions, 2)

	mu.Lock()
	require.Equal(t, "5", query.Get("amount"))
	require.Equal(t, "multiple", query.Get("type"))
	require.Equal(t, "url3986", query.Get("encode"))
	require.Equal(t, "18", query.Get("category"))
	require.Equal(t, "hard", query.Get("difficulty"))
	require.Equal(t, "tok", query.Get("token"))
	mu.Unlock()

	q := questions[1]
	require.Equal(t, "Science: Computers", q.Category)
	require.Equal(t, service.DifficultyHard, q.Difficulty)
	require.Equal(t, `Who wrote "Go" & friends?`, q.Question)
	require.Equal(t, "Rob Pike", q.Correct)
	require.ElementsMatch(t, []string{"Rob Pike", "Ada Lovelace", "Alan Turing", "Grace Hopper"}, q.Options)
	require.GreaterOrEqual(t, q.CorrectIndex(), 0)

	require.Equal(t, "What is the capital of France?", questions[0].Question)
	require.Equal(t, service.DifficultyEasy, questions[0].Difficulty)
}

func TestFetchQuestionsOmitsEmptyFilters(t *testing.T) {
	c := helperServer(t, map[string]http.HandlerFunc{
		questionsPath: func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			for _, key := range []string{"category", "difficulty", "token"} {
				_, present := q[key]
				assert.False(t, present, key)
			}
			fmt.Fprint(w, questionsJSON)
		},
	})

	questions, err := c.FetchQuestions(context.Background(), service.Params{Amount: 10})
	require.NoError(t, err)
	require.Len(t, questions, 2)
}

func TestFetchQuestionsResetsExhaustedToken(t *testing.T) {
	var calls, resets atomic.Int32
	c := helperServer(t, map[string]http.HandlerFunc{
		tokenPath: func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("command") {
			case "request":
				fmt.Fprint(w, `{"response_code":0,"token":"tok"}`)
			case "reset":
				resets.Add(1)
				assert.Equal(t, "tok", r.URL.Query().Get("token"))
				fmt.Fprint(w, `{"response_code":0,"token":"tok"}`)
			}
		},
		questionsPath: func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				fmt.Fprint(w, `{"response_code":4,"results":[]}`)
				return
			}
			fmt.Fprint(w, questionsJSON)
		},
	})
	_, err := c.AcquireToken(context.Background())
	require.NoError(t, err)

	questions, err := c.FetchQuestions(context.Background(), service.Params{Amount: 5})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, int32(1), resets.Load())
}

func TestFetchQuestionsGivesUpAfterSecondExhaustion(t *testing.T) {
	var calls, resets atomic.Int32
	c := helperServer(t, map[string]http.HandlerFunc{
		tokenPath: func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("command") == "reset" {
				resets.Add(1)
			}
			fmt.Fprint(w, `{"response_code":0}`)
		},
		questionsPath: func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			fmt.Fprint(w, `{"response_code":4,"results":[]}`)
		},
	})

	questions, err := c.FetchQuestions(context.Background(), service.Params{Amount: 5})
	require.NoError(t, err)
	require.Empty(t, questions)
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, int32(1), resets.Load())
}

func TestFetchQuestionsRefused(t *testing.T) {
	for _, code := range []ResponseCode{CodeNoResults, CodeInvalidParameter, CodeTokenNotFound, CodeRateLimit} {
		t.Run(code.String(), func(t *testing.T) {
			var calls atomic.Int32
			c := helperServer(t, map[string]http.HandlerFunc{
				questionsPath: func(w http.ResponseWriter, _ *http.Request) {
					calls.Add(1)
					fmt.Fprintf(w, `{"response_code":%d,"results":[]}`, code)
				},
			})

			questions, err := c.FetchQuestions(context.Background(), service.Params{Amount: 5})
			require.NoError(t, err)
			require.Empty(t, questions)
			require.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestFetchQuestionsReplacesUnknownToken(t *testing.T) {
	var (
		mu     sync.Mutex
		tokens []string
	)
	c := helperServer(t, map[string]http.HandlerFunc{
		tokenPath: func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "request", r.URL.Query().Get("command"))
			fmt.Fprint(w, `{"response_code":0,"token":"fresh"}`)
		},
		questionsPath: func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")
			mu.Lock()
			tokens = append(tokens, token)
			mu.Unlock()
			if token == "expired" {
				fmt.Fprint(w, `{"response_code":3,"results":[]}`)
				return
			}
			fmt.Fprint(w, questionsJSON)
		},
	})
	c.token = "expired"

	questions, err := c.FetchQuestions(context.Background(), service.Params{Amount: 5})
	require.NoError(t, err)
	require.Empty(t, questions)
	require.Empty(t, c.Token())

	questions, err = c.FetchQuestions(context.Background(), service.Params{Amount: 5})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, "fresh", c.Token())

	mu.Lock()
	require.Equal(t, []string{"expired", "fresh"}, tokens)
	mu.Unlock()
}

func TestFetchQuestionsAcquiresToken(t *testing.T) {
	var requests atomic.Int32
	c := helperServer(t, map[string]http.HandlerFunc{
		tokenPath: func(w http.ResponseWriter, _ *http.Request) {
			requests.Add(1)
			fmt.Fprint(w, `{"response_code":0,"token":"tok"}`)
		},
		questionsPath: func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tok", r.URL.Query().Get("token"))
			fmt.Fprint(w, questionsJSON)
		},
	})

	for range 2 {
		questions, err := c.FetchQuestions(context.Background(), service.Params{Amount: 5})
		require.NoError(t, err)
		require.Len(t, questions, 2)
	}
	require.Equal(t, int32(1), requests.Load())
}

func TestFetchQuestionsFailures(t *testing.T) {
	t.Run("Status", func(t *testing.T) {
		c := helperServer(t, map[string]http.HandlerFunc{
			questionsPath: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		})
		_, err := c.FetchQuestions(context.Background(), service.Params{Amount: 5})
		require.ErrorIs(t, err, ErrUnexpectedStatus)
	})
	t.Run("Body", func(t *testing.T) {
		c := helperServer(t, map[string]http.HandlerFunc{
			questionsPath: reply(`{"response_code":`),
		})
		_, err := c.FetchQuestions(context.Background(), service.Params{Amount: 5})
		require.ErrorIs(t, err, ErrDecodeFailed)
	})
	t.Run("PercentEncoding", func(t *testing.T) {
		c := helperServer(t, map[string]http.HandlerFunc{
			questionsPath: reply(`{"response_code":0,"results":[{"type":"multiple","difficulty":"easy","category":"x","question":"100%","correct_answer":"a","incorrect_answers":["b","c","d"]}]}`),
		})
		_, err := c.FetchQuestions(context.Background(), service.Params{Amount: 5})
		require.ErrorIs(t, err, ErrDecodeFailed)
	})
	t.Run("Cancelled", func(t *testing.T) {
		c := helperServer(t, map[string]http.HandlerFunc{
			questionsPath: reply(questionsJSON),
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.FetchQuestions(ctx, service.Params{Amount: 5})
		require.ErrorIs(t, err, ErrRequestFailed)
	})
}
