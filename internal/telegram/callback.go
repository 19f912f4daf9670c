package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	cbStartQuiz  = "start_quiz"
	cbMenu       = "back_to_menu"
	cbHelp       = "info"
	cbExit       = "exit_quiz"
	cbRestart    = "restart"
	cbNoop       = "noop"
	cbCategory   = "cat"
	cbDifficulty = "dif"
	cbAmount     = "amt"
	cbAnswer     = "ans"
	cbNext       = "next"

	callbackSeparator = "|"
)

var errBadCallback = errors.New("malformed callback data")

type callback struct {
	kind      string
	value     string
	sessionID string
	index     int
	option    int
}

func categoryData(id string) string { return cbCategory + callbackSeparator + id }

func difficultyData(d string) string { return cbDifficulty + callbackSeparator + d }

func amountData(n int) string { return fmt.Sprintf("%s|%d", cbAmount, n) }

func answerData(sessionID string, index, option int) string {
	return fmt.Sprintf("%s|%s|%d|%d", cbAnswer, sessionID, index, option)
}

func nextData(sessionID string, index int) string {
	return fmt.Sprintf("%s|%s|%d", cbNext, sessionID, index)
}

func parseCallback(data string) (callback, error) {
	parts := strings.Split(data, callbackSeparator)
	cb := callback{kind: parts[0]}

	switch cb.kind {
	case cbStartQuiz, cbMenu, cbHelp, cbExit, cbRestart, cbNoop:
		if len(parts) != 1 {
			return callback{}, errors.Wrapf(errBadCallback, "%q", data)
		}
	case cbCategory, cbDifficulty:
		if len(parts) != 2 {
			return callback{}, errors.Wrapf(errBadCallback, "%q", data)
		}
		cb.value = parts[1]
	case cbAmount:
		if len(parts) != 2 {
			return callback{}, errors.Wrapf(errBadCallback, "%q", data)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return callback{}, errors.Wrapf(errBadCallback, "%q: %v", data, err)
		}
		cb.option = n
	case cbAnswer, cbNext:
		want := 3
		if cb.kind == cbAnswer {
			want = 4
		}
		if len(parts) != want {
			return callback{}, errors.Wrapf(errBadCallback, "%q", data)
		}
		cb.sessionID = parts[1]
		var err error
		if cb.index, err = strconv.Atoi(parts[2]); err != nil {
			return callback{}, errors.Wrapf(errBadCallback, "%q: %v", data, err)
		}
		if cb.kind == cbAnswer {
			if cb.option, err = strconv.Atoi(parts[3]); err != nil {
				return callback{}, errors.Wrapf(errBadCallback, "%q: %v", data, err)
			}
		}
	default:
		return callback{}, errors.Wrapf(errBadCallback, "unknown kind %q", cb.kind)
	}

	return cb, nil
}
