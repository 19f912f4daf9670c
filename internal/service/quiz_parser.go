package service

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseParams parses "/quiz" command arguments: an optional question count and an
// optional difficulty, in any order. The amount is clamped; an empty input yields the default.
func ParseParams(args string, defaultAmount int) (Params, error) {
	params := Params{Amount: ClampAmount(defaultAmount)}

	seenAmount, seenDifficulty := false, false
	for _, field := range strings.Fields(strings.ToLower(args)) {
		if n, err := strconv.Atoi(field); err == nil {
			if seenAmount {
				return Params{}, errors.Wrapf(ErrInvalidParams, "amount given twice: %q", args)
			}
			params.Amount = ClampAmount(n)
			seenAmount = true
			continue
		}

		difficulty, err := ParseDifficulty(field)
		if err != nil {
			return Params{}, err
		}
		if seenDifficulty {
			return Params{}, errors.Wrapf(ErrInvalidParams, "difficulty given twice: %q", args)
		}
		params.Difficulty = difficulty
		seenDifficulty = true
	}

	return params, nil
}
