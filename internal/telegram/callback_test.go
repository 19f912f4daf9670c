package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	const sessionID = "0b9c4b8e-94a6-4b0e-9a51-0d2a5f0fd2b1"

	cb, err := parseCallback(answerData(sessionID, 12, 3))
	require.NoError(t, err)
	require.Equal(t, callback{kind: cbAnswer, sessionID: sessionID, index: 12, option: 3}, cb)
	require.LessOrEqual(t, len(answerData(sessionID, 19, 3)), 64, "telegram limits callback data to 64 bytes")

	cb, err = parseCallback(nextData(sessionID, 4))
	require.NoError(t, err)
	require.Equal(t, callback{kind: cbNext, sessionID: sessionID, index: 4}, cb)

	cb, err = parseCallback(categoryData(""))
	require.NoError(t, err)
	require.Equal(t, callback{kind: cbCategory}, cb)

	cb, err = parseCallback(amountData(15))
	require.NoError(t, err)
	require.Equal(t, 15, cb.option)

	cb, err = parseCallback(cbExit)
	require.NoError(t, err)
	require.Equal(t, cbExit, cb.kind)
}

func TestParseCallbackMalformed(t *testing.T) {
	for _, data := range []string{
		"",
		"quiz_0_1",
		"ans|session|x|1",
		"ans|session|1",
		"next|session|1|2",
		"amt|many",
		"cat",
		"exit_quiz|now",
	} {
		_, err := parseCallback(data)
		require.ErrorIs(t, err, errBadCallback, data)
	}
}
