package parameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	name, params := Split("qlearn:file=p1.txt, epsilon=0,decay")
	assert.Equal(t, "qlearn", name)
	assert.Equal(t, Params{"file": "p1.txt", "epsilon": "0", "decay": ""}, params)

	name, params = Split("random")
	assert.Equal(t, "random", name)
	assert.Empty(t, params)
}

func TestGetAndPop(t *testing.T) {
	params := NewFromConfigString("alpha=0.5,games=10,decay,name=x,bad=maybe")

	alpha, err := PopParamOr(params, "alpha", 0.2)
	require.NoError(t, err)
	assert.Equal(t, 0.5, alpha)

	games, err := PopParamOr(params, "games", 1)
	require.NoError(t, err)
	assert.Equal(t, 10, games)

	decay, err := PopParamOr(params, "decay", false)
	require.NoError(t, err)
	assert.True(t, decay)

	name, err := GetParamOr(params, "name", "")
	require.NoError(t, err)
	assert.Equal(t, "x", name)

	missing, err := GetParamOr(params, "gamma", 0.95)
	require.NoError(t, err)
	assert.Equal(t, 0.95, missing)

	_, err = GetParamOr(params, "bad", false)
	require.Error(t, err)
	_, err = GetParamOr(params, "name", 1.0)
	require.Error(t, err)

	err = CheckAllUsed(params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "\"bad\", \"name\"")
	delete(params, "bad")
	delete(params, "name")
	assert.NoError(t, CheckAllUsed(params))
}
