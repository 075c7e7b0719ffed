package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID("9b2f7f4e-1111-4222-8333-444455556666"))
	assert.False(t, IsUUID("9b2f7f4e11114222833344445555666"))
	assert.False(t, IsUUID("{9b2f7f4e-1111-4222-8333-444455556666}"))
	assert.False(t, IsUUID("not-a-uuid"))
	assert.False(t, IsUUID(""))
}

func TestQueryInt(t *testing.T) {
	n, err := QueryInt("", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = QueryInt(" 3 ", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = QueryInt("abc", 10)
	assert.Error(t, err)

	_, err = QueryInt("-1", 10)
	assert.Error(t, err)
}
