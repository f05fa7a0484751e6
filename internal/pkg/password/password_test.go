package password_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"snapfeed/internal/pkg/password"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := password.Hash("secret")
	require.NoError(t, err)
	require.NotEqual(t, "secret", hash)

	require.NoError(t, password.Compare(hash, "secret"))
	require.Error(t, password.Compare(hash, "wrong"))
}
