package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/navgurukul/windows-rms-server/internal/auth"
)

func TestHashTokenFromStdin(t *testing.T) {
	out := &bytes.Buffer{}
	hashTokenCmd.SetOut(out)
	hashTokenCmd.SetIn(strings.NewReader("my-admin-token\n"))
	tokenGenerate = false

	require.NoError(t, runHashToken(hashTokenCmd, nil))

	line := strings.TrimSpace(out.String())
	require.True(t, strings.HasPrefix(line, "hash: argon2id$"))
	ok, err := auth.VerifyToken("my-admin-token", strings.TrimPrefix(line, "hash: "))
	require.NoError(t, err)
	require.True(t, ok)
}
