package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIssueThenVerify(t *testing.T) {
	token, err := run(t, "issue", "--secret", "s3cret", "--subject", "buyer-1", "--email", "ada@example.com")
	require.NoError(t, err)
	token = strings.TrimSpace(token)
	require.NotEmpty(t, token)

	out, err := run(t, "verify", "--secret", "s3cret", token)
	require.NoError(t, err)
	assert.Contains(t, out, "subject: buyer-1")
	assert.Contains(t, out, "email:   ada@example.com")
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := run(t, "issue", "--secret", "s3cret", "--subject", "buyer-1")
	require.NoError(t, err)

	_, err = run(t, "verify", "--secret", "other", strings.TrimSpace(token))
	require.Error(t, err)
}

func TestIssueRequiresSecretAndSubject(t *testing.T) {
	t.Setenv("AUTH_TOKEN_SECRET", "")

	_, err := run(t, "issue", "--subject", "buyer-1")
	require.Error(t, err)

	_, err = run(t, "issue", "--secret", "s3cret")
	require.Error(t, err)
}
