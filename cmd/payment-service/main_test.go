package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunReturnsConfigErrors(t *testing.T) {
	t.Setenv("PAYMENT_LIMIT_CENTS", "0")

	require.ErrorContains(t, run(), "PAYMENT_LIMIT_CENTS")
}
