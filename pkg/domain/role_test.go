package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"certverify/pkg/domain"
	dErrors "certverify/pkg/domain-errors"
)

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"university", "student", "employer", "admin"} {
		role, err := domain.ParseRole(raw)
		require.NoError(t, err)
		require.Equal(t, domain.Role(raw), role)
	}

	_, err := domain.ParseRole("superuser")
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = domain.ParseRole("")
	require.Error(t, err)
}
