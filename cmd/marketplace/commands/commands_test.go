package commands

import (
	"bytes"
	"strings"
	"testing"

	"marketplace-service/pkg/config"
	"marketplace-service/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "cli-test-key")
	t.Setenv("STORAGE_DRIVER", "memory")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--identity", "vendor-7", "--email", "v7@example.com"})
	require.NoError(t, rootCmd.Execute())

	claims, err := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "cli-test-key", ExpirationHours: 1}).
		ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "vendor-7", claims.Identity())
	assert.Equal(t, "v7@example.com", claims.Email)
}

func TestMigrateRefusesMemoryStore(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")

	rootCmd.SetArgs([]string{"migrate"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER=postgres")
}

func TestInvalidConfigurationFailsBeforeRunning(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "s3")

	rootCmd.SetArgs([]string{"token", "--identity", "x"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
}
