package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string]string

func (m mapSource) GetSecretOrEnv(ctx context.Context, secretName, envVar string) (string, error) {
	if v, ok := m[secretName]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "UROps API", cfg.App.Name)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "none", cfg.AI.Provider)
	assert.Equal(t, "log", cfg.Email.Provider)
	assert.Equal(t, "0 */15 * * * *", cfg.Jobs.PricingLearnSchedule)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{AI: AIConfig{Provider: "gemini"}}
	src := mapSource{
		"POSTGRES-MAIN-HOST": "db.internal",
		"auth-jwt-secret":    "jwt",
		"gemini-api-key":     "g-key",
		"openai-api-key":     "unused",
	}

	require.NoError(t, applySecrets(context.Background(), src, cfg))

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "jwt", cfg.Auth.JWTSecret)
	assert.Equal(t, "g-key", cfg.AI.APIKey)
}

func TestApplySecrets_RequiresJWTSecret(t *testing.T) {
	err := applySecrets(context.Background(), mapSource{}, &Config{})
	assert.Error(t, err)
}
