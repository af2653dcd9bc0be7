package tests

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ExternalDependenciesSuite loads provider credentials for the
// integration suites. Each suite skips itself when its credential is
// absent, so a bare `go test ./tests` passes without any keys.
type ExternalDependenciesSuite struct {
	suite.Suite
	envFile string
}

func (s *ExternalDependenciesSuite) SetupSuite() {
	envFromVar := strings.TrimSpace(os.Getenv("VOICEPIPE_ENV_FILE"))
	envFile := envFromVar
	if envFile == "" {
		homeDir, err := os.UserHomeDir()
		require.NoError(s.T(), err)
		envFile = filepath.Join(homeDir, ".env")
	}

	s.envFile = envFile

	_, err := os.Stat(envFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && envFromVar == "" {
			// Defaulted to $HOME/.env and it doesn't exist; rely on the
			// process environment alone.
			return
		}
		require.NoError(s.T(), err)
		return
	}

	err = godotenv.Overload(envFile)
	require.NoError(s.T(), err)
}

func (s *ExternalDependenciesSuite) EnvFile() string {
	return s.envFile
}
