package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/codebuilder/internal/config"
	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
	"github.com/ariel-frischer/codebuilder/internal/health"
)

func TestRunDoctor(t *testing.T) {
	t.Parallel()

	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: "AKID", Source: "EnvConfigCredentials"}, nil
	})
	envPath := filepath.Join(t.TempDir(), "env.yml")
	require.NoError(t, os.WriteFile(envPath, []byte("CI_COMMIT: main\n"), 0o644))

	tests := map[string]struct {
		cfg     *config.Configuration
		wantOut []string
		wantErr bool
	}{
		"ready": {
			cfg:     &config.Configuration{Region: "us-west-2", Account: "210987654321", StateMachineName: "sm"},
			wantOut: []string{"✓ Configuration", "✓ Env file", "○ Git repository", "✓ AWS credentials: resolved from EnvConfigCredentials"},
		},
		"placeholder account": {
			cfg:     &config.Configuration{Region: "us-west-2", Account: config.PlaceholderAccount, StateMachineName: "sm"},
			wantOut: []string{"✗ Configuration"},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			err := runDoctor(context.Background(), &out, health.Options{
				Config:      tc.cfg,
				EnvFile:     envPath,
				RepoPath:    t.TempDir(),
				Credentials: creds,
			})
			for _, want := range tc.wantOut {
				assert.Contains(t, out.String(), want)
			}
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, ExitConfiguration, ExitCode(err))
				cliErr := cberrors.AsCLIError(err)
				require.NotNil(t, cliErr)
				assert.Equal(t, cberrors.Prerequisite, cliErr.Category)
				return
			}
			assert.NoError(t, err)
		})
	}
}
