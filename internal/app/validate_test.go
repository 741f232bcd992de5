package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func fixturePath(t *testing.T, name string) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)
	return filepath.Join(root, "fixtures", name)
}

func TestValidateApp(t *testing.T) {
	service := NewService()
	result, err := service.Validate(t.Context(), ValidateRequest{PlatformPath: fixturePath(t, "platform.yaml")})
	require.NoError(t, err)
	if diff := cmp.Diff(ValidateResult{PlatformName: "acme-platform", Members: 1, Enforced: 1}, result); diff != "" {
		t.Fatalf("unexpected validation result (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsInvalidPlatforms(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errbuilder.ErrCode
	}{
		{
			name:    "duplicate member",
			content: "base: com.acme:platform:pom:1.0\nmembers:\n  - name: a\n    manifest: com.acme:a:pom:1.0\n  - name: a\n    manifest: com.acme:b:pom:1.0\n",
			code:    errbuilder.CodeAlreadyExists,
		},
		{
			name:    "member without name",
			content: "base: com.acme:platform:pom:1.0\nmembers:\n  - manifest: com.acme:a:pom:1.0\n",
			code:    errbuilder.CodeInvalidArgument,
		},
		{
			name:    "enforced and excluded",
			content: "base: com.acme:platform:pom:1.0\noverrides:\n  enforced: [com.acme:x:1.0]\n  excluded: [com.acme:x]\n",
			code:    errbuilder.CodeInvalidArgument,
		},
		{
			name:    "bad base",
			content: "base: not-a-coordinate\n",
			code:    errbuilder.CodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "platform.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := NewService().Validate(t.Context(), ValidateRequest{PlatformPath: path})
			require.Error(t, err)
			require.Equal(t, tt.code, errbuilder.CodeOf(err))
		})
	}

	_, err := NewService().Validate(t.Context(), ValidateRequest{})
	require.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
