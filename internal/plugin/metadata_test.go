package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlugin(t *testing.T, root, dirName, metadata string, entryFiles ...string) string {
	t.Helper()
	dir := filepath.Join(root, dirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFilename), []byte(metadata), 0o644))
	for _, f := range entryFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("print('hi')\n"), 0o644))
	}
	return dir
}

func TestLoadMetadata(t *testing.T) {
	root := t.TempDir()
	dir := writePlugin(t, root, "calculator", `
id: com.example.calculator
name: Calculator
entry: main.py
runtime: python
version: 1.0.0
`, "main.py")

	meta, err := LoadMetadata(dir)
	require.NoError(t, err)

	assert.Equal(t, "com.example.calculator", meta.ID)
	assert.Equal(t, "Calculator", meta.Name)
	assert.Equal(t, RuntimePython, meta.Runtime)
	assert.Equal(t, dir, meta.Directory)
	assert.Equal(t, filepath.Join(dir, "main.py"), meta.Entry)
}

func TestLoadMetadataErrors(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name     string
		dirName  string
		metadata string
		entry    []string
		wantErr  string
	}{
		{
			name:     "missing id",
			dirName:  "no-id",
			metadata: "name: X\nentry: main.py\nruntime: python\n",
			entry:    []string{"main.py"},
			wantErr:  "id is required",
		},
		{
			name:     "missing name",
			dirName:  "no-name",
			metadata: "id: x\nentry: main.py\nruntime: python\n",
			entry:    []string{"main.py"},
			wantErr:  "name is required",
		},
		{
			name:     "missing entry",
			dirName:  "no-entry",
			metadata: "id: x\nname: X\nruntime: python\n",
			wantErr:  "entry is required",
		},
		{
			name:     "path traversal",
			dirName:  "traversal",
			metadata: "id: x\nname: X\nentry: ../../etc/passwd\nruntime: python\n",
			wantErr:  "path traversal",
		},
		{
			name:     "unsupported runtime",
			dirName:  "bad-runtime",
			metadata: "id: x\nname: X\nentry: main.rb\nruntime: ruby\n",
			entry:    []string{"main.rb"},
			wantErr:  "unsupported runtime",
		},
		{
			name:     "entry does not exist",
			dirName:  "no-file",
			metadata: "id: x\nname: X\nentry: main.py\nruntime: python\n",
			wantErr:  "entry not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writePlugin(t, root, tt.dirName, tt.metadata, tt.entry...)
			_, err := LoadMetadata(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
