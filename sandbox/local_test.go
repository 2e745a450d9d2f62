package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_RunCommand(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	res, err := l.RunCommand(context.Background(), `echo "hello world"`, ExecOptions{})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "hello world\n", res.Stdout)
}

func TestLocal_RunCommand_NonZeroExit(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	res, err := l.RunCommand(context.Background(), "false", ExecOptions{})
	require.NoError(t, err, "non-zero exit is an outcome, not an error")
	assert.False(t, res.OK())
	assert.NotEqual(t, 0, res.ExitCode)
}

func TestLocal_RunCommand_Timeout(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.RunCommand(context.Background(), "sleep 5", ExecOptions{Timeout: 50 * time.Millisecond})
	assert.Error(t, err)
}

func TestLocal_Files(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.WriteFile(ctx, "nested/dir/file.txt", []byte("content")))

	data, err := l.ReadFile(ctx, "nested/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	// escapes above the root are rejected
	_, err = l.ReadFile(ctx, "../outside.txt")
	assert.Error(t, err)
}
