// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runPipedFunc  func(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	if m.runPipedFunc != nil {
		return m.runPipedFunc(ctx, name, args, stdin, stdout)
	}
	return nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name:    "neither available",
			exec:    &mockExecutor{},
			wantErr: true,
		},
		{
			name: "docker on PATH but info fails",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(tt.exec)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "no container runtime available")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, rt.Name())
		})
	}
}

func TestImageExists(t *testing.T) {
	const image = "photoscan-office:latest"

	docker := newDockerRuntime(&mockExecutor{runnableCmds: map[string]bool{"docker image inspect " + image: true}})
	assert.NoError(t, docker.ImageExists(image))

	podman := newPodmanRuntime(&mockExecutor{runnableCmds: map[string]bool{"podman image exists " + image: true}})
	assert.NoError(t, podman.ImageExists(image))

	missing := newDockerRuntime(&mockExecutor{})
	err := missing.ImageExists(image)
	require.Error(t, err)
	assert.Contains(t, err.Error(), image)
}

func TestRunPassesEnvAndPipes(t *testing.T) {
	var gotArgs []string
	exec := &mockExecutor{
		runPipedFunc: func(_ context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
			gotArgs = args
			data, _ := io.ReadAll(stdin)
			_, _ = stdout.Write([]byte("%PDF-" + string(data)))
			return nil
		},
	}
	rt := newPodmanRuntime(exec)

	var out bytes.Buffer
	err := rt.Run(context.Background(), "office:1", map[string]string{"SOURCE_NAME": "a.docx", "DPI": "150"},
		strings.NewReader("doc"), &out)
	require.NoError(t, err)

	assert.Equal(t, "%PDF-doc", out.String())
	assert.Equal(t, []string{
		"run", "--rm", "-i", "--network", "none",
		"-e", "DPI=150", "-e", "SOURCE_NAME=a.docx",
		"office:1",
	}, gotArgs)
}

func TestRunErrors(t *testing.T) {
	failing := &mockExecutor{
		runPipedFunc: func(context.Context, string, []string, io.Reader, io.Writer) error {
			return errors.New("exit status 1")
		},
	}
	rt := newDockerRuntime(failing)

	err := rt.Run(context.Background(), "office:1", nil, strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "office:1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = rt.Run(ctx, "office:1", nil, strings.NewReader(""), io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}
