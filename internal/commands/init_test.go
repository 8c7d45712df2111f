package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gidevo/gidevo-api-tool/internal/scaffold"
)

// Test plan:
// 1. flags are passed straight to the scaffolder
// 2. missing flags come from the config when not interactive
// 3. missing flags are prompted for with config defaults when interactive
// 4. scaffolding and prompt failures are returned

func TestInit_WithFlags(t *testing.T) {
	sc := new(mockScaffolder)
	sc.On("Init", scaffold.Options{Template: "graphql", Output: "svc"}).
		Return(&scaffold.Result{Dir: "/work/svc", Files: []string{"package.json", filepath.Join("specs", "schema.graphql")}}, nil)

	prompter := new(mockPrompter)
	ctrl, buf := newTestController(Dependencies{Config: newStaticConfig(), Scaffold: sc, Prompter: prompter})

	require.NoError(t, ctrl.Init(context.Background(), InitOptions{Template: "graphql", Output: "svc"}))
	assert.Contains(t, buf.String(), "✔ Project initialized successfully!")
	assert.Contains(t, buf.String(), "  cd svc\n")
	assert.Contains(t, buf.String(), "gidevo-api-tool generate --spec "+filepath.Join("specs", "schema.graphql"))

	sc.AssertExpectations(t)
	prompter.AssertNotCalled(t, "InitOptions")
}

func TestInit_ConfigDefaults(t *testing.T) {
	cfg := newStaticConfig()
	cfg.cfg.Init.Output = "api"

	sc := new(mockScaffolder)
	sc.On("Init", scaffold.Options{Template: "openapi", Output: "api"}).
		Return(&scaffold.Result{Dir: "/work/api"}, nil)

	ctrl, _ := newTestController(Dependencies{Config: cfg, Scaffold: sc})
	require.NoError(t, ctrl.Init(context.Background(), InitOptions{}))
	sc.AssertExpectations(t)
}

func TestInit_Prompts(t *testing.T) {
	prompter := new(mockPrompter)
	prompter.On("InitOptions", scaffold.Options{Template: "graphql", Output: "."}).
		Return(scaffold.Options{Template: "graphql", Output: "gql-api"}, nil)

	sc := new(mockScaffolder)
	sc.On("Init", scaffold.Options{Template: "graphql", Output: "gql-api"}).
		Return(&scaffold.Result{Dir: "/work/gql-api"}, nil)

	ctrl, _ := newTestController(Dependencies{Config: newStaticConfig(), Scaffold: sc, Prompter: prompter})
	require.NoError(t, ctrl.Init(context.Background(), InitOptions{Template: "graphql"}))

	prompter.AssertExpectations(t)
	sc.AssertExpectations(t)
}

func TestInit_Errors(t *testing.T) {
	t.Run("scaffold", func(t *testing.T) {
		sc := new(mockScaffolder)
		sc.On("Init", scaffold.Options{Template: "openapi", Output: "x"}).Return(nil, scaffold.ErrNotEmpty)

		ctrl, buf := newTestController(Dependencies{Config: newStaticConfig(), Scaffold: sc})
		err := ctrl.Init(context.Background(), InitOptions{Template: "openapi", Output: "x"})
		assert.ErrorIs(t, err, scaffold.ErrNotEmpty)
		assert.Contains(t, buf.String(), "✖ directory is not empty")
	})

	t.Run("prompt", func(t *testing.T) {
		prompter := new(mockPrompter)
		prompter.On("InitOptions", scaffold.Options{Template: "openapi", Output: "."}).
			Return(scaffold.Options{}, errors.New("user aborted"))

		ctrl, _ := newTestController(Dependencies{Config: newStaticConfig(), Scaffold: new(mockScaffolder), Prompter: prompter})
		err := ctrl.Init(context.Background(), InitOptions{})
		assert.EqualError(t, err, "failed to get init options: user aborted")
	})
}

func TestValidateNewProjectDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file"), nil, 0644))

	assert.Error(t, validateNewProjectDir(""))
	assert.Error(t, validateNewProjectDir(dir))
	assert.NoError(t, validateNewProjectDir(t.TempDir()))
	assert.NoError(t, validateNewProjectDir(filepath.Join(dir, "new")))
}
