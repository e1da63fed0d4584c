package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jirenius/modapp/internal/config"
	"github.com/jirenius/modapp/internal/module"
	"github.com/jirenius/modapp/internal/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoManifest = `
bundle: [login, screen, legacy]
modules:
  login:
    requires: [api, screen]
  screen: {}
  api:
    fetchDelay: 10ms
  legacy:
    provided: true
    fetchError: 404 Module not found
  noisy:
    requires: []
    continuationError: listener failed
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(demoManifest))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"login", "screen", "legacy"}, m.Bundle)
	assert.Equal(t, []string{"api", "legacy", "login", "noisy", "screen"}, m.Names())
	assert.Equal(t, []string{"api", "screen"}, m.Modules["login"].Requires)
	assert.Nil(t, m.Modules["screen"].Requires)
	assert.Equal(t, []string{}, m.Modules["noisy"].Requires)
	assert.Equal(t, 10*time.Millisecond, m.Modules["api"].FetchDelay.Duration)
	assert.True(t, m.Modules["legacy"].Provided)
}

func TestParse_JSON(t *testing.T) {
	m, err := Parse([]byte(`{"bundle":["a"],"modules":{"a":{"requires":["b"]},"b":{"fetchDelay":1000000}}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, m.Bundle)
	assert.Equal(t, time.Millisecond, m.Modules["b"].FetchDelay.Duration)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "unknown field",
			input:   "modules:\n  a:\n    require: [b]\n",
			wantErr: "decode",
		},
		{
			name:    "bad duration",
			input:   "modules:\n  a:\n    fetchDelay: soon\n",
			wantErr: "invalid duration",
		},
		{
			name:    "bundle entry not described",
			input:   "bundle: [a]\nmodules: {}\n",
			wantErr: "field 'bundle[0]': is not described under modules",
		},
		{
			name:    "duplicate bundle entry",
			input:   "bundle: [a, a]\nmodules:\n  a: {}\n",
			wantErr: "is listed more than once",
		},
		{
			name:    "dotted module name",
			input:   "modules:\n  a.b: {}\n",
			wantErr: "cannot contain dots",
		},
		{
			name:    "bad requirement name",
			input:   "modules:\n  a:\n    requires: [\"\"]\n",
			wantErr: "modules.a.requires[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_ValidationErrorsType(t *testing.T) {
	_, err := Parse([]byte("bundle: [x]\n"))

	var verrs config.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 1)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoManifest), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Modules, 5)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshal_RoundTrip(t *testing.T) {
	m, err := Parse([]byte(demoManifest))
	require.NoError(t, err)

	data, err := m.Marshal()
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, m.Modules["api"].FetchDelay, again.Modules["api"].FetchDelay)
	assert.Equal(t, m.Modules["login"].Requires, again.Modules["login"].Requires)
}

func TestCatalog_BundleAndExplicit(t *testing.T) {
	m, err := Parse([]byte(demoManifest))
	require.NoError(t, err)
	c := NewCatalog(m)

	bundle := c.Bundle()
	assert.Len(t, bundle, 2)
	assert.Contains(t, bundle, "login")
	assert.Contains(t, bundle, "screen")
	assert.Equal(t, []string{"legacy"}, c.Explicit())
}

func TestCatalog_ClassFunc(t *testing.T) {
	m, err := Parse([]byte(demoManifest))
	require.NoError(t, err)
	c := NewCatalog(m)

	ctor, err := c.ClassFunc(context.Background(), "api")
	require.NoError(t, err)
	assert.NotNil(t, ctor)

	_, err = c.ClassFunc(context.Background(), "legacy")
	assert.EqualError(t, err, "404 Module not found")

	_, err = c.ClassFunc(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotInManifest)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ClassFunc(ctx, "api")
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 2, c.Fetches("api"))
}

func TestCatalog_DrivesOrchestrator(t *testing.T) {
	m, err := Parse([]byte(demoManifest))
	require.NoError(t, err)
	c := NewCatalog(m)

	deferred := make(chan string, 1)
	o := orchestrator.New(orchestrator.Config{
		ClassFunc:            c.ClassFunc,
		DeferredErrorHandler: func(name string, err error) { deferred <- name + ": " + err.Error() },
	})

	res, err := o.LoadBundle(context.Background(), c.Bundle())
	require.NoError(t, err)
	assert.Nil(t, res.Errors)

	login, ok := c.Instance("login")
	require.True(t, ok)
	assert.Equal(t, []string{"api", "screen"}, login.Modules())
	assert.Equal(t, 1, c.Constructed("api"))

	explicit := o.LoadModules(context.Background(), c.Explicit())
	require.Contains(t, explicit.Errors, "legacy")
	assert.True(t, module.IsUnavailable(explicit.Errors["legacy"]))

	noisy := o.LoadModules(context.Background(), []string{"noisy"})
	assert.Nil(t, noisy.Errors)
	o.WaitDeferred()
	assert.Equal(t, "noisy: listener failed", <-deferred)

	require.NoError(t, o.Deactivate("screen"))
	assert.True(t, login.Disposed())
	api, _ := c.Instance("api")
	assert.True(t, api.Disposed())
}

func TestCatalog_ConstructorError(t *testing.T) {
	m, err := Parse([]byte("bundle: [a]\nmodules:\n  a:\n    constructorError: no database\n"))
	require.NoError(t, err)
	c := NewCatalog(m)

	o := orchestrator.New(orchestrator.Config{ClassFunc: c.ClassFunc})
	res, err := o.LoadBundle(context.Background(), c.Bundle())
	require.NoError(t, err)

	assert.EqualError(t, res.Errors["a"], "Module a encountered an error: no database")
	_, ok := c.Instance("a")
	assert.False(t, ok)
}
