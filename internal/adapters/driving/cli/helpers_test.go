package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driving"
)

// mockSyncService records the options it was called with.
type mockSyncService struct {
	summary  *domain.SyncSummary
	err      error
	state    domain.SyncState
	stateErr error
	runs     []domain.RunRecord

	gotOpts  domain.SyncOptions
	gotLimit int
}

func (m *mockSyncService) Sync(_ context.Context, opts domain.SyncOptions) (*domain.SyncSummary, error) {
	m.gotOpts = opts
	if m.summary == nil {
		return &domain.SyncSummary{}, m.err
	}
	return m.summary, m.err
}

func (m *mockSyncService) State(context.Context) (domain.SyncState, error) {
	return m.state, m.stateErr
}

func (m *mockSyncService) History(_ context.Context, limit int) ([]domain.RunRecord, error) {
	m.gotLimit = limit
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

// mockAuthService hands out a fixed token.
type mockAuthService struct {
	token    *domain.OAuthToken
	loginErr error
	loggedIn bool
	opened   string
}

func (m *mockAuthService) Login(_ context.Context, openURL func(string) error) (*domain.OAuthToken, error) {
	if openURL != nil {
		if err := openURL("https://auth.example/authorize?state=s"); err != nil {
			return nil, err
		}
	}
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	m.loggedIn = true
	return m.token, nil
}

func (m *mockAuthService) Status(context.Context) (*domain.OAuthToken, error) {
	if m.token == nil || !m.loggedIn {
		return nil, domain.ErrNotFound
	}
	return m.token, nil
}

func (m *mockAuthService) Logout(context.Context) error {
	m.loggedIn = false
	return nil
}

// mockSettingsService serves fixed settings and records Set calls.
type mockSettingsService struct {
	settings domain.AppSettings
	getErr   error
	setErr   error
	set      map[string]string
}

func (m *mockSettingsService) Get() (domain.AppSettings, error) {
	return m.settings, m.getErr
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Values() map[string]any {
	values := make(map[string]any, len(m.set))
	for k, v := range m.set {
		values[k] = v
	}
	return values
}

func (m *mockSettingsService) Path() string {
	return ".xbm/config.toml"
}

var _ driving.SyncService = (*mockSyncService)(nil)
var _ driving.AuthService = (*mockAuthService)(nil)
var _ driving.SettingsService = (*mockSettingsService)(nil)

// testApp bundles the mocks behind the factory.
type testApp struct {
	sync     *mockSyncService
	auth     *mockAuthService
	settings *mockSettingsService

	opts   AppOptions
	closed bool
}

func newTestApp() *testApp {
	return &testApp{
		sync:     &mockSyncService{},
		auth:     &mockAuthService{},
		settings: &mockSettingsService{settings: domain.DefaultAppSettings()},
	}
}

// setupApp installs a factory returning ta and restores global state afterwards.
func setupApp(t *testing.T, ta *testApp) {
	t.Helper()

	old := newApp
	SetAppFactory(func(opts AppOptions) (*App, error) {
		ta.opts = opts
		return &App{
			Sync:     ta.sync,
			Auth:     ta.auth,
			Settings: ta.settings,
			Close: func() error {
				ta.closed = true
				return nil
			},
		}, nil
	})
	t.Cleanup(func() {
		newApp = old
		resetFlags(rootCmd)
	})
}

// resetFlags restores every flag in the tree to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(rootCmd)
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
