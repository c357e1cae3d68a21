// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/terminwatch/internal/browser"
	"github.com/xkilldash9x/terminwatch/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Target() config.TargetConfig {
	args := m.Called()
	return args.Get(0).(config.TargetConfig)
}

func (m *MockConfig) Check() config.CheckConfig {
	args := m.Called()
	return args.Get(0).(config.CheckConfig)
}

// --- Setters ---

func (m *MockConfig) SetBrowserHeadless(b bool) {
	m.Called(b)
}

func (m *MockConfig) SetBrowserUserAgent(ua string) {
	m.Called(ua)
}

func (m *MockConfig) SetTargetURL(u string) {
	m.Called(u)
}

func (m *MockConfig) SetCheckStepTimeout(d time.Duration) {
	m.Called(d)
}

func (m *MockConfig) SetCheckFailureSignatures(s []string) {
	m.Called(s)
}

func (m *MockConfig) Validate() error {
	args := m.Called()
	return args.Error(0)
}

// -- Browser Mocks --

// MockAcquirer mocks the session source used by the checker.
type MockAcquirer struct {
	mock.Mock
}

func (m *MockAcquirer) Acquire(ctx context.Context) (browser.Lease, error) {
	args := m.Called(ctx)
	lease, _ := args.Get(0).(browser.Lease)
	return lease, args.Error(1)
}
