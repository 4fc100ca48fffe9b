package identity

import "context"

// MockProvider permite tests sin llamar al proveedor real.
type MockProvider struct {
	Data SessionData
	Err  error
}

func (m *MockProvider) ExchangeSession(ctx context.Context, sessionID string) (SessionData, error) {
	return m.Data, m.Err
}
