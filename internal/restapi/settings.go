// ABOUTME: Settings resource: the agent configuration document behind the
// ABOUTME: init handshake payload.

package restapi

import "context"

// Settings is the agent configuration document. Provider credentials are
// exposed only as presence flags; the secret values never reach the client.
type Settings struct {
	Model               string `json:"model"`
	Agent               string `json:"agent"`
	Language            string `json:"language"`
	ConfirmationMode    bool   `json:"confirmation_mode"`
	SecurityAnalyzer    string `json:"security_analyzer"`
	APIKeySet           bool   `json:"api_key_set"`
	RemoteRuntimeSet    bool   `json:"remote_runtime_set"`
	EnableNotifications bool   `json:"enable_notifications"`
}

// InitPayload derives the handshake payload sent on socket open.
func (s *Settings) InitPayload() map[string]any {
	return map[string]any{
		"model":             s.Model,
		"agent":             s.Agent,
		"language":          s.Language,
		"confirmation_mode": s.ConfirmationMode,
		"security_analyzer": s.SecurityAnalyzer,
	}
}

// GetSettings reads the current configuration document.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := c.get(ctx, "/api/settings", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSettings writes the configuration document.
func (c *Client) UpdateSettings(ctx context.Context, s *Settings) error {
	return c.post(ctx, "/api/settings", s, nil)
}
