package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tread-cli/internal/core/services"
)

func TestNewPorts(t *testing.T) {
	assistant := &MockAssistantService{}
	indexer := &MockIndexerService{}
	status := &MockStatusService{}
	sessions := services.NewSessionManager(8)

	ports := NewPorts(assistant, indexer, status, sessions)

	require.NotNil(t, ports)
	assert.Equal(t, assistant, ports.Assistant)
	assert.Equal(t, indexer, ports.Indexer)
	assert.Equal(t, status, ports.Status)
	assert.Equal(t, sessions, ports.Sessions)
}

func TestPorts_Validate(t *testing.T) {
	sessions := services.NewSessionManager(8)

	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{
			name:  "all set",
			ports: NewPorts(&MockAssistantService{}, &MockIndexerService{}, &MockStatusService{}, sessions),
		},
		{
			name:    "missing assistant",
			ports:   &Ports{Indexer: &MockIndexerService{}, Status: &MockStatusService{}, Sessions: sessions},
			wantErr: ErrMissingAssistantService,
		},
		{
			name:    "missing indexer",
			ports:   &Ports{Assistant: &MockAssistantService{}, Status: &MockStatusService{}, Sessions: sessions},
			wantErr: ErrMissingIndexerService,
		},
		{
			name:    "missing status",
			ports:   &Ports{Assistant: &MockAssistantService{}, Indexer: &MockIndexerService{}, Sessions: sessions},
			wantErr: ErrMissingStatusService,
		},
		{
			name: "missing sessions",
			ports: &Ports{
				Assistant: &MockAssistantService{},
				Indexer:   &MockIndexerService{},
				Status:    &MockStatusService{},
			},
			wantErr: ErrMissingSessionManager,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
