package health

// Status is the health payload.
type Status struct {
	OK                bool   `json:"ok"`
	Provider          string `json:"provider"`
	Model             string `json:"model"`
	GatewayConfigured bool   `json:"gatewayConfigured"`
}

// Service encapsulates health-related checks.
type Service struct {
	provider   string
	model      string
	configured bool
}

// NewService constructs a new health service for the configured gateway.
func NewService(provider, model string, configured bool) *Service {
	return &Service{provider: provider, model: model, configured: configured}
}

// Status reports liveness and whether the model gateway has a credential.
// The process is live either way; an unconfigured gateway only fails analyses.
func (s *Service) Status() Status {
	return Status{
		OK:                true,
		Provider:          s.provider,
		Model:             s.model,
		GatewayConfigured: s.configured,
	}
}
