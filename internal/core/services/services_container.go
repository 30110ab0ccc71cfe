package services

import (
	"github.com/SscSPs/herd_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/herd_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/herd_ledger/internal/core/ports/services"
	"github.com/SscSPs/herd_ledger/internal/platform/config"
	"github.com/SscSPs/herd_ledger/internal/platform/metrics"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, publisher events.Publisher, m *metrics.Metrics) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Depreciation: NewDepreciationService(
			repos.LedgerRepo,
			cfg,
			WithEventPublisher(publisher),
			WithMetrics(m),
		),
	}
}
