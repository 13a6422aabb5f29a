package metrics

import (
	"github.com/atriumcrm/atrium/pkg/log"
	"github.com/atriumcrm/atrium/pkg/version"
	"github.com/google/wire"
)

// ProviderSet is a Wire provider set for metrics
var ProviderSet = wire.NewSet(
	NewMetricsServer,
)

// NewMetricsServer creates a new metrics server from config
func NewMetricsServer(config MetricsConfig) *Server {
	server := NewServer(config)
	SetupCronMetrics(server.GetRegistry())
	SetupAccessMetrics(server.GetRegistry())
	if err := server.RegisterCollector(NewBuildInfoCollector(version.GetVersion())); err != nil {
		log.Warnw("failed to register build info collector", "error", err)
	}
	return server
}
