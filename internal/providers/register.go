package providers

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/executor"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/filesystem"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/groups"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/permissions"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/session"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/providers/users"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/service"
)

// All returns one provider per boundary module, bound to k.
func All(k *kernel.Kernel) []service.Provider {
	return []service.Provider{
		filesystem.NewProvider(k),
		users.NewProvider(k),
		groups.NewProvider(k),
		session.NewProvider(k),
		session.NewEnvProvider(k),
		session.NewHistoryProvider(k),
		session.NewAliasProvider(k),
		permissions.NewSudoProvider(k),
		permissions.NewAuditProvider(k),
		executor.NewProvider(k),
	}
}

// RegisterAll registers every boundary module with registry.
func RegisterAll(registry *service.Registry, k *kernel.Kernel) error {
	for _, p := range All(k) {
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("failed to register %s: %w", p.Definition().ID, err)
		}
	}
	return nil
}
