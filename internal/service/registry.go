package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/errs"
	"github.com/GriffinCanCode/AgentOS/kernel/internal/shared/types"
)

// Provider implements one boundary module.
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]interface{}, callCtx *types.Context) (*types.Result, error)
}

// Observer receives one notification per completed invocation.
type Observer interface {
	ObserveInvocation(module, function string, success bool, duration time.Duration)
}

// Registry maps module names to providers and dispatches invocations.
// Invocations are serialized: one completes before the next starts.
type Registry struct {
	services sync.Map
	tools    sync.Map // tool ID -> types.Tool

	dispatch sync.Mutex
	logger   *zap.Logger
	observer Observer
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the dispatch logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver reports every invocation to o.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("dispatch")
	return r
}

// Register adds a provider and indexes its tools.
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return fmt.Errorf("service ID cannot be empty")
	}
	for _, tool := range def.Tools {
		if !strings.HasPrefix(tool.ID, def.ID+".") {
			return fmt.Errorf("tool %q does not belong to service %q", tool.ID, def.ID)
		}
	}

	r.services.Store(def.ID, provider)
	for _, tool := range def.Tools {
		r.tools.Store(tool.ID, tool)
	}
	return nil
}

// Unregister removes a provider and its tools.
func (r *Registry) Unregister(serviceID string) {
	val, ok := r.services.LoadAndDelete(serviceID)
	if !ok {
		return
	}
	for _, tool := range val.(Provider).Definition().Tools {
		r.tools.Delete(tool.ID)
	}
}

// Get retrieves a provider by module name.
func (r *Registry) Get(serviceID string) (Provider, bool) {
	val, ok := r.services.Load(serviceID)
	if !ok {
		return nil, false
	}
	return val.(Provider), true
}

// Tool looks up a tool definition by "module.function".
func (r *Registry) Tool(toolID string) (types.Tool, bool) {
	val, ok := r.tools.Load(toolID)
	if !ok {
		return types.Tool{}, false
	}
	return val.(types.Tool), true
}

// List returns all registered services sorted by ID, optionally
// filtered by category.
func (r *Registry) List(category *types.Category) []types.Service {
	var services []types.Service
	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
		return true
	})
	sort.Slice(services, func(i, j int) bool {
		return services[i].ID < services[j].ID
	})
	return services
}

// Discover ranks services by how well they match a free-text query.
func (r *Registry) Discover(query string, limit int) []types.Service {
	type scoredService struct {
		service types.Service
		score   float64
	}

	q := strings.ToLower(query)
	var results []scoredService
	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		if score := relevance(q, def); score > 0 {
			results = append(results, scoredService{service: def, score: score})
		}
		return true
	})

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].service.ID < results[j].service.ID
	})

	output := make([]types.Service, 0, limit)
	for i := 0; i < len(results) && i < limit; i++ {
		output = append(output, results[i].service)
	}
	return output
}

// Execute runs a tool with already bound parameters.
func (r *Registry) Execute(ctx context.Context, toolID string, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	parts := strings.SplitN(toolID, ".", 2)
	if len(parts) < 2 {
		return types.Failure("invalid tool ID format"), fmt.Errorf("invalid tool ID format: %s", toolID)
	}

	provider, ok := r.Get(parts[0])
	if !ok {
		msg := fmt.Sprintf("service not found: %s", parts[0])
		return types.Failure(msg), fmt.Errorf("%s", msg)
	}
	return provider.Execute(ctx, toolID, params, callCtx)
}

// Invoke is the boundary entry point. Positional args bind to the
// tool's parameters in order, kwargs override them by name. Every
// failure, including a provider panic, comes back as a failed envelope.
func (r *Registry) Invoke(ctx context.Context, req types.InvokeRequest) (res *types.Result) {
	toolID := req.ToolID()
	start := time.Now()

	r.dispatch.Lock()
	defer r.dispatch.Unlock()

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("provider panic",
				zap.String("tool", toolID),
				zap.Any("panic", p),
				zap.Stack("stack"))
			res = types.Failure(fmt.Sprintf("Kernel Dispatch Error in %s: %v", toolID, p))
		}
		r.finish(req, res, time.Since(start))
	}()

	tool, ok := r.Tool(toolID)
	if !ok {
		if _, known := r.Get(req.Module); !known {
			return types.Failure(fmt.Sprintf("unknown module: %s", req.Module))
		}
		return types.Failure(fmt.Sprintf("unknown function: %s", toolID))
	}

	params, err := bind(tool, req.Args, req.Kwargs)
	if err != nil {
		return types.FromError(err)
	}

	result, err := r.Execute(ctx, toolID, params, req.Context)
	switch {
	case err != nil:
		return types.FromError(err)
	case result == nil:
		return types.Success(nil)
	}
	return result
}

func (r *Registry) finish(req types.InvokeRequest, res *types.Result, elapsed time.Duration) {
	success := res != nil && res.Success
	if r.observer != nil {
		r.observer.ObserveInvocation(req.Module, req.Function, success, elapsed)
	}

	fields := []zap.Field{
		zap.String("module", req.Module),
		zap.String("function", req.Function),
		zap.Duration("duration", elapsed),
	}
	if req.Context != nil && req.Context.RequestID != "" {
		fields = append(fields, zap.String("request_id", req.Context.RequestID))
	}
	if success {
		r.logger.Debug("invocation succeeded", fields...)
		return
	}
	if res != nil && res.Details != nil {
		fields = append(fields, zap.String("kind", res.Details.Kind))
	}
	if res != nil && res.Error != nil {
		fields = append(fields, zap.String("error", *res.Error))
	}
	r.logger.Info("invocation failed", fields...)
}

// bind zips positional args with the declared parameters and overlays
// kwargs.
func bind(tool types.Tool, args []interface{}, kwargs map[string]interface{}) (map[string]interface{}, error) {
	if len(args) > len(tool.Parameters) {
		return nil, errs.Newf(errs.KindInvalidArgument, tool.ID, "",
			"takes %d arguments but %d were given", len(tool.Parameters), len(args))
	}
	params := make(map[string]interface{}, len(args)+len(kwargs))
	for i, arg := range args {
		params[tool.Parameters[i].Name] = arg
	}
	for k, v := range kwargs {
		params[k] = v
	}
	for _, p := range tool.Parameters {
		if _, ok := params[p.Name]; p.Required && !ok {
			return nil, errs.Newf(errs.KindInvalidArgument, tool.ID, "", "missing required argument '%s'", p.Name)
		}
	}
	return params, nil
}

// Stats returns registry statistics.
func (r *Registry) Stats() map[string]interface{} {
	var total, totalTools int
	categories := make(map[string]int)

	r.services.Range(func(_, value interface{}) bool {
		def := value.(Provider).Definition()
		total++
		totalTools += len(def.Tools)
		categories[string(def.Category)]++
		return true
	})

	return map[string]interface{}{
		"total_services": total,
		"total_tools":    totalTools,
		"categories":     categories,
	}
}

func relevance(query string, service types.Service) float64 {
	score := 0.0

	if strings.Contains(query, service.ID) || strings.Contains(query, strings.ToLower(service.Name)) {
		score += 10.0
	}
	for _, word := range strings.Fields(strings.ToLower(service.Description)) {
		if len(word) > 2 && strings.Contains(query, word) {
			score += 5.0
		}
	}
	for _, cap := range service.Capabilities {
		if strings.Contains(query, strings.ReplaceAll(strings.ToLower(cap), "_", " ")) {
			score += 3.0
		}
	}
	if strings.Contains(query, string(service.Category)) {
		score += 2.0
	}
	return score
}
