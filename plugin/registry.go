package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onDeposit             []OnDeposit
	onWithdrawalRequested []OnWithdrawalRequested
	onWithdrawalCanceled  []OnWithdrawalCanceled
	onWithdrawalFulfilled []OnWithdrawalFulfilled
	onLiquidityShortfall  []OnLiquidityShortfall
	onYieldReported       []OnYieldReported
	onFeeCollected        []OnFeeCollected
	onHWMReset            []OnHWMReset
	onOrphanedSharesSwept []OnOrphanedSharesSwept
	onParamChangeQueued   []OnParamChangeQueued
	onParamChangeExecuted []OnParamChangeExecuted
	onParamChangeCanceled []OnParamChangeCanceled
	onInvariantFault      []OnInvariantFault
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{logger: slog.Default()}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnDeposit); ok {
		r.onDeposit = append(r.onDeposit, v)
	}
	if v, ok := p.(OnWithdrawalRequested); ok {
		r.onWithdrawalRequested = append(r.onWithdrawalRequested, v)
	}
	if v, ok := p.(OnWithdrawalCanceled); ok {
		r.onWithdrawalCanceled = append(r.onWithdrawalCanceled, v)
	}
	if v, ok := p.(OnWithdrawalFulfilled); ok {
		r.onWithdrawalFulfilled = append(r.onWithdrawalFulfilled, v)
	}
	if v, ok := p.(OnLiquidityShortfall); ok {
		r.onLiquidityShortfall = append(r.onLiquidityShortfall, v)
	}
	if v, ok := p.(OnYieldReported); ok {
		r.onYieldReported = append(r.onYieldReported, v)
	}
	if v, ok := p.(OnFeeCollected); ok {
		r.onFeeCollected = append(r.onFeeCollected, v)
	}
	if v, ok := p.(OnHWMReset); ok {
		r.onHWMReset = append(r.onHWMReset, v)
	}
	if v, ok := p.(OnOrphanedSharesSwept); ok {
		r.onOrphanedSharesSwept = append(r.onOrphanedSharesSwept, v)
	}
	if v, ok := p.(OnParamChangeQueued); ok {
		r.onParamChangeQueued = append(r.onParamChangeQueued, v)
	}
	if v, ok := p.(OnParamChangeExecuted); ok {
		r.onParamChangeExecuted = append(r.onParamChangeExecuted, v)
	}
	if v, ok := p.(OnParamChangeCanceled); ok {
		r.onParamChangeCanceled = append(r.onParamChangeCanceled, v)
	}
	if v, ok := p.(OnInvariantFault); ok {
		r.onInvariantFault = append(r.onInvariantFault, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnDeposit)(nil)).Elem(), "OnDeposit")
	checkInterface(reflect.TypeOf((*OnWithdrawalRequested)(nil)).Elem(), "OnWithdrawalRequested")
	checkInterface(reflect.TypeOf((*OnWithdrawalFulfilled)(nil)).Elem(), "OnWithdrawalFulfilled")
	checkInterface(reflect.TypeOf((*OnYieldReported)(nil)).Elem(), "OnYieldReported")
	checkInterface(reflect.TypeOf((*OnFeeCollected)(nil)).Elem(), "OnFeeCollected")
	checkInterface(reflect.TypeOf((*OnInvariantFault)(nil)).Elem(), "OnInvariantFault")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, vault interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, vault)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitDeposit emits a deposit event.
func (r *Registry) EmitDeposit(ctx context.Context, evt DepositEvent) {
	r.mu.RLock()
	plugins := r.onDeposit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDeposit(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnDeposit failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitWithdrawalRequested emits a withdrawal requested event.
func (r *Registry) EmitWithdrawalRequested(ctx context.Context, evt WithdrawalRequestedEvent) {
	r.mu.RLock()
	plugins := r.onWithdrawalRequested
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawalRequested(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawalRequested failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitWithdrawalCanceled emits a withdrawal canceled event.
func (r *Registry) EmitWithdrawalCanceled(ctx context.Context, evt WithdrawalCanceledEvent) {
	r.mu.RLock()
	plugins := r.onWithdrawalCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawalCanceled(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawalCanceled failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitWithdrawalFulfilled emits a withdrawal fulfilled event.
func (r *Registry) EmitWithdrawalFulfilled(ctx context.Context, evt WithdrawalFulfilledEvent) {
	r.mu.RLock()
	plugins := r.onWithdrawalFulfilled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawalFulfilled(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawalFulfilled failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitLiquidityShortfall emits a liquidity shortfall event.
func (r *Registry) EmitLiquidityShortfall(ctx context.Context, evt LiquidityShortfallEvent) {
	r.mu.RLock()
	plugins := r.onLiquidityShortfall
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLiquidityShortfall(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnLiquidityShortfall failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitYieldReported emits a yield reported event.
func (r *Registry) EmitYieldReported(ctx context.Context, evt YieldReportedEvent) {
	r.mu.RLock()
	plugins := r.onYieldReported
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnYieldReported(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnYieldReported failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitFeeCollected emits a fee collected event.
func (r *Registry) EmitFeeCollected(ctx context.Context, evt FeeCollectedEvent) {
	r.mu.RLock()
	plugins := r.onFeeCollected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFeeCollected(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnFeeCollected failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitHWMReset emits a high-water-mark reset event.
func (r *Registry) EmitHWMReset(ctx context.Context, evt HWMResetEvent) {
	r.mu.RLock()
	plugins := r.onHWMReset
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnHWMReset(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnHWMReset failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitOrphanedSharesSwept emits an orphaned shares swept event.
func (r *Registry) EmitOrphanedSharesSwept(ctx context.Context, evt OrphanedSharesSweptEvent) {
	r.mu.RLock()
	plugins := r.onOrphanedSharesSwept
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOrphanedSharesSwept(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnOrphanedSharesSwept failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitParamChangeQueued emits a parameter change queued event.
func (r *Registry) EmitParamChangeQueued(ctx context.Context, evt ParamChangeEvent) {
	r.mu.RLock()
	plugins := r.onParamChangeQueued
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnParamChangeQueued(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnParamChangeQueued failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitParamChangeExecuted emits a parameter change executed event.
func (r *Registry) EmitParamChangeExecuted(ctx context.Context, evt ParamChangeEvent) {
	r.mu.RLock()
	plugins := r.onParamChangeExecuted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnParamChangeExecuted(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnParamChangeExecuted failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitParamChangeCanceled emits a parameter change canceled event.
func (r *Registry) EmitParamChangeCanceled(ctx context.Context, evt ParamChangeEvent) {
	r.mu.RLock()
	plugins := r.onParamChangeCanceled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnParamChangeCanceled(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnParamChangeCanceled failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitInvariantFault emits an invariant fault event.
func (r *Registry) EmitInvariantFault(ctx context.Context, evt InvariantFaultEvent) {
	r.mu.RLock()
	plugins := r.onInvariantFault
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvariantFault(ctx, evt)
		}); err != nil {
			r.logger.Warn("plugin OnInvariantFault failed", "plugin", p.Name(), "error", err)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the accounting pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
