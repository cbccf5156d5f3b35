package pop

import (
	"context"
	"fmt"

	"popkit/vars"
)

// VarStore is the variable backend a population publishes into.
type VarStore = vars.Store

// WholePop is the variable scope addressing the population rather than one
// of its subpopulations.
const WholePop = vars.PopScope

// AttachVars connects the population to a variable store under the given
// id. Without an attachment, variable calls fall back to a private
// in-memory store keyed by an empty id.
func (p *Population) AttachVars(store VarStore, id string) {
	p.varsStore = store
	p.varsID = id
}

// VarsID returns the population's id in the attached store.
func (p *Population) VarsID() string { return p.varsID }

func (p *Population) store() VarStore {
	if p.varsStore == nil {
		p.varsStore = vars.NewMemoryStore()
	}
	return p.varsStore
}

func (p *Population) checkScope(subPop int) error {
	if subPop != WholePop && (subPop < 0 || subPop >= p.NumSubPops()) {
		return fmt.Errorf("%w: subpopulation %d of %d", ErrIndexOutOfRange, subPop, p.NumSubPops())
	}
	return nil
}

// SetVar stores a variable under the given scope (WholePop or a
// subpopulation id).
func (p *Population) SetVar(ctx context.Context, subPop int, name string, value any) error {
	if err := p.checkScope(subPop); err != nil {
		return err
	}
	return p.store().Set(ctx, p.varsID, subPop, name, value)
}

// GetVar returns a stored variable and whether it exists.
func (p *Population) GetVar(ctx context.Context, subPop int, name string) (any, bool, error) {
	if err := p.checkScope(subPop); err != nil {
		return nil, false, err
	}
	return p.store().Get(ctx, p.varsID, subPop, name)
}

// DeleteVar removes a stored variable.
func (p *Population) DeleteVar(ctx context.Context, subPop int, name string) error {
	if err := p.checkScope(subPop); err != nil {
		return err
	}
	return p.store().Delete(ctx, p.varsID, subPop, name)
}

// VarNames lists the variable names stored under a scope, sorted.
func (p *Population) VarNames(ctx context.Context, subPop int) ([]string, error) {
	if err := p.checkScope(subPop); err != nil {
		return nil, err
	}
	return p.store().Names(ctx, p.varsID, subPop)
}

// ClearVars removes every variable of the population across all scopes.
func (p *Population) ClearVars(ctx context.Context) error {
	return p.store().Clear(ctx, p.varsID)
}
