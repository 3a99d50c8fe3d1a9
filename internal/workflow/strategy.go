package workflow

import (
	"context"

	"campus-backend/internal/model"
)

// KindStrategy carries everything that differs between application kinds: the
// length of the approval chain and the domain side effects. OnSubmit and
// OnFinalApprove run inside the engine's transaction; returning an error rolls
// the whole operation back.
type KindStrategy interface {
	Kind() string
	MaxLevel() int
	// OnSubmit validates the payload and creates any companion rows (e.g. a
	// REQUESTED room booking) when the application is first submitted.
	OnSubmit(ctx context.Context, app *model.Application) error
	// OnFinalApprove applies the domain mutation once the last level approves.
	OnFinalApprove(ctx context.Context, app *model.Application) error
}

// StrategyRegistry resolves the strategy for an application's kind tag.
type StrategyRegistry struct {
	byKind map[string]KindStrategy
}

func NewStrategyRegistry(strategies ...KindStrategy) *StrategyRegistry {
	byKind := make(map[string]KindStrategy, len(strategies))
	for _, s := range strategies {
		byKind[s.Kind()] = s
	}
	return &StrategyRegistry{byKind: byKind}
}

func (r *StrategyRegistry) ForKind(kind string) (KindStrategy, error) {
	s, ok := r.byKind[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return s, nil
}
