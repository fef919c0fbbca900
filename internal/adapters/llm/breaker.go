package llm

import (
	"context"

	"github.com/sony/gobreaker/v2"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/resilience"
)

// Guarded fails fast while the provider keeps failing.
type Guarded struct {
	next    ports.LanguageModel
	breaker *gobreaker.CircuitBreaker[string]
}

var _ ports.LanguageModel = (*Guarded)(nil)

// WithBreaker wraps m in a circuit breaker named after the provider.
func WithBreaker(m ports.LanguageModel) *Guarded {
	return &Guarded{
		next:    m,
		breaker: resilience.NewBreaker[string]("llm-"+m.Name(), resilience.BreakerSettings{}),
	}
}

func (g *Guarded) Name() string { return g.next.Name() }

func (g *Guarded) Complete(ctx context.Context, system string, turns []domain.ConversationTurn) (string, error) {
	return g.breaker.Execute(func() (string, error) {
		return g.next.Complete(ctx, system, turns)
	})
}
