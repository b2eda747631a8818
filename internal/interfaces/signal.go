package interfaces

import (
	"context"

	"github.com/alagbefranc/goldtrading-signal/internal/types"
)

// Synthesizer turns market data into trade signals. Returns
// types.ErrNoSignal when no self-consistent signal can be produced.
type Synthesizer interface {
	Synthesize(ctx context.Context, instrument string) (*types.Signal, error)
}
