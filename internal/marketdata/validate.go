// Package marketdata guards the market data push/subscribe surface: it
// rejects any request naming a symbol the matching engine has no book
// for, rather than silently dropping it or lazily creating one.
package marketdata

import (
	"fmt"

	"github.com/tradecore/matchcore/internal/matching"
)

// ErrUnknownSymbol is returned when a market data push or subscription
// names a symbol with no live order book.
type ErrUnknownSymbol struct {
	Symbol string
}

func (e *ErrUnknownSymbol) Error() string {
	return fmt.Sprintf("marketdata: unknown symbol %q", e.Symbol)
}

// Validator checks market data requests against the set of symbols the
// engine actually tracks.
type Validator struct {
	engine *matching.Engine
}

// NewValidator builds a Validator backed by engine's live symbol set.
func NewValidator(engine *matching.Engine) *Validator {
	return &Validator{engine: engine}
}

// CheckSymbol returns ErrUnknownSymbol if the engine has never opened a
// book for symbol. A symbol only becomes known once at least one order
// has been submitted for it.
func (v *Validator) CheckSymbol(symbol string) error {
	for _, known := range v.engine.Symbols() {
		if known == symbol {
			return nil
		}
	}
	return &ErrUnknownSymbol{Symbol: symbol}
}

// CheckSymbols validates a batch subscription request, returning the
// first unknown symbol encountered.
func (v *Validator) CheckSymbols(symbols []string) error {
	for _, s := range symbols {
		if err := v.CheckSymbol(s); err != nil {
			return err
		}
	}
	return nil
}
