package docmerge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// strategyFunc produces a PDF fragment for one input file, or fails.
// Failures advance the chain; they never abort the request by themselves.
type strategyFunc func(ctx context.Context, in InputFile) (string, error)

// strategy is one fidelity tier in a converter's chain.
type strategy struct {
	name string
	tier int // ordinal, lower = higher fidelity
	run  strategyFunc
}

// runChain tries each strategy in order and returns the first success,
// collecting all failure causes for diagnostics. Exhaustion of every
// strategy yields a *ConversionError joining the causes.
func runChain(ctx context.Context, logger *slog.Logger, in InputFile, chain []strategy) (ConversionResult, error) {
	if len(chain) == 0 {
		return ConversionResult{}, &ConversionError{File: in.OriginalName, Err: ErrAllStrategiesFailed}
	}

	var causes []error
	for _, s := range chain {
		if err := ctx.Err(); err != nil {
			return ConversionResult{}, err
		}

		start := time.Now()
		fragment, err := s.run(ctx, in)
		elapsed := time.Since(start)

		if err == nil {
			if s.tier > 0 {
				logger.Info("conversion fell back to lower-fidelity strategy",
					"file", in.OriginalName, "strategy", s.name, "tier", s.tier)
			}
			return ConversionResult{
				FragmentPath: fragment,
				StrategyTier: s.tier,
				Elapsed:      elapsed,
			}, nil
		}

		logger.Debug("conversion strategy failed",
			"file", in.OriginalName, "strategy", s.name, "error", err)
		causes = append(causes, fmt.Errorf("%s: %w", s.name, err))
	}

	return ConversionResult{}, &ConversionError{
		File: in.OriginalName,
		Err:  fmt.Errorf("%w: %w", ErrAllStrategiesFailed, errors.Join(causes...)),
	}
}
