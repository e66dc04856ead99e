package recognition

import (
	"context"
	"fmt"
	"log/slog"

	"stylus/internal/artifact"
	"stylus/internal/config"
	"stylus/internal/logging"
)

// Orchestrator runs providers in configured order until one identifies the
// recording with enough confidence.
type Orchestrator struct {
	logger        *slog.Logger
	providers     []Provider
	minConfidence float64
}

// NewOrchestrator builds an orchestrator over the given providers. Provider
// order is the failover order.
func NewOrchestrator(cfg *config.Config, logger *slog.Logger, providers []Provider) *Orchestrator {
	return &Orchestrator{
		logger:        logging.NewComponentLogger(logger, "recognition"),
		providers:     providers,
		minConfidence: cfg.Recognition.MinConfidence,
	}
}

// Recognize identifies the recording and deletes it. The artifact is spent
// after this call regardless of outcome; the first provider whose confidence
// meets the threshold wins, otherwise the best result seen stands in.
func (o *Orchestrator) Recognize(ctx context.Context, art *artifact.Artifact) Result {
	defer func() {
		if err := art.Release(); err != nil {
			o.logger.Warn("failed to remove recording file",
				logging.String(logging.FieldArtifact, art.ID),
				logging.Error(err))
		}
	}()

	best := Failure("no providers available")

	for _, provider := range o.providers {
		if !provider.Available() {
			o.logger.Debug("provider not configured, skipping",
				logging.String(logging.FieldProvider, provider.Name()))
			continue
		}

		result, err := provider.Recognize(ctx, art.Path)
		if err != nil {
			o.logger.Warn("provider lookup failed",
				logging.String(logging.FieldProvider, provider.Name()),
				logging.String(logging.FieldArtifact, art.ID),
				logging.Error(err))
			result = Result{Provider: provider.Name(), ErrorMessage: err.Error()}
		}

		if result.Success && result.Confidence >= o.minConfidence {
			o.logger.Info("track identified",
				logging.String(logging.FieldProvider, provider.Name()),
				logging.String(logging.FieldTrack, result.Track()),
				logging.Float64("confidence", result.Confidence))
			return result
		}

		if result.Confidence > best.Confidence {
			best = result
		}
		if ctx.Err() != nil {
			break
		}
	}

	if best.Success {
		o.logger.Info("accepting low confidence identification",
			logging.String(logging.FieldProvider, best.Provider),
			logging.String(logging.FieldTrack, best.Track()),
			logging.Float64("confidence", best.Confidence))
		return best
	}

	if best.ErrorMessage == "" {
		best.ErrorMessage = "no provider identified the recording"
	}
	o.logger.Info("recognition failed",
		logging.String(logging.FieldArtifact, art.ID),
		logging.String("reason", best.ErrorMessage))
	return Failure(fmt.Sprintf("recognition failed: %s", best.ErrorMessage))
}
