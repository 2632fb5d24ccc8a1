package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Ventas-api/pkg/metrics"
)

// compensation deshace un paso ya confirmado de la saga.
type compensation struct {
	name string
	fn   func(ctx context.Context) error
}

// saleSaga acumula compensaciones de una venta en curso. Se ejecutan en orden
// inverso al registro (la última agregada va primero).
type saleSaga struct {
	saleID  string
	retries int
	backoff time.Duration
	tracer  trace.Tracer
	metrics *metrics.Sales
	log     zerolog.Logger

	mu    sync.Mutex
	steps []compensation
}

func (s *saleSaga) addCompensation(name string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append([]compensation{{name: name, fn: fn}}, s.steps...)
}

// compensate ejecuta todas las compensaciones, cada una con hasta retries intentos.
// Un paso que agota sus intentos no detiene los demás; el error resultante los agrupa.
// La cancelación del ctx del caller no interrumpe las compensaciones.
func (s *saleSaga) compensate(ctx context.Context) error {
	s.mu.Lock()
	steps := s.steps
	s.steps = nil
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	s.log.Warn().Str("sale_id", s.saleID).Int("steps", len(steps)).Msg("ejecutando compensaciones")

	var errs []error
	for _, step := range steps {
		if err := s.runStep(ctx, step); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *saleSaga) runStep(ctx context.Context, step compensation) error {
	ctx, span := s.tracer.Start(ctx, "saga.compensation."+step.name)
	defer span.End()
	span.SetAttributes(attribute.String("sale.id", s.saleID))

	attempts := s.retries
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = step.fn(ctx); err == nil {
			s.metrics.Compensations.WithLabelValues("ok").Inc()
			return nil
		}
		s.log.Warn().Err(err).
			Str("sale_id", s.saleID).
			Str("step", step.name).
			Int("attempt", i).
			Msg("compensación falló")
		if i < attempts {
			if werr := waitBackoff(ctx, s.backoff*time.Duration(i)); werr != nil {
				err = errors.Join(err, werr)
				break
			}
		}
	}
	s.metrics.Compensations.WithLabelValues("failed").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, "compensation failed")
	return err
}

// waitBackoff espera d o hasta que ctx termine.
func waitBackoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
