// Package retry reintenta operaciones con backoff exponencial.
package retry

import (
	"context"
	"time"
)

// Policy parámetros de reintento. MaxAttempts <= 1 desactiva los reintentos.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retryable decide si un error merece otro intento; nil = nunca.
	Retryable func(error) bool
}

// Do ejecuta fn hasta que tenga éxito, devuelva un error no reintentable,
// se agoten los intentos o se cancele ctx. Devuelve el último error de fn.
func Do(ctx context.Context, p Policy, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) || i == attempts-1 {
			return err
		}
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return err
			case <-t.C:
			}
			delay *= 2
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}
	}
	return err
}
