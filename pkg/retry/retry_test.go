package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/cod-remittance-api/pkg/retry"
)

var errTransient = errors.New("transitorio")

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func TestDo_ReintentaHastaExito(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: isTransient}, func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_NoReintentaErroresDeNegocio(t *testing.T) {
	calls := 0
	errBiz := errors.New("negocio")
	err := retry.Do(context.Background(), retry.Policy{MaxAttempts: 5, Retryable: isTransient}, func() error {
		calls++
		return errBiz
	})
	assert.ErrorIs(t, err, errBiz)
	assert.Equal(t, 1, calls)
}

func TestDo_AgotaIntentos(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), retry.Policy{MaxAttempts: 2, Retryable: isTransient}, func() error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, calls)
}

func TestDo_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := retry.Do(ctx, retry.Policy{MaxAttempts: 5, BaseDelay: time.Hour, Retryable: isTransient}, func() error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}
