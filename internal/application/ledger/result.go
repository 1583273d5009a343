package ledger

import (
	"errors"

	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/observability/metrics"
)

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case domain.IsClientError(err), errors.Is(err, domain.ErrNotFound):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}
