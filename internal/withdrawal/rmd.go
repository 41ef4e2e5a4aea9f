package withdrawal

import (
	"github.com/rgehrsitz/viability/internal/domain"
)

// RequiredDistribution returns the minimum the tax-deferred bucket must pay out at age
func RequiredDistribution(table domain.RMDTable, age int, taxDeferred float64) float64 {
	divisor := table.Divisor(age)
	if divisor <= 0 || taxDeferred <= 0 {
		return 0
	}
	return min(taxDeferred, taxDeferred/divisor)
}
