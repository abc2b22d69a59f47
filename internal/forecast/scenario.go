package forecast

import (
	"fmt"

	apperrors "github.com/SirGarbage/Bitirme-Projesi/internal/errors"
	"github.com/SirGarbage/Bitirme-Projesi/pkg/contracts/domain"
)

// ApplyShock scales every row dated in or after the trigger year by
// (1 - severity). The input is left untouched.
func ApplyShock(result *domain.ForecastResult, scenario domain.Scenario) (*domain.ForecastResult, error) {
	if scenario.Severity < 0 || scenario.Severity > 1 {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("severity %.3f must be between 0 and 1", scenario.Severity))
	}

	out := result.Clone()
	if out == nil {
		return nil, apperrors.NewAppValidationError("no forecast to shock")
	}

	factor := 1 - scenario.Severity
	for i := range out.Rows {
		if out.Rows[i].DS.Year() < scenario.TriggerYear {
			continue
		}
		out.Rows[i].YHat *= factor
		out.Rows[i].YHatLower *= factor
		out.Rows[i].YHatUpper *= factor
	}
	return out, nil
}
