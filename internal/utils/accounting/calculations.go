package accounting

import (
	"fmt"

	"github.com/SscSPs/herd_ledger/internal/apperrors"
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/core/money"
	"github.com/shopspring/decimal"
)

// SignedAmount returns the line amount signed so that debits are positive and credits negative.
func SignedAmount(line domain.JournalLine) (decimal.Decimal, error) {
	switch line.Side {
	case domain.Debit:
		return line.Amount, nil
	case domain.Credit:
		return line.Amount.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown side '%s' on line for account %s", line.Side, line.AccountCode)
	}
}

// ValidateJournalBalance checks that an entry has at least two positive lines whose
// debits and credits agree within one cent. Failures are CalculationErrors.
func ValidateJournalBalance(entry domain.JournalEntry) error {
	assetID := entry.AssetID
	period := ""
	if !entry.EntryDate.IsZero() {
		period = domain.PeriodOf(entry.EntryDate).String()
	}

	if len(entry.Lines) < 2 {
		return apperrors.NewCalculationError(assetID, period, "journal entry must have at least two lines")
	}

	sum := decimal.Zero
	for i, line := range entry.Lines {
		if !line.Amount.IsPositive() {
			return apperrors.NewCalculationError(assetID, period,
				fmt.Sprintf("line %d (account %s) amount must be positive, got %s", i, line.AccountCode, line.Amount))
		}
		signed, err := SignedAmount(line)
		if err != nil {
			return apperrors.NewCalculationError(assetID, period, err.Error())
		}
		sum = sum.Add(signed)
	}

	if !money.WithinTolerance(sum, decimal.Zero) {
		debits, credits := entry.Totals()
		return apperrors.NewCalculationError(assetID, period,
			fmt.Sprintf("journal entry does not balance: debits %s, credits %s", debits.StringFixed(2), credits.StringFixed(2)))
	}

	return nil
}
