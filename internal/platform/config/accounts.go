package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/herd_ledger/internal/core/domain"
)

// AccountCodes is the chart of accounts used to build journal lines.
type AccountCodes struct {
	Asset                   string `toml:"asset" validate:"required"`
	AccumulatedDepreciation string `toml:"accumulated_depreciation" validate:"required"`
	Cash                    string `toml:"cash" validate:"required"`
	DepreciationExpense     string `toml:"depreciation_expense" validate:"required"`
	Gain                    string `toml:"gain_on_disposal" validate:"required"`
	LossOnSale              string `toml:"loss_on_sale" validate:"required"`
	LossOnDeath             string `toml:"loss_on_death" validate:"required"`
	LossOnCull              string `toml:"loss_on_cull" validate:"required"`
}

type accountChartFile struct {
	Accounts AccountCodes `toml:"accounts"`
}

// DefaultAccountCodes is the chart used when no file is configured.
func DefaultAccountCodes() AccountCodes {
	return AccountCodes{
		Asset:                   "1500",
		AccumulatedDepreciation: "1510",
		Cash:                    "1000",
		DepreciationExpense:     "6100",
		Gain:                    "4900",
		LossOnSale:              "6900",
		LossOnDeath:             "6910",
		LossOnCull:              "6920",
	}
}

// LoadAccountCodes reads an [accounts] table from a TOML file. Missing keys keep their defaults.
// An empty path returns the defaults.
func LoadAccountCodes(path string) (AccountCodes, error) {
	codes := DefaultAccountCodes()
	if path == "" {
		return codes, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return AccountCodes{}, fmt.Errorf("failed to read account chart %s: %w", path, err)
	}
	return ParseAccountCodes(string(raw))
}

// ParseAccountCodes decodes TOML text over the default chart.
func ParseAccountCodes(data string) (AccountCodes, error) {
	chart := accountChartFile{Accounts: DefaultAccountCodes()}
	if _, err := toml.Decode(data, &chart); err != nil {
		return AccountCodes{}, fmt.Errorf("failed to parse account chart: %w", err)
	}
	if err := chart.Accounts.Validate(); err != nil {
		return AccountCodes{}, err
	}
	return chart.Accounts, nil
}

// Validate checks every code is present and that no two roles share an account.
func (a AccountCodes) Validate() error {
	if err := validator.New().Struct(a); err != nil {
		return fmt.Errorf("invalid account chart: %w", err)
	}
	seen := map[string]string{}
	for role, code := range map[string]string{
		"asset":                    a.Asset,
		"accumulated_depreciation": a.AccumulatedDepreciation,
		"cash":                     a.Cash,
		"depreciation_expense":     a.DepreciationExpense,
		"gain_on_disposal":         a.Gain,
	} {
		if other, dup := seen[code]; dup {
			return fmt.Errorf("invalid account chart: %s and %s share account %s", role, other, code)
		}
		seen[code] = role
	}
	return nil
}

// LossAccountFor returns the loss account for a disposition type.
func (a AccountCodes) LossAccountFor(t domain.DispositionType) string {
	switch t {
	case domain.DispositionDeath:
		return a.LossOnDeath
	case domain.DispositionCull:
		return a.LossOnCull
	default:
		return a.LossOnSale
	}
}
