package tool

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Rocket-Approval-Concierge/agent/contract"
)

const (
	defaultAnnualRatePct = 6.5
	defaultTermYears     = 30
)

type PaymentEstimate struct {
	LoanAmount     float64 `json:"loan_amount"`
	AnnualRatePct  float64 `json:"annual_rate_pct"`
	TermYears      int     `json:"term_years"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// executePaymentTool estimates the monthly principal-and-interest payment
// using the standard amortization formula. It is an estimate for the
// conversation, not a quote.
func executePaymentTool(tool string, args map[string]any) contractx.ToolResult {
	price, err := numberArg(args, "homePrice", 0)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}
	}
	if price <= 0 {
		return contractx.ToolResult{Tool: tool, Error: "homePrice must be > 0"}
	}

	down, err := numberArg(args, "downPayment", 0)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}
	}
	if down < 0 || down >= price {
		return contractx.ToolResult{Tool: tool, Error: "downPayment must be >= 0 and below homePrice"}
	}

	ratePct, err := numberArg(args, "annualRate", defaultAnnualRatePct)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}
	}
	if ratePct <= 0 || ratePct >= 30 {
		return contractx.ToolResult{Tool: tool, Error: "annualRate must be between 0 and 30"}
	}

	years, err := numberArg(args, "termYears", defaultTermYears)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}
	}
	if years < 1 || years > 50 {
		return contractx.ToolResult{Tool: tool, Error: "termYears must be between 1 and 50"}
	}

	principal := price - down
	monthlyRate := ratePct / 100 / 12
	n := float64(int(years) * 12)

	factor := math.Pow(1+monthlyRate, n)
	payment := principal * monthlyRate * factor / (factor - 1)

	return contractx.ToolResult{
		Tool: tool,
		Result: PaymentEstimate{
			LoanAmount:     principal,
			AnnualRatePct:  ratePct,
			TermYears:      int(years),
			MonthlyPayment: math.Round(payment*100) / 100,
		},
	}
}

func numberArg(args map[string]any, key string, fallback float64) (float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		// Collected answers arrive as text, often with currency formatting.
		cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(n))
		if cleaned == "" {
			return fallback, nil
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", key)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}
