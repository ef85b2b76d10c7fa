package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	reimbursementx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/reimbursement"
)

const (
	argInsuredName     = "nombre_asegurado"
	argExpenseCategory = "tipo_gasto"
	argAmount          = "monto"
	argBeneficiaryName = "nombre_beneficiario"
	argRequestID       = "n_solicitud"
	argNewStatus       = "nuevo_estado"
	argResponse        = "nueva_respuesta"
)

// decodeCommand turns model-supplied arguments into a typed command. The caller
// identity wins over whatever name the model passed for a General user.
func decodeCommand(tool string, args map[string]any, caller contractx.Caller) (reimbursementx.Command, error) {
	switch tool {
	case contractx.ToolRegister:
		category, err := requiredString(args, argExpenseCategory)
		if err != nil {
			return nil, err
		}
		amount, err := decimalArg(args, argAmount)
		if err != nil {
			return nil, err
		}
		beneficiary, err := optionalString(args, argBeneficiaryName)
		if err != nil {
			return nil, err
		}
		insured, err := optionalString(args, argInsuredName)
		if err != nil {
			return nil, err
		}
		if caller.Role != contractx.RoleAdmin || insured == "" {
			insured = caller.Name
		}
		return reimbursementx.RegisterCommand{
			InsuredName:     insured,
			ExpenseCategory: category,
			Amount:          amount,
			BeneficiaryName: beneficiary,
		}, nil

	case contractx.ToolQuery:
		id, err := requiredString(args, argRequestID)
		if err != nil {
			return nil, err
		}
		owner, err := optionalString(args, argInsuredName)
		if err != nil {
			return nil, err
		}
		if caller.Role != contractx.RoleAdmin {
			owner = caller.Name
		}
		return reimbursementx.QueryCommand{RequestID: id, OwnerFilter: owner}, nil

	case contractx.ToolUpdate:
		id, err := requiredString(args, argRequestID)
		if err != nil {
			return nil, err
		}
		status, err := requiredString(args, argNewStatus)
		if err != nil {
			return nil, err
		}
		response, err := requiredString(args, argResponse)
		if err != nil {
			return nil, err
		}
		return reimbursementx.UpdateCommand{RequestID: id, Status: status, Response: response}, nil

	default:
		return nil, fmt.Errorf("unknown tool %s", tool)
	}
}

func executeCommand(ctx context.Context, svc Dispatcher, tool string, cmd reimbursementx.Command) (contractx.ToolResult, error) {
	out, err := svc.Dispatch(ctx, cmd)
	if err != nil {
		if isDomainError(err) {
			return contractx.ToolResult{Tool: tool, Error: reimbursementx.FormatError(err)}, nil
		}
		return contractx.ToolResult{}, fmt.Errorf("execute tool=%s: %w", tool, err)
	}
	return contractx.ToolResult{Tool: tool, Result: out.Message}, nil
}

func isDomainError(err error) bool {
	return errors.Is(err, contractx.ErrValidation) ||
		errors.Is(err, contractx.ErrNotFound) ||
		errors.Is(err, contractx.ErrOwnership)
}

func requiredString(args map[string]any, key string) (string, error) {
	v, err := optionalString(args, key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func optionalString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return strings.TrimSpace(s), nil
}

func decimalArg(args map[string]any, key string) (decimal.Decimal, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return decimal.Decimal{}, fmt.Errorf("%s is required", key)
	}

	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case string:
		amount, ok := parseAmount(v)
		if !ok {
			return decimal.Decimal{}, fmt.Errorf("%s must be a number", key)
		}
		return amount, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%s must be a number", key)
	}
}

// parseAmount reads amounts as users type them: an optional "S/" prefix,
// grouping commas ("1,500.00") or a decimal comma ("80,50"). A lone comma
// followed by exactly three digits is a thousands separator.
func parseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "S/.")
	s = strings.TrimPrefix(s, "S/")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastDot > lastComma {
			if !groupedDigits(s[:lastDot], ",") {
				return decimal.Decimal{}, false
			}
			s = strings.ReplaceAll(s, ",", "")
		} else {
			if !groupedDigits(s[:lastComma], ".") {
				return decimal.Decimal{}, false
			}
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastComma >= 0:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) != 3 {
			s = parts[0] + "." + parts[1]
			break
		}
		if !groupedDigits(s, ",") {
			return decimal.Decimal{}, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}

// groupedDigits reports whether s is an integer split into thousands by sep.
func groupedDigits(s, sep string) bool {
	s = strings.TrimPrefix(s, "-")
	groups := strings.Split(s, sep)
	for i, g := range groups {
		if !allDigits(g) {
			return false
		}
		if i == 0 && len(g) > 3 && len(groups) > 1 {
			return false
		}
		if i > 0 && len(g) != 3 {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
