package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/tailored-agentic-units/assistant/core/protocol"
	"github.com/tailored-agentic-units/assistant/tools"
)

const CalculatorName = "calculator"

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrDivisionByZero   = errors.New("division by zero")
)

var operators = map[string]string{
	"add":      "+",
	"subtract": "-",
	"multiply": "*",
	"divide":   "/",
	"power":    "^",
	"modulo":   "%",
}

// CalculatorTool describes the calculator to the model.
func CalculatorTool() protocol.Tool {
	return protocol.Tool{
		Name:        CalculatorName,
		Description: "Perform basic arithmetic on two numbers.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{
					"type":        "string",
					"enum":        []string{"add", "subtract", "multiply", "divide", "power", "modulo"},
					"description": "The arithmetic operation to perform.",
				},
				"a": map[string]any{"type": "number", "description": "The first operand."},
				"b": map[string]any{"type": "number", "description": "The second operand."},
			},
			"required": []string{"operation", "a", "b"},
		},
	}
}

type calculatorArgs struct {
	Operation string   `json:"operation"`
	A         *float64 `json:"a"`
	B         *float64 `json:"b"`
}

// Calculate applies op to a and b.
func Calculate(op string, a, b float64) (float64, error) {
	switch op {
	case "add":
		return a + b, nil
	case "subtract":
		return a - b, nil
	case "multiply":
		return a * b, nil
	case "divide":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case "power":
		return math.Pow(a, b), nil
	case "modulo":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return math.Mod(a, b), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
}

// Calculator is the calculator tool handler. The result reads like
// "25 * 4 = 100".
func Calculator(_ context.Context, raw json.RawMessage) (tools.Result, error) {
	var args calculatorArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return tools.Result{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.A == nil || args.B == nil {
		return tools.Result{}, errors.New("invalid arguments: a and b are required")
	}

	result, err := Calculate(args.Operation, *args.A, *args.B)
	if err != nil {
		return tools.Result{}, err
	}

	return tools.Result{
		Content: fmt.Sprintf("%s %s %s = %s", formatNumber(*args.A), operators[args.Operation], formatNumber(*args.B), formatNumber(result)),
	}, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
