package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tailored-agentic-units/assistant/kernel"
)

const maxResultPreview = 200

// printResult writes the response and, when detailed, the tool calls and
// diagnostics of a turn.
func printResult(w io.Writer, res *kernel.Result, detailed bool) {
	fmt.Fprintln(w, res.Response)

	if !detailed {
		return
	}

	if len(res.ToolCalls) > 0 {
		fmt.Fprintln(w, "\nTool calls:")
		for i, tc := range res.ToolCalls {
			args, _ := tc.Call.ArgumentsJSON()
			fmt.Fprintf(w, "  [%d] %s(%s) %s\n", i+1, tc.Call.Name, args, tc.Duration.Round(time.Millisecond))
			result := tc.Result
			if len(result) > maxResultPreview {
				result = result[:maxResultPreview] + "..."
			}
			if tc.IsError {
				fmt.Fprintf(w, "    error: %s\n", strings.TrimPrefix(result, "error: "))
			} else {
				fmt.Fprintf(w, "    -> %s\n", result)
			}
		}
	}

	for _, d := range res.Degraded {
		fmt.Fprintf(w, "  degraded: %s\n", d)
	}

	fmt.Fprintf(w, "\nIntent: %s  Exchanges: %d\n", res.Intent, res.ExchangeCount)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
