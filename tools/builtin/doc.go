// Package builtin provides the assistant's bundled tools: a calculator, a
// current-weather lookup backed by Open-Meteo and a web search backed by the
// DuckDuckGo instant answer API.
//
// Register them all on a registry with RegisterAll:
//
//	reg := tools.NewRegistry()
//	if err := builtin.RegisterAll(reg, builtin.DefaultConfig()); err != nil {
//	    return err
//	}
package builtin
