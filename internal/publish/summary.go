package publish

import (
	"context"

	"structkit/pkg/decorator"
)

func commaJoin(first, second string) string {
	switch {
	case first == "":
		return second
	case second == "":
		return first
	}
	return first + ", " + second
}

func named(name string) decorator.Component[string] {
	return decorator.ComponentFunc[string](func(context.Context) (string, error) { return name, nil })
}

// Summary builds the ledger description of a document: its name, then each
// detail in the order given, e.g. "report.txt, text/plain, plain".
func Summary(name string, details ...string) (decorator.Component[string], error) {
	layers := make([]decorator.Layer[string], 0, len(details))
	for _, d := range details {
		layers = append(layers, decorator.Layer[string]{Own: d, Combine: commaJoin})
	}
	return decorator.Chain(named(name), layers...)
}
