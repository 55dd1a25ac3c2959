package flow

import (
	"context"
	"fmt"

	"github.com/kbukum/flowgraph/errors"
)

// AsFunc returns a Func that runs d as a node of another graph. Its
// arguments bind d's inputs positionally in Inputs order. With an empty
// output it returns the full Results, otherwise the named result.
func (d *Definition) AsFunc(output string, opts ...Option) Func {
	return func(ctx context.Context, args ...any) (any, error) {
		if len(args) != len(d.inputs) {
			return nil, errors.InvalidInput("args",
				fmt.Sprintf("%s takes %d arguments %v, got %d", d.name, len(d.inputs), d.inputs, len(args)))
		}
		bindings := make(map[string]any, len(args))
		for i, name := range d.inputs {
			bindings[name] = args[i]
		}

		inst, err := d.New(bindings, opts...)
		if err != nil {
			return nil, err
		}
		res, err := inst.Execute(ctx)
		if err != nil {
			return nil, err
		}
		if output == "" {
			return res, nil
		}
		return res.Get(output)
	}
}
