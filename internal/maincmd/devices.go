package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/poke-lang/poke/ios"
)

// Devices lists the registered IO device backends in resolution order
// (spec §4.2 "Open selects a backend... the first that returns a
// non-null canonical handler").
func (c *Cmd) Devices(_ context.Context, stdio mainer.Stdio, _ []string) error {
	reg := ios.New()
	for _, b := range reg.Backends() {
		fmt.Fprintln(stdio.Stdout, b.Name())
	}
	return nil
}
