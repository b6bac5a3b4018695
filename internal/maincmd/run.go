package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/poke-lang/poke/internal/config"
	"github.com/poke-lang/poke/ios"
	"github.com/poke-lang/poke/pkl"
	"github.com/poke-lang/poke/pvm"
)

// GrammarParser is the pkl.Parser implementation the Run command drives.
// The concrete grammar is an external collaborator this repository does
// not implement (spec §1); a real pokec build links one in here. Left
// unset, Run reports a clear configuration error instead of silently
// accepting unparsed source.
var GrammarParser pkl.Parser

func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, files []string) error {
	if GrammarParser == nil {
		err := fmt.Errorf("run: no grammar collaborator linked into this build")
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	rtPath := c.RTPath
	if rtPath == "" {
		rtPath = cfg.RTPath
	}

	vm := pvm.New(ios.New())
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr

	compiler, err := pkl.New(vm, GrammarParser, rtPath)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	compiler.SetLoadPath(cfg.LoadPath)

	for _, f := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := compiler.CompileFile(f); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", f, err)
			return err
		}
	}
	return nil
}
