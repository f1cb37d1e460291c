package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"l5xkit/project"
	"l5xkit/tag"
)

// valueDoc is the YAML document shape used by dump and apply: controller tag
// values keyed by tag name, plus one map per program.
type valueDoc struct {
	Controller map[string]interface{}            `yaml:"controller,omitempty"`
	Programs   map[string]map[string]interface{} `yaml:"programs,omitempty"`
}

func cmdDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	debugPath, debugFilter := addCommonFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: l5xkit dump [options] <file.L5X>")
	}
	defer setupDebug(*debugPath, *debugFilter)()

	p, err := project.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	doc := valueDoc{}
	if scope, err := p.Controller(); err == nil {
		doc.Controller = scopeValues(scope)
	}
	for _, prog := range p.ProgramNames() {
		scope, err := p.Program(prog)
		if err != nil {
			continue
		}
		vals := scopeValues(scope)
		if len(vals) == 0 {
			continue
		}
		if doc.Programs == nil {
			doc.Programs = make(map[string]map[string]interface{})
		}
		doc.Programs[prog] = vals
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}
	os.Stdout.Write(out)
	return nil
}

// scopeValues reads every readable tag value in a scope. Tags without
// decorated data (aliases, consumed tags) are skipped.
func scopeValues(scope *tag.Scope) map[string]interface{} {
	out := make(map[string]interface{})
	for _, name := range scope.TagNames() {
		tg, err := scope.Tag(name)
		if err != nil {
			continue
		}
		v, err := tg.Value()
		if err != nil {
			continue
		}
		out[name] = v
	}
	return out
}

func cmdApply(args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	dryRun := fs.Bool("n", false, "Validate without writing the file")
	debugPath, debugFilter := addCommonFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: l5xkit apply [options] <file.L5X> <values.yaml>")
	}
	defer setupDebug(*debugPath, *debugFilter)()

	path := fs.Arg(0)
	p, err := project.Load(path)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return err
	}
	var doc valueDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid values document: %w", err)
	}

	applied := 0
	if len(doc.Controller) > 0 {
		scope, err := p.Controller()
		if err != nil {
			return err
		}
		n, err := applyValues(scope, doc.Controller)
		if err != nil {
			return err
		}
		applied += n
	}
	for prog, vals := range doc.Programs {
		scope, err := p.Program(prog)
		if err != nil {
			return err
		}
		n, err := applyValues(scope, vals)
		if err != nil {
			return err
		}
		applied += n
	}

	if *dryRun {
		fmt.Printf("Validated %d tag values (dry run)\n", applied)
		return nil
	}
	if err := p.Write(path); err != nil {
		return err
	}
	fmt.Printf("Applied %d tag values\n", applied)
	return nil
}

func applyValues(scope *tag.Scope, values map[string]interface{}) (int, error) {
	n := 0
	for name, v := range values {
		tg, err := scope.Tag(name)
		if err != nil {
			return n, err
		}
		if err := tg.SetValue(v); err != nil {
			return n, fmt.Errorf("tag %q: %w", name, err)
		}
		n++
	}
	return n, nil
}
