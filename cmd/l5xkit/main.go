// L5xkit - RSLogix 5000 L5X project tooling
//
// Inspect and edit the tags of an L5X export from the command line, serve
// them over a REST API, or browse them in a terminal UI.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"l5xkit/logging"
	"l5xkit/project"
	"l5xkit/tag"
	"l5xkit/tui"
	"l5xkit/web"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usage = `Usage: l5xkit <command> [options]

Commands:
  list      List the tags of a project file
  get       Print a tag's value
  set       Write a tag's value
  describe  Show or change a tag's description
  dump      Dump all tag values as YAML
  apply     Apply tag values from a YAML document
  new       Create an empty project file
  serve     Serve a project file over a REST API
  browse    Browse a project file in a terminal UI
  version   Show version and exit

Run 'l5xkit <command> -h' for command options.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = cmdList(os.Args[2:])
	case "get":
		err = cmdGet(os.Args[2:])
	case "set":
		err = cmdSet(os.Args[2:])
	case "describe":
		err = cmdDescribe(os.Args[2:])
	case "dump":
		err = cmdDump(os.Args[2:])
	case "apply":
		err = cmdApply(os.Args[2:])
	case "new":
		err = cmdNew(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "browse":
		err = cmdBrowse(os.Args[2:])
	case "version":
		fmt.Printf("l5xkit %s\n", Version)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// addCommonFlags registers the debug logging flags shared by every command.
func addCommonFlags(fs *flag.FlagSet) (debugPath, debugFilter *string) {
	debugPath = fs.String("debug", "", "Path to debug log file")
	debugFilter = fs.String("debug-filter", "", "Comma-separated debug subsystems (default all)")
	return
}

// setupDebug installs the global debug logger when requested. The returned
// closer flushes the log footer.
func setupDebug(path, filter string) func() {
	if path == "" {
		return func() {}
	}
	logger, err := logging.NewDebugLogger(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug log unavailable: %v\n", err)
		return func() {}
	}
	if filter != "" {
		logger.SetFilter(filter)
	}
	logging.SetGlobalDebugLogger(logger)
	return func() { logger.Close() }
}

// scopeFor picks the controller scope or a named program scope.
func scopeFor(p *project.Project, program string) (*tag.Scope, error) {
	if program == "" {
		return p.Controller()
	}
	return p.Program(program)
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	program := fs.String("program", "", "List a program scope instead of the controller")
	all := fs.Bool("all", false, "List every scope")
	debugPath, debugFilter := addCommonFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: l5xkit list [options] <file.L5X>")
	}
	defer setupDebug(*debugPath, *debugFilter)()

	p, err := project.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	printScope := func(label string, scope *tag.Scope) {
		fmt.Printf("%s:\n", label)
		for _, name := range scope.TagNames() {
			tg, err := scope.Tag(name)
			if err != nil {
				continue
			}
			switch tg.TagType() {
			case tag.TypeAlias:
				fmt.Printf("  %-32s -> %s\n", name, tg.AliasFor())
			default:
				fmt.Printf("  %-32s %s\n", name, tg.DataType())
			}
		}
	}

	if *all {
		scope, err := p.Controller()
		if err != nil {
			return err
		}
		printScope("Controller "+scope.Name(), scope)
		for _, prog := range p.ProgramNames() {
			scope, err := p.Program(prog)
			if err != nil {
				continue
			}
			printScope("Program "+prog, scope)
		}
		return nil
	}

	scope, err := scopeFor(p, *program)
	if err != nil {
		return err
	}
	for _, name := range scope.TagNames() {
		fmt.Println(name)
	}
	return nil
}

func cmdGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	program := fs.String("program", "", "Program scope (default controller)")
	debugPath, debugFilter := addCommonFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: l5xkit get [options] <file.L5X> <tag>")
	}
	defer setupDebug(*debugPath, *debugFilter)()

	p, err := project.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	scope, err := scopeFor(p, *program)
	if err != nil {
		return err
	}
	tg, err := scope.Tag(fs.Arg(1))
	if err != nil {
		return err
	}
	v, err := tg.Value()
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cmdSet(args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	program := fs.String("program", "", "Program scope (default controller)")
	debugPath, debugFilter := addCommonFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: l5xkit set [options] <file.L5X> <tag> <value>")
	}
	defer setupDebug(*debugPath, *debugFilter)()

	path := fs.Arg(0)
	p, err := project.Load(path)
	if err != nil {
		return err
	}
	scope, err := scopeFor(p, *program)
	if err != nil {
		return err
	}
	tg, err := scope.Tag(fs.Arg(1))
	if err != nil {
		return err
	}

	v, err := parseValueArg(fs.Arg(2))
	if err != nil {
		return err
	}
	if err := tg.SetValue(v); err != nil {
		return err
	}
	return p.Write(path)
}

// parseValueArg interprets a command-line value: JSON documents for
// composites, then integers, floats, and bare strings.
func parseValueArg(s string) (interface{}, error) {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		var v interface{}
		if err := json.Unmarshal([]byte(t), &v); err != nil {
			return nil, fmt.Errorf("invalid JSON value: %w", err)
		}
		return v, nil
	}
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("cannot parse %q as a value", s)
}

func cmdDescribe(args []string) error {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	program := fs.String("program", "", "Program scope (default controller)")
	clear := fs.Bool("clear", false, "Remove the description")
	debugPath, debugFilter := addCommonFlags(fs)
	fs.Parse(args)
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: l5xkit describe [options] <file.L5X> <tag> [text]")
	}
	defer setupDebug(*debugPath, *debugFilter)()

	path := fs.Arg(0)
	p, err := project.Load(path)
	if err != nil {
		return err
	}
	scope, err := scopeFor(p, *program)
	if err != nil {
		return err
	}
	tg, err := scope.Tag(fs.Arg(1))
	if err != nil {
		return err
	}

	if *clear {
		tg.ClearDescription()
		return p.Write(path)
	}
	if fs.NArg() >= 3 {
		tg.SetDescription(fs.Arg(2))
		return p.Write(path)
	}
	text, ok := tg.Description()
	if !ok {
		return fmt.Errorf("tag %q has no description", tg.Name())
	}
	fmt.Println(text)
	return nil
}

func cmdNew(args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	controller := fs.String("controller", "Controller", "Controller name")
	debugPath, debugFilter := addCommonFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: l5xkit new [options] <file.L5X>")
	}
	defer setupDebug(*debugPath, *debugFilter)()

	path := fs.Arg(0)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return project.New(*controller).Write(path)
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	host := fs.String("host", "127.0.0.1", "HTTP bind address")
	port := fs.Int("p", 8085, "HTTP listen port")
	readonly := fs.Bool("readonly", false, "Reject mutations")
	watch := fs.Bool("watch", false, "Reload when the file changes on disk")
	debugPath, debugFilter := addCommonFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: l5xkit serve [options] <file.L5X>")
	}
	defer setupDebug(*debugPath, *debugFilter)()

	s, err := web.NewServer(fs.Arg(0), web.Options{
		Host:     *host,
		Port:     *port,
		ReadOnly: *readonly,
		Watch:    *watch,
	})
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}
	fmt.Printf("Serving %s on %s\n", fs.Arg(0), s.Address())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println("\nShutting down")
	return s.Stop()
}

func cmdBrowse(args []string) error {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	debugPath, debugFilter := addCommonFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: l5xkit browse [options] <file.L5X>")
	}
	defer setupDebug(*debugPath, *debugFilter)()

	b, err := tui.NewBrowser(fs.Arg(0))
	if err != nil {
		return err
	}
	return b.Run()
}
