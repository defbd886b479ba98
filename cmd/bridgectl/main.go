package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/marshal-bridge/marshal"
	"github.com/wippyai/marshal-bridge/proxy"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/witexport"
)

type options struct {
	schemaText   string
	manifestPath string
	className    string
	checkPath    string
	list         bool
	wit          bool
}

func main() {
	var (
		schemaText   = flag.String("schema", "", "Schema text to parse and print in long form")
		manifestPath = flag.String("manifest", "", "Path to a YAML type manifest")
		className    = flag.String("class", "", "Type to print or check")
		checkPath    = flag.String("check", "", "YAML document to validate against -class")
		list         = flag.Bool("list", false, "List manifest types and exit")
		witOut       = flag.Bool("wit", false, "Print the WIT projection")
		verbose      = flag.Bool("v", false, "Verbose logging")
		interactive  = flag.Bool("i", false, "Interactive type browser")
	)
	flag.Parse()

	if *schemaText == "" && *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: bridgectl -schema <text> [-wit]")
		fmt.Fprintln(os.Stderr, "       bridgectl -manifest <types.yaml> -list")
		fmt.Fprintln(os.Stderr, "       bridgectl -manifest <types.yaml> -class <Name> [-wit] [-check data.yaml]")
		fmt.Fprintln(os.Stderr, "       bridgectl -manifest <types.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger = l
		registry.SetLogger(l)
		proxy.SetLogger(l)
		marshal.SetLogger(l)
	}
	defer func() { _ = logger.Sync() }()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*manifestPath, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts := options{
		schemaText:   *schemaText,
		manifestPath: *manifestPath,
		className:    *className,
		checkPath:    *checkPath,
		list:         *list,
		wit:          *witOut,
	}
	if err := run(os.Stdout, opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, opts options, logger *zap.Logger) error {
	if opts.schemaText != "" {
		return printSchema(w, opts.schemaText, opts.wit)
	}

	ws, err := loadWorkspace(opts.manifestPath, logger)
	if err != nil {
		return err
	}

	if opts.list {
		fmt.Fprintf(w, "Manifest: %s\n", opts.manifestPath)
		fmt.Fprintf(w, "Types: %d\n\n", len(ws.names))
		for _, name := range ws.names {
			fmt.Fprintf(w, "  %-24s %s\n", name, ws.kindOf(name))
		}
		return nil
	}

	if opts.className == "" {
		return fmt.Errorf("-class is required with -manifest (or use -list)")
	}
	s, err := ws.schemaOf(opts.className)
	if err != nil {
		return err
	}

	if opts.checkPath != "" {
		data, err := os.ReadFile(opts.checkPath)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		if err := ws.check(opts.className, data); err != nil {
			return fmt.Errorf("check %s: %w", opts.checkPath, err)
		}
		fmt.Fprintf(w, "%s: conforms to %s\n", opts.checkPath, opts.className)
		return nil
	}

	fmt.Fprintln(w, s.String())
	if opts.wit {
		text, err := ws.wit(opts.className)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s", text)
	}
	return nil
}

func printSchema(w io.Writer, text string, witOut bool) error {
	s, err := schema.Parse(text)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	fmt.Fprintln(w, s.String())
	if !witOut {
		return nil
	}
	wt, err := witexport.Export(s)
	if err != nil {
		return fmt.Errorf("wit: %w", err)
	}
	fmt.Fprintf(w, "\n%s", witexport.Render(wt))
	return nil
}
