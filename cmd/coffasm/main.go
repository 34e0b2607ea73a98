package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/coffasm/coffasm/internal/asm/amd64"
	"github.com/coffasm/coffasm/internal/assembler"
	"github.com/coffasm/coffasm/internal/config"
	"github.com/coffasm/coffasm/internal/scan"
	"github.com/coffasm/coffasm/internal/syntax"
	"github.com/coffasm/coffasm/internal/version"
)

func main() {
	doMain(os.Args[1:], os.Stdout, os.Stderr, os.Exit)
}

// diagnosticError is a source diagnostic already rendered against its file.
type diagnosticError struct {
	text string
}

func (e *diagnosticError) Error() string {
	return e.text
}

// doMain is separated out for the purpose of unit testing.
func doMain(args []string, stdOut, stdErr io.Writer, exit func(code int)) {
	cmd := newCommand(stdOut, stdErr)
	cmd.SetArgs(args)
	cmd.SetOut(stdOut)
	cmd.SetErr(stdErr)

	if err := cmd.Execute(); err != nil {
		var diag *diagnosticError
		if errors.As(err, &diag) {
			fmt.Fprintln(stdErr, diag.text)
		} else {
			fmt.Fprintf(stdErr, "error: %v\n", err)
		}
		exit(1)
	}
	exit(0)
}

type options struct {
	configPath string
	output     string
	logLevel   string
	timestamp  int64
	listing    bool
	check      bool
}

func newCommand(stdOut, stdErr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "coffasm [flags] <source>",
		Short: "Assemble Intel-syntax x86-64 source into a COFF object",
		Long: `coffasm assembles a small subset of Intel-syntax x86-64 assembly
(mov, add, sub, ret, db/dw/dd/dq, resb/resw/resd/resq and section directives)
into a COFF object file.`,
		Version:       version.GetVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return nil
			}
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(args[0], cfg, opts.check, stdOut, stdErr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to a TOML configuration file")
	flags.StringVarP(&opts.output, "output", "o", config.DefaultOutput, "path of the object file to write")
	flags.StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")
	flags.Int64Var(&opts.timestamp, "timestamp", 0, "fixed COFF TimeDateStamp, defaults to the current time")
	flags.BoolVar(&opts.listing, "listing", false, "print a hex dump of every section and a disassembly of .text")
	flags.BoolVar(&opts.check, "check", false, "parse the source and print its statements without writing an object")
	return cmd
}

// resolveConfig loads the configuration file and applies flags set on the command line over it.
func resolveConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("timestamp") {
		ts := opts.timestamp
		cfg.Timestamp = &ts
	}
	if flags.Changed("listing") {
		cfg.Listing = opts.listing
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(path string, cfg *config.Config, check bool, stdOut, stdErr io.Writer) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "error reading source file %s", path)
	}
	src := string(source)

	if check {
		return printStatements(stdOut, src)
	}

	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := logrus.New()
	logger.SetOutput(stdErr)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	a := assembler.New(path, src, assembler.WithLogger(logger))
	if err = a.Assemble(); err != nil {
		return &diagnosticError{text: scan.Diagnostic(src, err)}
	}
	if cfg.Listing {
		writeListing(stdOut, a.Sections())
	}

	timestamp := uint32(time.Now().Unix())
	if cfg.Timestamp != nil {
		timestamp = uint32(*cfg.Timestamp)
	}
	obj, err := a.Object(timestamp)
	if err != nil {
		return &diagnosticError{text: scan.Diagnostic(src, err)}
	}

	if err = writeFile(cfg.Output, obj); err != nil {
		return err
	}
	logger.WithField("output", cfg.Output).Info("wrote object")
	return nil
}

func writeFile(path string, obj io.WriterTo) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "error creating object file %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "error closing object file %s", path)
		}
	}()

	w := bufio.NewWriter(f)
	if _, err = obj.WriteTo(w); err != nil {
		return errors.Wrapf(err, "error writing object file %s", path)
	}
	if err = w.Flush(); err != nil {
		return errors.Wrapf(err, "error writing object file %s", path)
	}
	return nil
}

func printStatements(w io.Writer, src string) error {
	res, err := syntax.Parse(src)
	if err != nil {
		return &diagnosticError{text: scan.Diagnostic(src, err)}
	}
	for _, s := range res.Statements {
		if _, ok := s.(*syntax.Label); ok {
			fmt.Fprintln(w, s)
		} else {
			fmt.Fprintf(w, "\t%s\n", s)
		}
	}
	for _, g := range res.Unresolved() {
		pos := scan.Locate(src, g.Offset)
		fmt.Fprintf(w, "; %d:%d: unresolved global %s\n", pos.Line, pos.Col, g.Name)
	}
	return nil
}

// writeListing prints every section as "#####name#####" followed by its bytes in hex.
// The .text section is also disassembled.
func writeListing(w io.Writer, sections []*assembler.Section) {
	for _, s := range sections {
		fmt.Fprintf(w, "#####%s#####\n", s.Name)
		fmt.Fprintln(w, strings.Join(lo.Map(s.Bytes(), func(b byte, _ int) string {
			return fmt.Sprintf("%02X", b)
		}), " "))
		if s.Name == ".text" {
			for _, l := range amd64.Disassemble(s.Bytes()) {
				fmt.Fprintln(w, l)
			}
		}
	}
}
