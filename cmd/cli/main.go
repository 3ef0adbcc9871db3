package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amirasaad/fxconvert/infra/initializer"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/service/conversion"
	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"golang.org/x/term"
)

const usage = `Usage: cli <command> [arguments]
Commands:
  list [limit]                  list currencies (priority codes first)
  convert <amount> <from> <to>  convert an amount, e.g. convert 100 USD BRL
  prompt                        read "amount from to" lines from stdin
Without a command an interactive prompt starts when stdin is a terminal.`

var (
	errUsage  = errors.New("invalid usage")
	errFailed = errors.New("command failed")
)

func main() {
	// Config loading logs through the slog default.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	// Keep log lines off the user's screen unless asked for.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Log.Level = int(log.ErrorLevel)
	}

	deps, err := initializer.InitializeDependencies(cfg, initializer.WithLogOutput(os.Stderr))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize:", err)
		os.Exit(1)
	}

	c := &cli{
		deps:        deps,
		in:          os.Stdin,
		out:         os.Stdout,
		limit:       cfg.Currency.DisplayLimit,
		timeout:     cfg.Frankfurter.HTTPTimeout + time.Second,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
	err = c.run(os.Args[1:])
	deps.Close()
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
		}
		os.Exit(1)
	}
}

type cli struct {
	deps        *initializer.Deps
	in          io.Reader
	out         io.Writer
	limit       int
	timeout     time.Duration
	interactive bool
}

var (
	codeColor   = color.New(color.FgCyan, color.Bold)
	resultColor = color.New(color.FgGreen, color.Bold)
	errorColor  = color.New(color.FgRed)
	hintColor   = color.New(color.Faint)
)

func (c *cli) run(args []string) error {
	if len(args) == 0 {
		if c.interactive {
			return c.prompt(true)
		}
		return errUsage
	}

	switch args[0] {
	case "list":
		limit := c.limit
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				errorColor.Fprintln(c.out, "Invalid limit:", args[1])
				return errUsage
			}
			limit = n
		}
		return c.list(limit)
	case "convert":
		if len(args) != 4 {
			return errUsage
		}
		return c.convert(args[1], args[2], args[3])
	case "prompt":
		return c.prompt(false)
	case "help", "-h", "--help":
		fmt.Fprintln(c.out, usage)
		return nil
	default:
		return errUsage
	}
}

func (c *cli) wait(task *conversion.Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return task.Wait(ctx)
}

func (c *cli) list(limit int) error {
	_ = c.wait(c.deps.InitialLoad)
	st := c.deps.Service.Snapshot()
	// State.Error may belong to a later conversion; only the load task
	// says whether the table failed to load.
	if err := c.deps.InitialLoad.Err(); err != nil && len(st.Currencies) == 0 {
		errorColor.Fprintln(c.out, conversion.LoadErrorPrefix+err.Error())
		return errFailed
	}
	for _, e := range st.Currencies.Entries(limit) {
		fmt.Fprintf(c.out, "%s  %s\n", codeColor.Sprint(e.Code), e.Name)
	}
	return nil
}

func (c *cli) convert(rawAmount, rawFrom, rawTo string) error {
	amount, err := currency.ParseAmount(rawAmount)
	if err != nil {
		errorColor.Fprintln(c.out, err)
		return errFailed
	}
	from := strings.ToUpper(strings.TrimSpace(rawFrom))
	to := strings.ToUpper(strings.TrimSpace(rawTo))
	for _, code := range []string{from, to} {
		if !currency.IsValidCode(code) {
			errorColor.Fprintf(c.out, "%v: %q\n", currency.ErrInvalidCurrencyCode, code)
			return errFailed
		}
	}

	// A load settling after the conversion would overwrite its outcome.
	_ = c.wait(c.deps.InitialLoad)
	if err := c.wait(c.deps.Service.Convert(amount, from, to)); errors.Is(err, context.DeadlineExceeded) {
		errorColor.Fprintln(c.out, "Timed out waiting for the conversion")
		return errFailed
	}

	st := c.deps.Service.Snapshot()
	switch {
	case st.HasError():
		errorColor.Fprintln(c.out, st.Error)
		return errFailed
	case !st.HasResult():
		errorColor.Fprintf(c.out, "No rate available for %s\n", to)
		return errFailed
	}
	fmt.Fprintf(c.out, "%s %s = %s\n",
		currency.FormatAmount(amount),
		codeColor.Sprint(from),
		resultColor.Sprint(currency.Display(*st.Result, to)),
	)
	return nil
}

// prompt reads "amount from to" lines until EOF or "quit". Failed lines
// are reported and the loop continues.
func (c *cli) prompt(showHints bool) error {
	if showHints {
		hintColor.Fprintln(c.out, `Enter "amount from to" (e.g. 100 USD BRL), "list" or "quit".`)
	}
	scanner := bufio.NewScanner(c.in)
	for {
		if showHints {
			fmt.Fprint(c.out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		switch {
		case len(fields) == 0:
			continue
		case fields[0] == "quit" || fields[0] == "exit":
			return nil
		case fields[0] == "list":
			_ = c.list(c.limit)
		case len(fields) == 3:
			_ = c.convert(fields[0], fields[1], fields[2])
		default:
			errorColor.Fprintln(c.out, `Expected "amount from to"`)
		}
	}
}
