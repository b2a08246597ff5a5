package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"aquadash/internal/config"
	"aquadash/internal/db"
	"aquadash/internal/migrate"
	"aquadash/pkg/client"
)

const usage = `usage: aquactl <command>
  list                         print the 20 most recent readings
  push <temperature> <status>  store a reading (status: -1, 0, 1)
  watch                        print readings every refresh interval (Enter refreshes now)
  migrate                      apply pending SQLite migrations (DATABASE_URL)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "aquactl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, out io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	if args[0] == "migrate" {
		return runMigrate(ctx, out)
	}

	c, err := client.New(os.Getenv("AQUADASH_URL"))
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		env, err := c.Logs().List(ctx)
		if err != nil {
			return err
		}
		return printLogs(out, env.Results)
	case "push":
		in, err := parsePush(args[1:])
		if err != nil {
			return err
		}
		env, err := c.Logs().Create(ctx, in)
		if err != nil {
			var re *client.ResponseError
			if errors.As(err, &re) && len(re.Results) > 0 {
				for field, msgs := range re.Results {
					for _, m := range msgs {
						fmt.Fprintf(out, "%s: %s\n", field, m)
					}
				}
			}
			return err
		}
		fmt.Fprintf(out, "stored %s\n", env.Results.ID)
		return nil
	case "watch":
		return watch(ctx, c, stdin, out, client.DefaultRefreshInterval)
	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
}

func parsePush(args []string) (client.LogInput, error) {
	if len(args) != 2 {
		return client.LogInput{}, errors.New("push needs <temperature> <status>")
	}
	temp, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return client.LogInput{}, fmt.Errorf("temperature %q: %w", args[0], err)
	}
	status, err := strconv.Atoi(args[1])
	if err != nil {
		return client.LogInput{}, fmt.Errorf("status %q: %w", args[1], err)
	}
	return client.LogInput{Temperature: temp, Status: status}, nil
}

// watch polls the logs endpoint and reprints the table on every change. A
// line on stdin acts like a focus event and refetches immediately.
func watch(ctx context.Context, c *client.Client, stdin io.Reader, out io.Writer, interval time.Duration) error {
	poller := client.NewPoller("logs", client.Fetcher[[]client.Log](c.Logs().List), client.PollerOptions[[]client.Log]{
		Interval:          interval,
		RevalidateOnFocus: true,
		OnUpdate: func(s client.State[[]client.Log]) {
			switch {
			case s.IsValidating:
				return
			case s.Err != nil:
				fmt.Fprintf(out, "refresh failed: %v\n", s.Err)
			default:
				fmt.Fprintf(out, "-- %s\n", time.Now().Format(time.DateTime))
				_ = printLogs(out, s.Data)
			}
		},
	})

	if stdin != nil {
		go func() {
			buf := make([]byte, 256)
			for {
				n, err := stdin.Read(buf)
				if n > 0 {
					poller.Focus()
				}
				if err != nil {
					return
				}
			}
		}()
	}

	return poller.Run(ctx)
}

func printLogs(out io.Writer, logs []client.Log) error {
	if len(logs) == 0 {
		_, err := fmt.Fprintln(out, "No data")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTEMPERATURE\tSTATUS")
	for _, l := range logs {
		fmt.Fprintf(tw, "%s\t%.2f°C\t%s\n", l.CreatedAt.Local().Format("02/01/2006, 15:04"), l.Temperature, client.StatusText(l.Status))
	}
	return tw.Flush()
}

func runMigrate(ctx context.Context, out io.Writer) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if cfg.Driver != config.DriverSQLite {
		return fmt.Errorf("migrate: %s stores need no migrations", cfg.Driver)
	}

	conn, err := db.OpenSQLite(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := migrate.Run(ctx, conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	_, err = fmt.Fprintln(out, "migrations applied")
	return err
}
