package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"outlookcal/internal/caldav"
	"outlookcal/internal/datetime"
	"outlookcal/internal/graph"
	"outlookcal/internal/ics"
	"outlookcal/internal/mirror"
	"outlookcal/internal/models"

	"github.com/urfave/cli/v2"
)

func windowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "Only events starting at or after this time (e.g. 2021-10-09T09:00, 'tomorrow')."},
		&cli.StringFlag{Name: "to", Usage: "Only events ending at or before this time."},
		&cli.IntFlag{Name: "top", Value: graph.DefaultTop, Usage: "Maximum number of events to fetch."},
	}
}

// windowFromFlags reads --from, --to and --top in the configured zone.
func windowFromFlags(c *cli.Context, loc *time.Location) (graph.Window, error) {
	w := graph.Window{Top: c.Int("top")}
	now := time.Now()
	if s := c.String("from"); s != "" {
		t, err := datetime.Parse(s, loc, now)
		if err != nil {
			return w, fmt.Errorf("invalid --from: %w", err)
		}
		w.From = t
	}
	if s := c.String("to"); s != "" {
		t, err := datetime.Parse(s, loc, now)
		if err != nil {
			return w, fmt.Errorf("invalid --to: %w", err)
		}
		w.To = t
	}
	if !w.From.IsZero() && !w.To.IsZero() && !w.To.After(w.From) {
		return w, fmt.Errorf("--to must be after --from")
	}
	return w, nil
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in with a Microsoft account and store the token.",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			logger.Info("Starting Microsoft authentication flow.")

			provider, err := newProvider(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create token provider: %w", err)
			}

			fmt.Printf("Go to the following link in your browser, sign in, then paste the "+
				"'code' parameter of the page you land on: \n%v\n", provider.AuthCodeURL("state-token"))

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)
			if authCode == "" {
				return fmt.Errorf("no authorization code entered")
			}

			if err := provider.Exchange(c.Context, authCode); err != nil {
				return err
			}

			logger.Info("Successfully authenticated and saved token.", "file", cfg.TokenFile)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List upcoming events ordered by start time.",
		Flags: windowFlags(),
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			client, err := newGraphClient(cfg, logger)
			if err != nil {
				return err
			}
			w, err := windowFromFlags(c, cfg.Location)
			if err != nil {
				return err
			}

			events, err := client.ListEvents(c.Context, w)
			if err != nil {
				return err
			}
			return printEvents(os.Stdout, events, cfg.Location)
		},
	}
}

func printEvents(out io.Writer, events []models.Event, loc *time.Location) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBJECT\tORGANIZER\tSTART\tEND")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Subject, e.Organizer, displayTime(e.Start, loc), displayTime(e.End, loc))
	}
	return tw.Flush()
}

// displayTime falls back to the raw string if Graph sent something unexpected.
func displayTime(s string, loc *time.Location) string {
	t, err := models.ParseGraphDateTime(s, loc)
	if err != nil {
		return s
	}
	return datetime.Display(t, loc)
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create an event in the signed-in user's calendar.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Required: true, Usage: "Event subject."},
			&cli.StringFlag{Name: "start", Required: true, Usage: "Start time (e.g. 2021-10-09T09:00, 'Oct 9, 2021 at 9:00 AM', 'tomorrow at 9am')."},
			&cli.StringFlag{Name: "end", Required: true, Usage: "End time, same formats as --start."},
			&cli.StringFlag{Name: "attendees", Usage: "Semicolon separated attendee addresses."},
			&cli.StringFlag{Name: "body", Usage: "Plain text body."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			now := time.Now()
			start, err := datetime.Parse(c.String("start"), cfg.Location, now)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := datetime.Parse(c.String("end"), cfg.Location, now)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			attendees, err := models.ParseAttendees(c.String("attendees"))
			if err != nil {
				return err
			}

			client, err := newGraphClient(cfg, logger)
			if err != nil {
				return err
			}
			created, err := client.CreateEvent(c.Context, models.NewEvent{
				Subject:   c.String("subject"),
				Start:     start,
				End:       end,
				Attendees: attendees,
				Body:      c.String("body"),
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created %q (%s - %s)\n%s\n", created.Subject,
				datetime.Display(start, cfg.Location), datetime.Display(end, cfg.Location), created.WebLink)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write listed events to an iCalendar file.",
		Flags: append(windowFlags(),
			&cli.StringFlag{Name: "out", Value: "outlook.ics", Usage: "Output file, '-' for stdout."},
		),
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			client, err := newGraphClient(cfg, logger)
			if err != nil {
				return err
			}
			w, err := windowFromFlags(c, cfg.Location)
			if err != nil {
				return err
			}

			events, err := client.ListEvents(c.Context, w)
			if err != nil {
				return err
			}

			out := c.String("out")
			if out == "-" {
				return ics.Encode(os.Stdout, events, cfg.Location, time.Now())
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("unable to create %s: %w", out, err)
			}
			defer f.Close()
			if err := ics.Encode(f, events, cfg.Location, time.Now()); err != nil {
				return err
			}

			logger.Info("Exported events.", "count", len(events), "file", out)
			return f.Close()
		},
	}
}

func mirrorCommand() *cli.Command {
	return &cli.Command{
		Name:  "mirror",
		Usage: "Copy listed events into a CalDAV calendar.",
		Flags: append(windowFlags(),
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be mirrored without making changes."},
			&cli.IntFlag{Name: "watch", Value: 300, Usage: "Mirror every N seconds instead of once."},
		),
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if err := cfg.ValidateCalDAV(); err != nil {
				return err
			}
			if c.Bool("dry-run") {
				logger.Info("Performing a dry run. No changes will be made.")
			}

			client, err := newGraphClient(cfg, logger)
			if err != nil {
				return err
			}
			w, err := windowFromFlags(c, cfg.Location)
			if err != nil {
				return err
			}

			dav, err := caldav.NewClient(c.Context, logger, cfg.CalDAV.URL, cfg.CalDAV.Username,
				cfg.CalDAV.Password, cfg.CalDAV.Calendar, cfg.Timeout)
			if err != nil {
				return fmt.Errorf("failed to create caldav client: %w", err)
			}

			m, err := mirror.New(logger, client, dav, w, cfg.CalDAV.StateFile, c.Bool("dry-run"))
			if err != nil {
				return fmt.Errorf("failed to create mirror: %w", err)
			}

			if !c.IsSet("watch") {
				logger.Info("Running a single mirror cycle.")
				if _, err := m.Run(c.Context); err != nil {
					return fmt.Errorf("mirror cycle failed: %w", err)
				}
				return nil
			}

			interval := time.Duration(c.Int("watch")) * time.Second
			if interval <= 0 {
				return fmt.Errorf("--watch must be positive")
			}
			logger.Info("Starting watcher.", "interval", interval)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				if _, err := m.Run(c.Context); err != nil {
					logger.Error("Mirror cycle failed", "error", err)
				}
				select {
				case <-c.Context.Done():
					logger.Info("Stopping watcher.")
					return nil
				case <-ticker.C:
				}
			}
		},
	}
}
