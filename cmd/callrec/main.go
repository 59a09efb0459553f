package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"callrec/internal/bootstrap"
	hostdto "callrec/internal/modules/host/dto"
	recordingdto "callrec/internal/modules/recording/dto"
	"callrec/internal/platform/config"
	"callrec/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataPath string

	root := &cobra.Command{
		Use:           "callrec",
		Short:         "Automatic phone call recorder",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataPath, "data", ".", "data directory holding recordings and state")

	root.AddCommand(newDaemonCmd(&dataPath))
	root.AddCommand(newSignalCmd(&dataPath))
	root.AddCommand(newRecordingsCmd(&dataPath))
	root.AddCommand(newSettingsCmd(&dataPath))
	root.AddCommand(newStatusCmd(&dataPath))
	root.AddCommand(newEventsCmd(&dataPath))
	root.AddCommand(newRecordCmd(&dataPath))
	root.AddCommand(newTUICmd(&dataPath))
	return root
}

func loadApp(dataPath string) (*bootstrap.App, error) {
	cfg, err := config.New(dataPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, nil)
}

// withApp runs fn against a fully wired app and closes it afterwards.
func withApp(dataPath string, fn func(app *bootstrap.App) error) error {
	app, err := loadApp(dataPath)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newDaemonCmd(dataPath *string) *cobra.Command {
	daemon := &cobra.Command{Use: "daemon", Short: "Manage the recorder daemon"}
	daemon.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				ctx, stop := interruptContext()
				defer stop()
				return app.HostCLI.RunDaemon(ctx)
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:    "__run",
		Short:  "Run the daemon with file logging",
		Hidden: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.New(*dataPath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DaemonDir(), 0o755); err != nil {
				return fmt.Errorf("create daemon dir: %w", err)
			}
			logger, closer := logging.NewDaemon(cfg.Log, cfg.DaemonDir())
			defer closer.Close()
			app, err := bootstrap.New(cfg, logger)
			if err != nil {
				logger.Error("bootstrap daemon", "error", err)
				return err
			}
			defer app.Close()
			ctx, stop := interruptContext()
			defer stop()
			return app.HostCLI.RunDaemon(ctx)
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				if err := app.HostCLI.StartDaemon(context.Background()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon started")
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				if err := app.HostCLI.StopDaemon(context.Background()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				status, err := app.HostCLI.DaemonStatus(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "running=%t pid=%d host=%s socket=%s\n", status.Running, status.PID, status.HostAddress, status.SignalSocket)
				if status.Live != nil {
					printStatus(cmd, *status.Live)
				}
				return nil
			})
		},
	})
	var logTail int
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				payload, err := app.HostCLI.DaemonLogs(context.Background(), logTail)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), payload)
				return nil
			})
		},
	}
	logs.Flags().IntVar(&logTail, "tail", 200, "log lines to show from the end")
	daemon.AddCommand(logs)
	return daemon
}

func newSignalCmd(dataPath *string) *cobra.Command {
	var number string
	cmd := &cobra.Command{
		Use:   "signal <IDLE|RINGING|OFFHOOK>",
		Short: "Forward a call-state change to the running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				out, err := app.MonitorCLI.Signal(context.Background(), args[0], number)
				if err != nil {
					return err
				}
				if out.Ignored {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ignored %s\n", strings.ToUpper(args[0]))
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s action=%s", out.From, out.To, out.Action)
				if out.Direction != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " direction=%s number=%s", out.Direction, out.Number)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "caller number reported with RINGING")
	return cmd
}

func newRecordingsCmd(dataPath *string) *cobra.Command {
	recordings := &cobra.Command{Use: "recordings", Short: "Browse and manage recordings"}

	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List recordings, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				recs, err := app.ArchiveCLI.List(context.Background())
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(recs)
				}
				if len(recs) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no recordings")
					return nil
				}
				for _, r := range recs {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s", r.LastModified.Format(time.DateTime), r.FileSize, r.FilePath)
					if r.CallType != "" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\t%s %s %ds", r.CallType, r.PhoneNumber, r.DurationSeconds)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	recordings.AddCommand(list)

	recordings.AddCommand(&cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a recording file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				out, err := app.ArchiveCLI.Delete(context.Background(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted=%t\n", out.Deleted)
				return nil
			})
		},
	})
	recordings.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the directory new recordings are written to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				path, err := app.ArchiveCLI.Path(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	})
	recordings.AddCommand(&cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the recording index from the files on disk",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				out, err := app.ArchiveCLI.Reindex(context.Background())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "indexed=%d removed=%d\n", out.Indexed, out.Removed)
				return nil
			})
		},
	})
	return recordings
}

func newSettingsCmd(dataPath *string) *cobra.Command {
	settings := &cobra.Command{Use: "settings", Short: "Recorder preferences"}
	settings.AddCommand(&cobra.Command{
		Use:       "auto-record [on|off]",
		Short:     "Show or set automatic call recording",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				ctx := context.Background()
				if len(args) == 0 {
					enabled, err := app.SettingsCLI.AutoRecord(ctx)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "auto_record=%t\n", enabled)
					return nil
				}
				var enabled bool
				switch strings.ToLower(args[0]) {
				case "on", "true":
					enabled = true
				case "off", "false":
				default:
					return fmt.Errorf("expected on or off, got %q", args[0])
				}
				out, err := app.SettingsCLI.SetAutoRecord(ctx, enabled)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "auto_record=%t\n", out.Enabled)
				return nil
			})
		},
	})
	return settings
}

func newStatusCmd(dataPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's live recording status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				status, err := app.HostCLI.Status(ctx)
				if err != nil {
					return err
				}
				printStatus(cmd, status)
				return nil
			})
		},
	}
}

func newEventsCmd(dataPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Stream completed recordings from the daemon as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				ctx, stop := interruptContext()
				defer stop()
				enc := json.NewEncoder(cmd.OutOrStdout())
				err := app.HostCLI.WatchEvents(ctx, func(e hostdto.Event) {
					_ = enc.Encode(e)
				})
				if ctx.Err() != nil {
					return nil
				}
				return err
			})
		},
	}
}

func newRecordCmd(dataPath *string) *cobra.Command {
	record := &cobra.Command{Use: "record", Short: "Manual recording without the daemon"}

	var number, direction string
	start := &cobra.Command{
		Use:   "start",
		Short: "Record in the foreground until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				ctx, stop := interruptContext()
				defer stop()
				session, err := app.RecordingCLI.Start(ctx, number, direction)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recording %s source=%s, press Ctrl+C to stop\n", session.FilePath, session.AudioSource)
				<-ctx.Done()

				out, err := app.RecordingCLI.Stop(context.Background())
				if err != nil {
					return err
				}
				printResult(cmd, out.Result)
				return nil
			})
		},
	}
	start.Flags().StringVar(&number, "number", "", "phone number to tag the file with")
	start.Flags().StringVar(&direction, "direction", "outgoing", "call direction: incoming|outgoing")
	record.AddCommand(start)

	record.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Finalize a recording left behind by an interrupted process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*dataPath, func(app *bootstrap.App) error {
				ctx := context.Background()
				if status, err := app.HostCLI.DaemonStatus(ctx); err == nil && status.Running {
					return fmt.Errorf("daemon pid=%d owns the active recording, send it an IDLE signal instead", status.PID)
				}
				out, err := app.RecordingCLI.Recover(ctx)
				if err != nil {
					return err
				}
				printResult(cmd, out.Result)
				return nil
			})
		},
	})
	return record
}

func newTUICmd(dataPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.New(*dataPath)
			if err != nil {
				return err
			}
			// Keep log lines off the alternate screen.
			app, err := bootstrap.New(cfg, logging.Discard())
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

func printStatus(cmd *cobra.Command, s hostdto.StatusOutput) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recording=%t source=%s auto_record=%t path=%s\n", s.Recording, s.AudioSource, s.AutoRecord, s.RecordingPath)
}

func printResult(cmd *cobra.Command, r *recordingdto.ResultOutput) {
	if r == nil {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active recording")
		return
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s duration=%ds size=%d source=%s\n", r.FilePath, r.DurationSeconds, r.FileSizeBytes, r.AudioSource)
}
