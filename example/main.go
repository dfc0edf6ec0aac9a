package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ose-micro/mediator"
	"github.com/ose-micro/mediator/bus"
	"github.com/ose-micro/mediator/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "mediator-example",
		Short:        "Send meeting commands through the mediator",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(newSendCmd(&configPath), newListenCmd(&configPath))
	return root
}

func newSendCmd(configPath *string) *cobra.Command {
	var meetingID, userID int

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Join a user to a meeting and emit the resulting events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := mediator.Send[*JoinMeetingResult](cmd.Context(), app.mediator, NewJoinMeetingCommand(meetingID, userID))
			if err != nil {
				app.log.Error("send failed", zap.Error(err))
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "user %d joined meeting %d (%d participants)\n", userID, result.MeetingID, result.Participants)
			return nil
		},
	}
	cmd.Flags().IntVar(&meetingID, "meeting", 1, "meeting id")
	cmd.Flags().IntVar(&userID, "user", 1, "user id")
	return cmd
}

func newListenCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print events forwarded to the configured broker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.broker == nil {
				return errors.New("no broker configured")
			}

			for _, name := range app.events.Events() {
				err := app.broker.Listen(cmd.Context(), name, "", func(_ context.Context, msg bus.Message) error {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", msg.ID, msg.Name, msg.Payload)
					return nil
				})
				if err != nil {
					return err
				}
			}

			app.log.Info("listening for events, press Ctrl+C to exit")
			<-cmd.Context().Done()
			return nil
		},
	}
}

type app struct {
	log      *zap.Logger
	events   *mediator.EventRegistry
	mediator *mediator.Mediator
	bus      bus.Bus
	broker   *bus.Broker
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := config.NewLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}

	chain, err := config.BuildChain(cfg.Middleware, log, prometheus.NewRegistry())
	if err != nil {
		return nil, err
	}

	b, err := config.OpenBus(ctx, cfg.Broker, log)
	if err != nil {
		return nil, err
	}

	requests := mediator.NewRequestRegistry()
	events := mediator.NewEventRegistry()
	c := newContainer(log)
	register(requests, events)

	emitter := mediator.NewEventEmitter(events, c, config.EmitterOptions(cfg.Broker, b, log)...)

	a := &app{
		log:    log,
		events: events,
		mediator: mediator.New(requests, c,
			mediator.WithMiddlewareChain(chain),
			mediator.WithEventEmitter(emitter),
		),
		bus: b,
	}
	if b != nil {
		a.broker = bus.NewBroker(b, bus.WithSubjectPrefix(cfg.Broker.SubjectPrefix), bus.WithLogger(log))
	}
	return a, nil
}

func (a *app) Close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.log.Warn("failed to close bus", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
