package main

import (
	"context"
	"fmt"

	"github.com/OCAP2/geotime/internal/config"
	"github.com/OCAP2/geotime/internal/dispatcher"
	"github.com/OCAP2/geotime/internal/handlers"
	"github.com/OCAP2/geotime/internal/logging"
	"github.com/OCAP2/geotime/internal/server"
	"github.com/OCAP2/geotime/internal/storage"
	"github.com/OCAP2/geotime/internal/stream"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr string
		demo bool
		plan string
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the planning API and the frame stream",
		GroupID: "core",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = config.GetServerConfig().Addr
			}
			return a.serve(cmd.Context(), addr, demo, plan)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().BoolVar(&demo, "demo", false, "start with the demo scenario loaded")
	cmd.Flags().StringVar(&plan, "plan", "", "saved plan to load at startup")
	return cmd
}

// serve runs the HTTP server, the timeline loop and any storage background
// work until ctx is cancelled or one of them fails.
func (a *app) serve(ctx context.Context, addr string, demo bool, plan string) error {
	backend, err := a.openBackend()
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			a.logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	ws, err := a.newWorkspace(ctx, backend)
	if err != nil {
		return err
	}
	defer ws.Close()

	switch {
	case plan != "":
		res, err := ws.Load(ctx, plan)
		if err != nil {
			return fmt.Errorf("%s: %w", res.Message, err)
		}
		a.logger.Info(res.Message)
	case demo:
		a.logger.Info(ws.LoadDemo().Message)
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(a.logs.Zerolog()))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	defer d.Close()
	handlers.NewService(ws).RegisterHandlers(d)
	a.logger.Info("Command handlers registered", "commands", d.Commands())

	hub := stream.NewHub(d, ws.Frame, ws.Logger())
	srv := server.New(addr, a.logger, ws, hub)
	tick := config.GetTimelineConfig().TickInterval

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return ws.Run(gctx, tick, hub.Broadcast) })
	if r, ok := backend.(storage.Runner); ok {
		g.Go(func() error { return r.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down")
		hub.Close()
		_ = ws.Close()
		return srv.Shutdown(context.Background())
	})

	fmt.Fprintf(a.out, "%s listening on %s\n", AppName, addr)
	return g.Wait()
}
