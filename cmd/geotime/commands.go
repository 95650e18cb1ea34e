package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/OCAP2/geotime/internal/api"
	"github.com/OCAP2/geotime/internal/config"
	"github.com/OCAP2/geotime/internal/storage"
	"github.com/OCAP2/geotime/internal/timeline"
	"github.com/OCAP2/geotime/internal/workspace"
	"github.com/spf13/cobra"
)

// planSource selects the plan an offline command works on.
type planSource struct {
	name string // saved plan in the storage backend
	file string // plan file on disk, plain or gzip
	demo bool
}

func (s *planSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.name, "plan", "", "saved plan to load from storage")
	cmd.Flags().StringVar(&s.file, "file", "", "plan file to import (.json or .json.gz)")
	cmd.Flags().BoolVar(&s.demo, "demo", false, "use the demo scenario")
}

func (s planSource) needsBackend() bool {
	return s.name != ""
}

// session opens a workspace loaded from src. The returned close func
// releases the workspace and any backend.
func (a *app) session(ctx context.Context, src planSource, withBackend bool) (*workspace.Workspace, func(), error) {
	var backend storage.Backend
	if withBackend || src.needsBackend() {
		b, err := a.openBackend()
		if err != nil {
			return nil, nil, err
		}
		backend = b
	}
	closeAll := func() {
		if backend != nil {
			if err := backend.Close(); err != nil {
				a.logger.Error("Failed to close storage backend", "error", err)
			}
		}
	}

	ws, err := a.newWorkspace(ctx, backend)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closeWS := func() {
		_ = ws.Close()
		closeAll()
	}

	switch {
	case src.name != "":
		res, err := ws.Load(ctx, src.name)
		if err != nil {
			closeWS()
			return nil, nil, fmt.Errorf("%s: %w", res.Message, err)
		}
	case src.file != "":
		data, err := os.ReadFile(src.file)
		if err != nil {
			closeWS()
			return nil, nil, fmt.Errorf("reading plan file: %w", err)
		}
		res, err := ws.Import(data)
		if err != nil {
			closeWS()
			return nil, nil, fmt.Errorf("%s: %w", res.Message, err)
		}
	case src.demo:
		ws.LoadDemo()
	}
	return ws, closeWS, nil
}

func newRenderCmd(a *app) *cobra.Command {
	var (
		src    planSource
		cursor float64
	)
	cmd := &cobra.Command{
		Use:     "render",
		Short:   "Show the items visible at a timeline cursor",
		GroupID: "tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, done, err := a.session(cmd.Context(), src, false)
			if err != nil {
				return err
			}
			defer done()

			frame := ws.Render(cursor)
			fmt.Fprintf(a.out, "T=%s  clock %s  items %d  overlays %d\n",
				strconv.FormatFloat(frame.Cursor, 'f', -1, 64), frame.Clock, len(frame.Items), len(frame.Overlays))
			return writeItems(a.out, frame.Items)
		},
	}
	src.addFlags(cmd)
	cmd.Flags().Float64VarP(&cursor, "cursor", "t", 0, "timeline cursor, 0-100")
	return cmd
}

func newClockCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "clock CURSOR...",
		Short:   "Convert timeline cursors to 24h clock labels",
		GroupID: "tools",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			for _, arg := range args {
				t, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid cursor %q: %w", arg, err)
				}
				rows = append(rows, []string{arg, timeline.FormatClock(t)})
			}
			return writeTable(a.out, []string{"Cursor", "Clock"}, rows)
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	var src planSource
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Ask the AI collaborator for a situation report",
		GroupID: "tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, done, err := a.session(cmd.Context(), src, false)
			if err != nil {
				return err
			}
			defer done()

			res, err := ws.Report(cmd.Context())
			fmt.Fprintln(a.out, res.Message)
			return err
		},
	}
	src.addFlags(cmd)
	return cmd
}

func newPlotCmd(a *app) *cobra.Command {
	var (
		src    planSource
		save   string
		cursor float64
	)
	cmd := &cobra.Command{
		Use:     "plot COMMAND...",
		Short:   "Turn a tactical command into plotted map items",
		GroupID: "tools",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, done, err := a.session(cmd.Context(), src, save != "")
			if err != nil {
				return err
			}
			defer done()
			ws.Timeline().SetCursor(cursor)

			res, err := ws.ExecuteCommand(cmd.Context(), strings.Join(args, " "))
			fmt.Fprintln(a.out, res.Message)
			if err != nil {
				return err
			}
			if len(res.Items) > 0 {
				if err := writeItems(a.out, res.Items); err != nil {
					return err
				}
			}
			if save == "" {
				return nil
			}
			saved, err := ws.Save(cmd.Context(), save)
			fmt.Fprintln(a.out, saved.Message)
			return err
		},
	}
	src.addFlags(cmd)
	cmd.Flags().StringVar(&save, "save", "", "save the resulting plan under this name")
	cmd.Flags().Float64VarP(&cursor, "cursor", "t", 0, "timeline cursor the new items start at")
	return cmd
}

func newGeocodeCmd(a *app) *cobra.Command {
	var candidates int
	cmd := &cobra.Command{
		Use:     "geocode QUERY...",
		Short:   "Resolve a place name to coordinates",
		GroupID: "tools",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if candidates > 0 {
				cfg := config.GetAIConfig()
				places, err := api.New(cfg.NominatimURL, cfg.Timeout).Search(cmd.Context(), query, candidates)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(places))
				for _, p := range places {
					rows = append(rows, []string{p.DisplayName, formatCoord(p.Point.Lat), formatCoord(p.Point.Lng)})
				}
				return writeTable(a.out, []string{"Place", "Lat", "Lng"}, rows)
			}

			_, geocoder := a.newAI(cmd.Context())
			p, err := geocoder.Geocode(cmd.Context(), query)
			if err != nil {
				return err
			}
			return writeTable(a.out, []string{"Query", "Lat", "Lng"}, [][]string{{query, formatCoord(p.Lat), formatCoord(p.Lng)}})
		},
	}
	cmd.Flags().IntVar(&candidates, "candidates", 0, "list up to N Nominatim matches instead of resolving one point")
	return cmd
}

func newTemplatesCmd(a *app) *cobra.Command {
	var (
		show   string
		remove string
		custom bool
	)
	cmd := &cobra.Command{
		Use:     "templates",
		Short:   "List org chart templates, print one or delete a saved one",
		GroupID: "tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, done, err := a.session(cmd.Context(), planSource{}, true)
			if err != nil {
				return err
			}
			defer done()
			chart := ws.Chart()

			if remove != "" {
				if err := chart.DeleteTemplate(cmd.Context(), remove); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "deleted template %s\n", remove)
				return nil
			}

			if show != "" {
				tree, err := chart.LoadTemplate(cmd.Context(), show, custom)
				if err != nil {
					return err
				}
				writeTree(a.out, tree, 0)
				return nil
			}

			list, err := chart.Templates(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(list))
			for _, t := range list {
				kind := "built-in"
				if t.Custom {
					kind = "custom"
				}
				rows = append(rows, []string{t.Name, kind, strconv.Itoa(t.Nodes)})
			}
			return writeTable(a.out, []string{"Name", "Kind", "Nodes"}, rows)
		},
	}
	cmd.Flags().StringVar(&show, "show", "", "print the named template as an outline")
	cmd.Flags().StringVar(&remove, "delete", "", "delete the named saved template")
	cmd.Flags().BoolVar(&custom, "custom", false, "look the --show name up among saved templates")
	return cmd
}
