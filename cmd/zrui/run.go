package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/inkterm/zrui/pkg/layout"
	"github.com/inkterm/zrui/pkg/termio"
	"github.com/inkterm/zrui/pkg/theme"
	"github.com/inkterm/zrui/pkg/zrui"
)

type routeConfig struct {
	Name string `toml:"name"`
}

// runConfig is the routes.toml shape "zrui run" loads: a theme override
// path, the route to mount first, and the named pages to register out of
// pageRegistry.
type runConfig struct {
	Theme   string        `toml:"theme"`
	Initial string        `toml:"initial"`
	Routes  []routeConfig `toml:"route"`
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <routes.toml>",
		Short: "Run the app against the real terminal",
		Long: `Loads a theme and a route table from a TOML config, puts the terminal
into raw mode, and drives a live session until interrupted with Ctrl+C.`,
		Example: `  zrui run routes.toml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args[0])
		},
	}
	return cmd
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := runConfig{Initial: "home"}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return runConfig{}, errors.Wrapf(err, "run: parsing %s", path)
	}
	if len(cfg.Routes) == 0 {
		cfg.Routes = []routeConfig{{Name: cfg.Initial}}
	}
	return cfg, nil
}

func buildRoutes(cfg runConfig) ([]zrui.Route, error) {
	routes := make([]zrui.Route, 0, len(cfg.Routes))
	for _, r := range cfg.Routes {
		component, ok := pageRegistry[r.Name]
		if !ok {
			return nil, fmt.Errorf("run: no built-in page named %q", r.Name)
		}
		routes = append(routes, zrui.Route{Name: r.Name, Component: component})
	}
	return routes, nil
}

func runRun(ctx context.Context, configPath string) error {
	cfg, err := loadRunConfig(configPath)
	if err != nil {
		return err
	}

	palette := theme.Default()
	if cfg.Theme != "" {
		palette, err = theme.Load(cfg.Theme)
		if err != nil {
			return err
		}
	}

	routes, err := buildRoutes(cfg)
	if err != nil {
		return err
	}

	term := termio.NewProcessTerminal()
	sink := termio.NewSink(term)
	app := zrui.NewApp(routes[0].Component, routes[0].Props, layout.Rect{W: term.Columns(), H: term.Rows()}, sink)

	if err := app.ReplaceRoutes(routes, cfg.Initial); err != nil {
		return errors.Wrap(err, "run: replace routes")
	}
	if err := app.SetTheme(palette); err != nil {
		return errors.Wrap(err, "run: set theme")
	}

	pump := termio.NewPump(term, app)
	if err := pump.Start(); err != nil {
		return errors.Wrap(err, "run: start terminal")
	}
	defer pump.Stop()

	if err := app.Start(ctx); err != nil {
		return errors.Wrap(err, "run: start app")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
	case <-sigCh:
	}

	return app.Stop()
}
