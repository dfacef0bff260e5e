package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	daikin280 "github.com/jattkaim/daikin280"
	"github.com/jattkaim/daikin280/internal/bridge"
	"github.com/jattkaim/daikin280/internal/config"
	"github.com/jattkaim/daikin280/internal/mqtt"
)

func main() {
	app := &cli.App{
		Name:  "daikin-bridge",
		Usage: "expose a Daikin firmware 2.8.0 unit to Home Assistant over MQTT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "device-addr",
				Usage:   "device address, optionally host:port",
				EnvVars: []string{"DAIKIN_ADDR"},
			},
			&cli.StringFlag{
				Name:    "device-name",
				Usage:   "friendly name for the unit",
				EnvVars: []string{"DAIKIN_NAME"},
			},
			&cli.StringFlag{
				Name:    "mqtt-broker",
				Usage:   "broker URL, e.g. tcp://localhost:1883",
				EnvVars: []string{"MQTT_BROKER"},
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "device poll interval",
				EnvVars: []string{"POLL_INTERVAL"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "zap log level",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the MQTT bridge",
				Action: runBridge,
			},
			{
				Name:   "status",
				Usage:  "print the current device state and exit",
				Action: printStatus,
			},
			{
				Name:      "set-temp",
				Usage:     "set the target temperature and exit",
				ArgsUsage: "<celsius>",
				Action:    setTemperature,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and lets explicit flags override it.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if ctx.IsSet("device-addr") {
		cfg.DeviceAddress = ctx.String("device-addr")
	}
	if ctx.IsSet("device-name") {
		cfg.DeviceName = ctx.String("device-name")
	}
	if ctx.IsSet("mqtt-broker") {
		cfg.MQTT.Broker = ctx.String("mqtt-broker")
	}
	if ctx.IsSet("poll-interval") {
		cfg.PollInterval = ctx.Duration("poll-interval")
	}
	if ctx.IsSet("log-level") {
		cfg.LogLevel = ctx.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.Level = lvl
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddStacktrace(zap.ErrorLevel)))
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func runBridge(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	device, err := daikin280.Connect(ctx.Context, cfg.DeviceAddress, daikin280.NewZapAdapter(logger))
	if err != nil {
		return err
	}

	client := mqtt.NewClient(mqtt.Config{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		WillTopic:   bridge.AvailabilityTopic(cfg.MQTT.TopicPrefix, device.ID()),
		WillPayload: "offline",
	}, logger)

	b := bridge.New(device, client, cfg, logger)
	if err := b.Start(ctx.Context); err != nil {
		return err
	}
	defer b.Stop()

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	logger.Info("shutting down")
	return nil
}

func printStatus(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	device, err := daikin280.Connect(ctx.Context, cfg.DeviceAddress, nil)
	if err != nil {
		return err
	}

	state := device.State()
	fmt.Printf("Device:   %s (%s)\n", device.ID(), device.DeviceIP())
	fmt.Printf("Mode:     %s\n", state.HVACMode)
	fmt.Printf("Fan:      %s\n", state.FanMode)
	fmt.Printf("Swing:    %s\n", state.SwingMode)
	printTemp := func(label string, v *float64) {
		if v != nil {
			fmt.Printf("%s %.1f°C\n", label, *v)
		}
	}
	printTemp("Inside:  ", state.CurrentTemperature)
	printTemp("Outside: ", state.OutsideTemperature)
	printTemp("Target:  ", state.TargetTemperature)
	if state.CurrentHumidity != nil {
		fmt.Printf("Humidity: %d%%\n", *state.CurrentHumidity)
	}
	fmt.Printf("Energy:   %.3f kWh today\n", state.EnergyTodayKWh)
	fmt.Printf("Runtime:  %d min today\n", state.RuntimeTodayMin)
	return nil
}

func setTemperature(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: the target temperature")
	}
	var celsius float64
	if _, err := fmt.Sscanf(ctx.Args().First(), "%f", &celsius); err != nil {
		return fmt.Errorf("invalid temperature %q", ctx.Args().First())
	}

	device, err := daikin280.Connect(ctx.Context, cfg.DeviceAddress, nil)
	if err != nil {
		return err
	}
	if err := device.SetTemperature(ctx.Context, celsius); err != nil {
		return err
	}
	if msg := device.AdjustmentMessage(); msg != "" {
		fmt.Println(msg)
	} else if t := device.State().TargetTemperature; t != nil {
		fmt.Printf("target temperature set to %.1f°C\n", *t)
	}
	return nil
}
