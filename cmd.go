package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vlreinier/DFRobot-PH-2024/pkg/calibration"
	"github.com/vlreinier/DFRobot-PH-2024/pkg/config"
	"github.com/vlreinier/DFRobot-PH-2024/pkg/output"
	"github.com/vlreinier/DFRobot-PH-2024/pkg/output/console"
	"github.com/vlreinier/DFRobot-PH-2024/pkg/output/mqtt"
	"github.com/vlreinier/DFRobot-PH-2024/pkg/ph"
	"github.com/vlreinier/DFRobot-PH-2024/pkg/sensor"
	"github.com/vlreinier/DFRobot-PH-2024/pkg/version"
)

var (
	logLevel        = "info"
	configPath      = ""
	calibrationPath = ""
	sensorType      = ""
	i2cBus          = ""
	i2cAddress      = ""
	outputTypes     = ""
)

// NewCommand .
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dfrobot-ph",
		Short:        "dfrobot-ph reads and calibrates a DFRobot analog pH probe",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVarP(&configPath, "config", "c", "", "path to JSON config file")
	globalFlags.StringVar(&calibrationPath, "calibration-file", "", "path to the calibration JSON file")
	globalFlags.StringVar(&sensorType, "sensor-type", "", "sensor type: real|simulation")
	globalFlags.StringVar(&i2cBus, "i2c-bus", "", "I2C bus (e.g. '1' -> /dev/i2c-1)")
	globalFlags.StringVar(&i2cAddress, "i2c-address", "", "I2C address (decimal or 0x hex)")
	globalFlags.StringVar(&outputTypes, "outputs", "", "comma-separated outputs (console,mqtt)")

	cmd.AddCommand(
		NewReadCommand(),
		NewMonitorCommand(),
		NewCalibrateCommand(),
		NewResetCommand(),
		NewSetCommand(),
		NewShowCommand(),
		NewVersionCommand(),
	)

	return cmd
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		FullTimestamp:   true,
	})
	return nil
}

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if err := applyOverrides(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyOverrides(cfg *config.Config) error {
	if calibrationPath != "" {
		cfg.CalibrationPath = calibrationPath
	}
	if sensorType != "" {
		cfg.SensorType = sensorType
	}
	if i2cBus != "" {
		cfg.I2CBus = i2cBus
	}
	if i2cAddress != "" {
		v, err := config.ParseIntOrHex(i2cAddress)
		if err != nil {
			return fmt.Errorf("i2c-address: %w", err)
		}
		cfg.I2CAddress = v
	}
	if outputTypes != "" {
		types := config.ParseCSV(outputTypes)
		outs := make([]config.OutputConfig, 0, len(types))
		for _, t := range types {
			oc := config.OutputConfig{Type: t}
			// keep mqtt settings from the config file, if any
			for _, existing := range cfg.Outputs {
				if strings.EqualFold(existing.Type, t) && existing.MQTT != nil {
					oc.MQTT = existing.MQTT
				}
			}
			outs = append(outs, oc)
		}
		cfg.Outputs = outs
	}
	return nil
}

func newProbe(cfg config.Config) *ph.Probe {
	store := calibration.NewStore(cfg.CalibrationPath)
	store.Load()
	probe := ph.NewProbe(store)
	probe.RoundTo = cfg.RoundTo
	probe.TempCoefficient = cfg.TemperatureCoefficient
	return probe
}

func newSensor(cfg config.Config) (sensor.Sensor, error) {
	switch cfg.SensorType {
	case "simulation":
		return sensor.NewFakeSensor(cfg)
	default:
		return sensor.NewADS1115Sensor(cfg)
	}
}

func initOutputs(cfg config.Config) ([]output.Output, error) {
	outs := make([]output.Output, 0, len(cfg.Outputs))
	for _, oc := range cfg.Outputs {
		switch strings.ToLower(oc.Type) {
		case "console":
			outs = append(outs, console.NewConsole())
		case "mqtt":
			mc := config.MQTTConfig{}
			if oc.MQTT != nil {
				mc = *oc.MQTT
			}
			o, err := mqtt.NewMQTT(mc)
			if err != nil {
				closeOutputs(outs)
				return nil, err
			}
			outs = append(outs, o)
		default:
			closeOutputs(outs)
			return nil, fmt.Errorf("unknown output type %q", oc.Type)
		}
	}
	return outs, nil
}

func closeOutputs(outs []output.Output) {
	for _, o := range outs {
		if err := o.Close(); err != nil {
			logrus.Warnf("output close: %v", err)
		}
	}
}

// readOnce opens the configured sensor, takes one reading and closes it.
func readOnce(cfg config.Config) (sensor.Reading, error) {
	s, err := newSensor(cfg)
	if err != nil {
		return sensor.Reading{}, err
	}
	defer s.Close()
	return s.Read()
}

// convert turns a raw reading into a measurement, compensating for solution
// temperature when one is configured.
func convert(probe *ph.Probe, cfg config.Config, r sensor.Reading) (output.Measurement, error) {
	m := output.Measurement{
		Millivolts: r.Millivolts,
		Raw:        r.Raw,
		Timestamp:  r.Timestamp,
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	var (
		value float64
		err   error
	)
	if cfg.TemperatureC != nil {
		value, err = probe.ReadPHWithTemperature(r.Millivolts, *cfg.TemperatureC)
		m.TemperatureC = cfg.TemperatureC
	} else {
		value, err = probe.ReadPH(r.Millivolts)
	}
	if err != nil {
		return output.Measurement{}, err
	}
	m.PH = value
	return m, nil
}

func publishAll(outs []output.Output, m output.Measurement) {
	for _, o := range outs {
		if err := o.Publish(m); err != nil {
			logrus.Errorf("publish: %v", err)
		}
	}
}

func showVoltages(rec calibration.Record) {
	logrus.Infof("active neutral voltage for pH 7: %.2f mV", rec.NeutralVoltage)
	logrus.Infof("active acid voltage for pH 4:    %.2f mV", rec.AcidVoltage)
}

// NewReadCommand .
func NewReadCommand() *cobra.Command {
	var (
		mv          float64
		temperature float64
	)
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Take one probe reading and publish the pH value",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !math.IsNaN(temperature) {
				cfg.TemperatureC = &temperature
			}
			probe := newProbe(cfg)

			reading := sensor.Reading{Channel: cfg.Channel, Millivolts: mv, Timestamp: time.Now()}
			if math.IsNaN(mv) {
				reading, err = readOnce(cfg)
				if err != nil {
					return err
				}
			}

			m, err := convert(probe, cfg, reading)
			if err != nil {
				return err
			}
			outs, err := initOutputs(cfg)
			if err != nil {
				return err
			}
			defer closeOutputs(outs)
			publishAll(outs, m)
			return nil
		},
	}
	cmd.Flags().Float64Var(&mv, "mv", math.NaN(), "convert this millivolt value instead of reading the ADC")
	cmd.Flags().Float64Var(&temperature, "temperature", math.NaN(), "solution temperature in C for compensation")
	return cmd
}

// NewMonitorCommand .
func NewMonitorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Read the probe periodically and publish to the configured outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			probe := newProbe(cfg)
			showVoltages(probe.Store.Record())

			s, err := newSensor(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			outs, err := initOutputs(cfg)
			if err != nil {
				return err
			}
			defer closeOutputs(outs)

			interval := time.Duration(cfg.IntervalMs) * time.Millisecond
			logrus.Infof("monitoring channel %d every %s", cfg.Channel, interval)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

			for {
				select {
				case <-ticker.C:
					reading, err := s.Read()
					if err != nil {
						logrus.Errorf("sensor read: %v", err)
						continue
					}
					m, err := convert(probe, cfg, reading)
					if err != nil {
						logrus.Errorf("convert: %v", err)
						continue
					}
					publishAll(outs, m)
				case sig := <-sigc:
					logrus.Infof("caught signal %s, shutting down", sig)
					return nil
				}
			}
		},
	}
}

// NewCalibrateCommand .
func NewCalibrateCommand() *cobra.Command {
	var (
		mv      float64
		neutral bool
		acid    bool
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Calibrate the probe against a buffer solution",
		Long: `Calibrate the probe against a buffer solution.

With the probe in a pH 7 or pH 4 buffer, the reading is classified
automatically. Use --neutral or --acid to force a designated point.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if neutral && acid {
				return fmt.Errorf("--neutral and --acid are mutually exclusive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			probe := newProbe(cfg)

			if math.IsNaN(mv) {
				reading, err := readOnce(cfg)
				if err != nil {
					return err
				}
				mv = reading.Millivolts
				logrus.Infof("probe reads %.2f mV", mv)
			}

			switch {
			case neutral:
				err = probe.CalibrateNeutral(mv)
			case acid:
				err = probe.CalibrateAcid(mv)
			default:
				err = probe.AutoCalibrate(mv)
			}
			if err != nil {
				return err
			}
			showVoltages(probe.Store.Record())
			return nil
		},
	}
	cmd.Flags().Float64Var(&mv, "mv", math.NaN(), "calibrate with this millivolt value instead of reading the ADC")
	cmd.Flags().BoolVar(&neutral, "neutral", false, "treat the reading as a pH 7 buffer")
	cmd.Flags().BoolVar(&acid, "acid", false, "treat the reading as a pH 4 buffer")
	return cmd
}

// NewResetCommand .
func NewResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the factory calibration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			probe := newProbe(cfg)
			if err := probe.Reset(); err != nil {
				return err
			}
			showVoltages(probe.Store.Record())
			return nil
		},
	}
}

// NewSetCommand .
func NewSetCommand() *cobra.Command {
	var (
		neutralMv float64
		acidMv    float64
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set both buffer voltages directly",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			probe := newProbe(cfg)
			if err := probe.SetPoints(neutralMv, acidMv); err != nil {
				return err
			}
			showVoltages(probe.Store.Record())
			return nil
		},
	}
	cmd.Flags().Float64Var(&neutralMv, "neutral", calibration.DefaultNeutralVoltage, "pH 7 buffer voltage in mV")
	cmd.Flags().Float64Var(&acidMv, "acid", calibration.DefaultAcidVoltage, "pH 4 buffer voltage in mV")
	return cmd
}

// NewShowCommand .
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active calibration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store := calibration.NewStore(cfg.CalibrationPath)
			rec := store.Load()
			showVoltages(rec)
			logrus.Infof("slope %.6f intercept %.4f", rec.Slope, rec.Intercept)
			return nil
		},
	}
}

// NewVersionCommand .
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s\n", version.Version)
		},
	}
}
