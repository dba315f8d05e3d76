// Command axisd is the per-board daemon: it loads a board's axis
// configuration, builds one axis.Axis per configured axis (against
// simhw's simulated collaborators, since this repository carries no
// real PWM/ADC/encoder drivers), starts each axis's worker and a paced
// tick source, and serves telemetry over HTTP. Config loading and the
// run/mkconf/conf subcommands follow the corpus's usual koanf-based
// setup.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"goji.io"
	yml "gopkg.in/yaml.v2"

	"github.com/nasa-jpl/axisctl/axis"
	"github.com/nasa-jpl/axisctl/boardio"
	"github.com/nasa-jpl/axisctl/hw"
	"github.com/nasa-jpl/axisctl/simhw"
	"github.com/nasa-jpl/axisctl/telemetry"
)

// Version is injected via ldflags at build time.
var Version = "dev"

// ConfigFileName is the default config path, overridable as argv[2].
var ConfigFileName = "axisd.yml"

var k = koanf.New(".")

// AxisSpec is one axis's full configuration: its endpoint name, mutable
// runtime config, and immutable hardware binding.
type AxisSpec struct {
	Name     string         `koanf:"name"`
	Config   axis.Config    `koanf:"config"`
	HWConfig axis.HWConfig  `koanf:"hwconfig"`

	CPR             int64   `koanf:"cpr"`
	UseIndex        bool    `koanf:"useindex"`
	HomingSpeed     float64 `koanf:"homingspeed"`
	MinEndstop      bool    `koanf:"minendstop"`
	MaxEndstop      bool    `koanf:"maxendstop"`
	DebugSerialPort string  `koanf:"debugserialport"`
	DebugSerialBaud int     `koanf:"debugserialbaud"`
}

// Config is the whole daemon's configuration: one board context shared
// by every axis, plus the list of axes to build.
type Config struct {
	ListenAddr string     `koanf:"listenaddr"`
	TickRateHz float64    `koanf:"tickratehz"`
	Axes       []AxisSpec `koanf:"axes"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
		TickRateHz: 8000,
		Axes: []AxisSpec{
			{
				Name:        "x",
				CPR:         8192,
				HomingSpeed: 2,
				MinEndstop:  true,
				Config: axis.Config{
					StartupMotorCalibration:         true,
					StartupEncoderOffsetCalibration: true,
				},
				HWConfig: axis.HWConfig{TickRateHz: 8000},
			},
		},
	}
}

// awaitConfigFile blocks, retrying with exponential backoff, until path
// exists. A board's config volume may not be mounted the instant axisd
// starts under some orchestration setups; this gives it a grace period
// instead of a hard crash-on-boot.
func awaitConfigFile(path string) error {
	check := func() error {
		_, err := os.Stat(path)
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	return backoff.Retry(check, b)
}

func setupConfig(path string) Config {
	k.Load(structs.Provider(defaultConfig(), "koanf"), nil)
	if err := awaitConfigFile(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			log.Fatalf("error loading config: %v", err)
		}
	} else {
		log.Printf("axisd: %s not found after waiting, running with defaults", path)
	}
	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		log.Fatalf("error unmarshaling config: %v", err)
	}
	return c
}

// runningAxis bundles a live axis with the pieces main needs to reload
// or tear it down.
type runningAxis struct {
	spec *AxisSpec
	ax   *axis.Axis
}

func buildAxis(board *boardio.BoardContext, spec AxisSpec, tickRate float64) *runningAxis {
	spec.HWConfig.TickRateHz = tickRate

	enc := simhw.NewEncoder(spec.CPR, spec.UseIndex)
	ctrl := simhw.NewController(spec.HomingSpeed)
	collab := axis.Collaborators{
		Motor:      &simhw.Motor{},
		Encoder:    enc,
		Sensorless: simhw.Sensorless{},
		Controller: ctrl,
		Trajectory: &simhw.Trajectory{},
		GPIO:       simhw.NewGPIO(),
		Board:      board,
	}
	if spec.MinEndstop {
		e := &hw.Endstop{Enabled: true, PhysicalEndstop: true, MinMsHoming: 50}
		e.Bind(&simhw.EndstopState{})
		collab.MinEndstop = e
	}
	if spec.MaxEndstop {
		e := &hw.Endstop{Enabled: true, PhysicalEndstop: true, MinMsHoming: 50}
		e.Bind(&simhw.EndstopState{})
		collab.MaxEndstop = e
	}
	a := axis.New(collab, spec.Config, spec.HWConfig)
	return &runningAxis{spec: &spec, ax: a}
}

func main() {
	args := os.Args
	if len(args) == 1 {
		fmt.Println("axisd: run a board's axes and serve telemetry over HTTP\n\nUsage:\n\taxisd <command> [configpath]\n\nCommands:\n\trun\n\tmkconf\n\tconf\n\tversion")
		return
	}
	cmd := strings.ToLower(args[1])
	path := ConfigFileName
	if len(args) > 2 {
		path = args[2]
	}

	switch cmd {
	case "mkconf":
		c := defaultConfig()
		f, err := os.Create(path)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := yml.NewEncoder(f).Encode(c); err != nil {
			log.Fatal(err)
		}
	case "conf":
		c := setupConfig(path)
		if err := yml.NewEncoder(os.Stdout).Encode(c); err != nil {
			log.Fatal(err)
		}
	case "version":
		fmt.Printf("axisd version %v\n", Version)
	case "run":
		run(path)
	default:
		log.Fatal("unknown command ", cmd)
	}
}

func run(path string) {
	c := setupConfig(path)
	board := boardio.NewBoardContext()
	board.SetBrakeResistorArmed(true)
	board.SetVBusVoltage(24)

	root := chi.NewRouter()
	root.Use(middleware.Logger)

	running := map[string]*runningAxis{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, spec := range c.Axes {
		ra := buildAxis(board, spec, c.TickRateHz)
		running[spec.Name] = ra

		if spec.DebugSerialPort != "" {
			tap, err := boardio.NewSerialDebugTap(spec.DebugSerialPort, spec.DebugSerialBaud)
			if err != nil {
				log.Printf("axisd: %s: debug serial tap unavailable: %v", spec.Name, err)
			} else {
				ra.ax.SetDebugTap(tap)
			}
		}

		mux := goji.NewMux()
		telemetry.NewHTTPAxis(ra.ax).RT().Bind(mux)
		root.Mount("/axis/"+spec.Name, mux)

		go ra.ax.Run(ctx)
		go (&boardio.SimTickSource{Rate: c.TickRateHz}).Start(ctx, ra.ax.Signal())
	}

	go watchConfig(path, running)

	log.Println("axisd listening at", c.ListenAddr)
	log.Fatal(http.ListenAndServe(c.ListenAddr, root))
}

// watchConfig hot-reloads each axis's mutable Config (never HWConfig,
// which is board wiring fixed at boot) whenever the config file is
// rewritten.
func watchConfig(path string, running map[string]*runningAxis) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Println("axisd: config hot-reload disabled:", err)
		return
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		log.Println("axisd: config hot-reload disabled:", err)
		return
	}

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			var c Config
			kk := koanf.New(".")
			kk.Load(structs.Provider(defaultConfig(), "koanf"), nil)
			if err := kk.Load(file.Provider(path), yaml.Parser()); err != nil {
				log.Println("axisd: config reload failed:", err)
				continue
			}
			if err := kk.Unmarshal("", &c); err != nil {
				log.Println("axisd: config reload failed:", err)
				continue
			}
			for _, spec := range c.Axes {
				if ra, ok := running[spec.Name]; ok {
					ra.ax.SetConfig(spec.Config)
					log.Println("axisd: reloaded config for axis", spec.Name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Println("axisd: config watcher error:", err)
		}
	}
}
