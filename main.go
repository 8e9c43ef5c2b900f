package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dj-ccs/open-science-dlt/se3"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile  = flag.String("config", "", "Path to configuration file (empty = built-in defaults)")
	httpPort    = flag.Int("http-port", 0, "HTTP server port (overrides config, default 8080)")
	analyzeFile = flag.String("analyze", "", "Compute metrics for a trajectory JSON file and exit")
	batchFile   = flag.String("batch", "", "Compute metrics for a batch JSON file ({\"trajectories\": [...]}) and exit")
	renderFile  = flag.String("render", "", "Render a trajectory JSON file as a plot and exit")
	outputFile  = flag.String("output", "trajectory.svg", "Output file for --render mode (.svg or .png)")
	walkSteps   = flag.Int("walk", 0, "Run a tethered-walk demo with N steps and exit")
	seed        = flag.Int64("seed", 0, "Random seed for --walk (0 = time-seeded)")
	boundedFlag = flag.Bool("bounded", true, "Enforce translation bounds on input trajectories")
	rMaxFlag    = flag.Float64("r-max", 1.0, "Maximum translation radius for bounded trajectories")
	mqttMode    = flag.Bool("mqtt", false, "Publish computed metrics to the configured MQTT broker")
)

func main() {
	flag.Parse()
	fmt.Printf("se3-metrics version: %s\n", Version)

	config := loadConfigOrDefault(*configFile)
	if *httpPort > 0 {
		config.HTTP.Port = *httpPort
	}

	if *analyzeFile != "" {
		runAnalyze(*analyzeFile, config)
		return
	}

	if *batchFile != "" {
		runBatch(*batchFile, config)
		return
	}

	if *renderFile != "" {
		runRender(*renderFile, *outputFile)
		return
	}

	if *walkSteps > 0 {
		runWalk(*walkSteps, *seed, config)
		return
	}

	runServe(config)
}

// loadConfigOrDefault loads the config file when given, otherwise the defaults.
func loadConfigOrDefault(path string) *se3.Config {
	if path == "" {
		return se3.DefaultConfig()
	}
	config, err := se3.LoadConfig(path)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return config
}

// waitForShutdown blocks until SIGINT or SIGTERM.
func waitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received signal %v, shutting down", sig)
}
