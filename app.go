package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dj-ccs/open-science-dlt/se3"
)

// runAnalyze computes metrics for a single trajectory file and prints JSON.
func runAnalyze(path string, config *se3.Config) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading %s: %v", path, err)
	}

	var input se3.TrajectoryInput
	if err := json.Unmarshal(data, &input); err != nil {
		log.Fatalf("Error parsing %s: %v", path, err)
	}

	opts := se3.MetricsOptionsFromConfig(config)
	opts.Bounded = *boundedFlag
	opts.RMax = *rMaxFlag

	metrics, err := se3.ComputeMetrics(input, opts)
	if err != nil {
		log.Fatalf("Error computing metrics: %v", err)
	}

	printJSON(metrics)
	maybePublish(config, "analyze", metrics)
}

// batchDocument is the on-disk batch format.
type batchDocument struct {
	Trajectories []se3.TrajectoryInput `json:"trajectories"`
}

// runBatch computes metrics for every trajectory in a batch file.
func runBatch(path string, config *se3.Config) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading %s: %v", path, err)
	}

	var doc batchDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Fatalf("Error parsing %s: %v", path, err)
	}
	if len(doc.Trajectories) == 0 {
		log.Fatalf("Batch file %s contains no trajectories", path)
	}

	opts := se3.MetricsOptionsFromConfig(config)
	opts.Bounded = *boundedFlag
	opts.RMax = *rMaxFlag

	results := se3.ComputeBatch(doc.Trajectories, opts)
	printJSON(results)

	if *mqttMode {
		client, err := se3.ConnectMQTT(config.MQTT)
		if err != nil {
			log.Fatalf("Error connecting to MQTT: %v", err)
		}
		if client != nil {
			publisher := se3.NewPublisher(client, config.MQTT.PublishPrefix)
			if err := publisher.PublishBatch("batch", results); err != nil {
				log.Printf("Error publishing batch results: %v", err)
			}
			client.Disconnect(250)
		}
	}
}

// runRender draws a trajectory plot to an SVG or PNG file.
func runRender(path, output string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading %s: %v", path, err)
	}

	trajectory, err := se3.DecodeTrajectoryJSON(data, *boundedFlag, *rMaxFlag)
	if err != nil {
		log.Fatalf("Error decoding trajectory: %v", err)
	}

	out, err := os.Create(output)
	if err != nil {
		log.Fatalf("Error creating %s: %v", output, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			log.Printf("Error closing %s: %v", output, closeErr)
		}
	}()

	renderer := se3.NewPlotRenderer(trajectory)
	if strings.HasSuffix(strings.ToLower(output), ".png") {
		err = renderer.RenderPNG(out)
	} else {
		err = renderer.RenderSVG(out)
	}
	if err != nil {
		log.Fatalf("Error rendering plot: %v", err)
	}
	fmt.Printf("Wrote %s (path length %.4f)\n", output, renderer.PathLength())
}

// runWalk generates a tethered random walk and runs the full pipeline on it.
func runWalk(steps int, seedValue int64, config *se3.Config) {
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedValue))

	walker := se3.NewTetheredWalker(se3.WalkerConfig{RNG: rng})
	poses := make([]se3.Pose, 0, steps)
	prev := walker.Position()
	for i := 0; i < steps; i++ {
		next := walker.Step(0.1)
		// Record the increment between consecutive walker states, so the
		// trajectory composes back to the walk itself.
		poses = append(poses, se3.Compose(se3.Inverse(prev), next))
		prev = next
	}

	trajectory, err := se3.NewTrajectory(poses, false, 0)
	if err != nil {
		log.Fatalf("Error building walk trajectory: %v", err)
	}

	opts := se3.MetricsOptionsFromConfig(config)
	opts.Bounded = false

	metrics, err := se3.ComputeTrajectoryMetrics(trajectory, opts)
	if err != nil {
		log.Fatalf("Error computing metrics: %v", err)
	}

	fmt.Printf("Tethered walk: %d steps, seed %d\n", steps, seedValue)
	printJSON(metrics)
	maybePublish(config, "walk", metrics)
}

// runServe starts the HTTP API.
func runServe(config *se3.Config) {
	var publisher *se3.Publisher
	if *mqttMode {
		client, err := se3.ConnectMQTT(config.MQTT)
		if err != nil {
			log.Fatalf("Error connecting to MQTT: %v", err)
		}
		if client != nil {
			publisher = se3.NewPublisher(client, config.MQTT.PublishPrefix)
			defer client.Disconnect(250)
		}
	}

	port := config.HTTP.Port
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)

	server := &http.Server{
		Addr:    addr,
		Handler: newHTTPServer(config, publisher),
	}

	go func() {
		log.Printf("[HTTP] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown()
	if err := server.Close(); err != nil {
		log.Printf("Error closing HTTP server: %v", err)
	}
}

// maybePublish publishes metrics over MQTT when -mqtt is set.
func maybePublish(config *se3.Config, source string, metrics *se3.Metrics) {
	if !*mqttMode {
		return
	}
	client, err := se3.ConnectMQTT(config.MQTT)
	if err != nil {
		log.Printf("Error connecting to MQTT: %v", err)
		return
	}
	if client == nil {
		return
	}
	publisher := se3.NewPublisher(client, config.MQTT.PublishPrefix)
	if err := publisher.PublishMetrics(source, metrics); err != nil {
		log.Printf("Error publishing metrics: %v", err)
	}
	client.Disconnect(250)
}

// printJSON pretty-prints a value to stdout.
func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Error encoding JSON: %v", err)
	}
	fmt.Println(string(data))
}
