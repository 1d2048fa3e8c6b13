// seed_configurations.go — standalone script to submit candidate
// configurations from a JSON file to the Flotilla API for batch evaluation.
//
// Usage:
//
//	go run scripts/seed_configurations.go -configs configs.json -api http://localhost:8700
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
)

type configuration struct {
	ID               string                    `json:"configuration_id"`
	Name             string                    `json:"name,omitempty"`
	PlatformCounts   map[string]int            `json:"platform_counts"`
	Deployment       []map[string]float64      `json:"deployment,omitempty"`
	TaskAssignments  map[string]int            `json:"task_assignments,omitempty"`
	SimulationParams map[string]float64        `json:"simulation_params,omitempty"`
	Assessments      map[string]map[string]int `json:"expert_assessments,omitempty"`
}

type batchRequest struct {
	Configurations []configuration `json:"configurations"`
}

type singleRequest struct {
	Configuration configuration `json:"configuration"`
}

func main() {
	configsPath := flag.String("configs", "configs.json", "path to the configurations JSON file")
	apiURL := flag.String("api", "http://localhost:8700", "Flotilla API base URL")
	clientID := flag.String("client", "seed", "X-Client-ID header value")
	single := flag.Bool("single", false, "evaluate each configuration against the baseline instead of ranking the batch")
	dryRun := flag.Bool("dry-run", false, "print configurations without posting")
	flag.Parse()

	data, err := os.ReadFile(*configsPath)
	if err != nil {
		log.Fatalf("read configurations: %v", err)
	}
	var configs []configuration
	if err := json.Unmarshal(data, &configs); err != nil {
		log.Fatalf("parse configurations: %v", err)
	}
	if len(configs) == 0 {
		log.Fatalf("no configurations in %s", *configsPath)
	}

	log.Printf("parsed %d configurations from %s", len(configs), *configsPath)

	if *dryRun {
		for i, cfg := range configs {
			fleet := 0
			for _, n := range cfg.PlatformCounts {
				fleet += n
			}
			fmt.Printf("[%d] %s (fleet=%d, tasks=%d, params=%d)\n",
				i+1, cfg.ID, fleet, len(cfg.TaskAssignments), len(cfg.SimulationParams))
		}
		return
	}

	client := &http.Client{}
	post := func(path string, payload interface{}) error {
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		req, err := http.NewRequest("POST", *apiURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-ID", *clientID)

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}

	if *single {
		created, skipped := 0, 0
		for _, cfg := range configs {
			if err := post("/api/v1/evaluations", singleRequest{Configuration: cfg}); err != nil {
				log.Printf("skip %q: %v", cfg.ID, err)
				skipped++
				continue
			}
			created++
		}
		log.Printf("done: %d evaluated, %d skipped", created, skipped)
		return
	}

	if len(configs) < 2 {
		log.Fatalf("batch ranking needs at least 2 configurations, got %d", len(configs))
	}
	if err := post("/api/v1/evaluations/batch", batchRequest{Configurations: configs}); err != nil {
		log.Fatalf("batch evaluation failed: %v", err)
	}
	log.Printf("done: %d configurations ranked", len(configs))
}
