package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/mauv0809/league-notifier/internal/database"
	"github.com/mauv0809/league-notifier/internal/events"
	"github.com/mauv0809/league-notifier/internal/metrics"
	"github.com/mauv0809/league-notifier/internal/pubsub"
	"github.com/spf13/cobra"
)

var (
	topic     string
	projectID string
	dbName    string
)

func init() {
	emitCmd.Flags().StringVar(&topic, "topic", pubsub.DefaultTopic, "The Pub/Sub topic to publish to")
	emitCmd.Flags().StringVar(&projectID, "project", "", "The GCP project (defaults to GCP_PROJECT)")
	totalsCmd.Flags().StringVar(&dbName, "db", "", "The database file (defaults to DB_NAME)")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(totalsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the event kinds the server routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/events/kinds")
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <payload.json>",
	Short: "Show the deliveries an event would produce without sending them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := readEvent(args[0], "")
		if err != nil {
			return err
		}
		body, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		return performPostRequest("/events/preview", body)
	},
}

var emitCmd = &cobra.Command{
	Use:   "emit <kind> <payload.json>",
	Short: "Publish an event to the events topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := readEvent(args[1], events.Kind(args[0]))
		if err != nil {
			return err
		}
		if projectID == "" {
			_ = godotenv.Load()
			projectID = os.Getenv("GCP_PROJECT")
		}
		if projectID == "" {
			return fmt.Errorf("no GCP project given, use --project or set GCP_PROJECT")
		}
		client := pubsub.New(projectID)
		defer client.Close()
		if err := client.SendMessage(topic, ev); err != nil {
			return fmt.Errorf("failed to publish %s: %w", ev.Kind, err)
		}
		fmt.Printf("Published %s to %s\n", ev.Kind, topic)
		return nil
	},
}

var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Print the persisted event and delivery totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dbName == "" {
			_ = godotenv.Load()
			dbName = os.Getenv("DB_NAME")
		}
		db, teardown, err := database.InitDB(dbName, os.Getenv("TURSO_PRIMARY_URL"), os.Getenv("TURSO_AUTH_TOKEN"))
		if err != nil {
			return err
		}
		defer teardown()

		totals, err := metrics.New(db).GetAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read totals: %w", err)
		}
		keys := make([]string, 0, len(totals))
		for k := range totals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-32s %d\n", k, totals[k])
		}
		return nil
	},
}

// readEvent decodes a JSON event file. A non-empty kind overrides the file's kind.
func readEvent(path string, kind events.Kind) (events.Event, error) {
	ev := events.Event{}
	data, err := os.ReadFile(path)
	if err != nil {
		return ev, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if kind != "" {
		ev.Kind = kind
	}
	if ev.Kind == "" {
		return ev, fmt.Errorf("event in %s has no kind", path)
	}
	return ev, nil
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	return printResponse(resp)
}

func performPostRequest(endpoint string, body []byte) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
