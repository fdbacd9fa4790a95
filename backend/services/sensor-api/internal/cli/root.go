package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sensorhub/backend/libs/logging"
	"sensorhub/backend/services/sensor-api/internal/clients"
)

const defaultAPIURL = "http://localhost:8000"

type globalOptions struct {
	apiURL   string
	username string
	password string
	timeout  time.Duration
	verbose  bool
}

// NewRootCommand builds the sensorctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "sensorctl",
		Short: "Operate the realtime sensor data API",
		Long: `sensorctl talks to the sensor API over HTTP.

It can simulate stations that post readings, upload CSV batches and
query per-station averages. Credentials come from flags or the
SENSORCTL_USERNAME and SENSORCTL_PASSWORD environment variables.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", envOr("SENSOR_API_URL", defaultAPIURL), "base URL of the sensor API")
	flags.StringVarP(&opts.username, "username", "u", os.Getenv("SENSORCTL_USERNAME"), "account username")
	flags.StringVarP(&opts.password, "password", "p", os.Getenv("SENSORCTL_PASSWORD"), "account password")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRegisterCommand(opts),
		newSimulateCommand(opts),
		newUploadCommand(opts),
		newAverageCommand(opts),
		newAveragesCommand(opts),
	)
	return root
}

// Execute runs the command tree until ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *globalOptions) newLogger() (*zap.Logger, error) {
	level := "info"
	if o.verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.Options{Level: level, Encoding: "console"})
}

func (o *globalOptions) newClient() *clients.SensorClient {
	return clients.NewSensorClient(o.apiURL, clients.NewDefaultHTTPClient(o.timeout))
}

// login authenticates client with the global credentials.
func (o *globalOptions) login(ctx context.Context, client *clients.SensorClient) error {
	if o.username == "" || o.password == "" {
		return fmt.Errorf("username and password are required (flags or SENSORCTL_USERNAME/SENSORCTL_PASSWORD)")
	}
	if _, err := client.Login(ctx, o.username, o.password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
