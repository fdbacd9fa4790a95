package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sensorhub/backend/services/sensor-api/internal/period"
)

func newRegisterCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account with the global credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.username == "" || opts.password == "" {
				return fmt.Errorf("username and password are required")
			}
			if err := opts.newClient().Register(cmd.Context(), opts.username, opts.password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", opts.username)
			return nil
		},
	}
}

func newUploadCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a CSV batch of readings",
		Long: `Upload a CSV file with the header equipmentId,timestamp,value.

The batch is stored entirely or not at all.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			client := opts.newClient()
			if err := opts.login(cmd.Context(), client); err != nil {
				return err
			}
			result, err := client.UploadCSV(cmd.Context(), filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newAverageCommand(opts *globalOptions) *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "average <equipmentId>",
		Short: "Show the average value of one station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := opts.newClient()
			if err := opts.login(cmd.Context(), client); err != nil {
				return err
			}
			result, err := client.Average(cmd.Context(), args[0], window)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&window, "period", period.Default, "window: one of 24h, 48h, 1w, 1m")
	return cmd
}

func newAveragesCommand(opts *globalOptions) *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "averages",
		Short: "Show the average value of every station",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := opts.newClient()
			if err := opts.login(cmd.Context(), client); err != nil {
				return err
			}
			result, err := client.Averages(cmd.Context(), window)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&window, "period", period.Default, "window: one of 24h, 48h, 1w, 1m")
	return cmd
}
