package sweep

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/frontier912/pulsewatch/cmd/cli/config"
)

// InitSweep registers the sweep command on the root command.
func InitSweep(rootCmd *cobra.Command) {
	rootCmd.AddCommand(sweepCmd())
}

func sweepCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Trigger a lateness sweep now",
		Long:  "Evaluate all active monitors immediately instead of waiting for the next periodic tick. Use --as-of to pin the evaluation time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.ReadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			path := "/v1/sweep"
			if asOf != "" {
				path += "?as_of=" + url.QueryEscape(asOf)
			}

			req, _ := http.NewRequest("POST", config.APIURL()+path, bytes.NewBuffer(nil))
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("API error: status %d", resp.StatusCode)
			}

			var stats struct {
				Evaluated int `json:"evaluated"`
				Missed    int `json:"missed"`
				Recovered int `json:"recovered"`
				Alerting  int `json:"alerting"`
				Errors    int `json:"errors"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
				return err
			}
			fmt.Printf("Sweep done: %d evaluated, %d missed, %d recovered, %d alerting, %d errors\n",
				stats.Evaluated, stats.Missed, stats.Recovered, stats.Alerting, stats.Errors)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate as of this RFC 3339 time")
	return cmd
}
