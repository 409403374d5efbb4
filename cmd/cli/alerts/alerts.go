package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/frontier912/pulsewatch/cmd/cli/config"
	"github.com/frontier912/pulsewatch/cmd/cli/output"
	"github.com/frontier912/pulsewatch/internal/models"
)

// InitAlerts registers alert commands on the root command.
func InitAlerts(rootCmd *cobra.Command) {
	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "View and acknowledge alerts",
	}

	alertsCmd.AddCommand(listAlertsCmd(), ackAlertCmd())
	rootCmd.AddCommand(alertsCmd)
}

func listAlertsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent alerts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Items []models.Alert `json:"items"`
				Total int            `json:"total"`
			}
			if err := apiGet("/v1/alerts", &out); err != nil {
				return err
			}

			if asJSON {
				output.RenderJSON(out.Items)
				return nil
			}

			rows := make([][]interface{}, 0, len(out.Items))
			for _, a := range out.Items {
				acked := ""
				if a.AcknowledgedAt != nil {
					acked = a.AcknowledgedAt.Format(time.RFC3339)
				}
				rows = append(rows, []interface{}{
					a.ID, a.MonitorID, a.AlertType, a.Message, a.TriggeredAt.Format(time.RFC3339), acked,
				})
			}
			output.RenderTable([]string{"ID", "Monitor", "Type", "Message", "Triggered", "Acked"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output raw JSON")
	return cmd
}

func ackAlertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ack [id]",
		Short: "Acknowledge an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := config.ReadToken()
			if err != nil {
				return fmt.Errorf("please login first")
			}

			req, _ := http.NewRequest("POST", config.APIURL()+"/v1/alerts/"+args[0]+"/ack", bytes.NewBuffer(nil))
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK:
				fmt.Println("Alert acknowledged")
			case http.StatusConflict:
				fmt.Println("Alert was already acknowledged")
			default:
				return fmt.Errorf("API error: status %d", resp.StatusCode)
			}
			return nil
		},
	}
}

func apiGet(path string, out interface{}) error {
	token, err := config.ReadToken()
	if err != nil {
		return fmt.Errorf("please login first")
	}

	req, err := http.NewRequest("GET", config.APIURL()+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
