package monitors

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

// ==========================
// Init Monitors
// ==========================
func InitMonitors(rootCmd *cobra.Command) {
	monitorsCmd := &cobra.Command{
		Use:   "monitors",
		Short: "Manage monitors",
	}

	monitorsCmd.AddCommand(
		listMonitorsCmd(),
		createMonitorCmd(),
		deleteMonitorCmd(),
		pauseMonitorCmd(),
		resumeMonitorCmd(),
		silenceMonitorCmd(),
		pingCmd(),
	)

	rootCmd.AddCommand(monitorsCmd)
}

// ==========================
// LIST
// ==========================
func listMonitorsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List monitors",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Items []models.Monitor `json:"items"`
				Total int              `json:"total"`
			}
			if err := apiCall("GET", "/v1/monitors", nil, &out); err != nil {
				return err
			}

			if asJSON {
				output.RenderJSON(out.Items)
				return nil
			}

			rows := make([][]interface{}, 0, len(out.Items))
			for _, m := range out.Items {
				last := "never"
				if m.LastCheckedInAt != nil {
					last = m.LastCheckedInAt.Format(time.RFC3339)
				}
				rows = append(rows, []interface{}{
					m.ID, m.Name, m.ScheduleKind, m.ScheduleValue, m.GraceMinutes, m.Status, last,
				})
			}
			output.RenderTable([]string{"ID", "Name", "Kind", "Schedule", "Grace", "Status", "Last check-in"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output raw JSON")
	return cmd
}

// ==========================
// CREATE
// ==========================
func createMonitorCmd() *cobra.Command {
	var teamID int
	var name, kind, value, timezone string
	var grace int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"team_id":        teamID,
				"name":           name,
				"schedule_kind":  kind,
				"schedule_value": value,
				"timezone":       timezone,
				"grace_minutes":  grace,
			}

			var m models.Monitor
			if err := apiCall("POST", "/v1/monitors", payload, &m); err != nil {
				return err
			}

			fmt.Printf("Monitor %d created. Check-in URL:\n", m.ID)
			fmt.Printf("  %s/ping/%s\n", config.APIURL(), m.CheckinToken)
			return nil
		},
	}

	cmd.Flags().IntVar(&teamID, "team", 0, "owning team id")
	cmd.Flags().StringVar(&name, "name", "", "monitor name")
	cmd.Flags().StringVar(&kind, "kind", "interval", "schedule kind: interval or cron")
	cmd.Flags().StringVar(&value, "value", "", "interval preset (e.g. 1h) or cron expression")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "IANA timezone for cron schedules")
	cmd.Flags().IntVar(&grace, "grace", 15, "grace period in minutes")

	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a monitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiCall("DELETE", "/v1/monitors/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Println("Monitor deleted")
			return nil
		},
	}
}

// ==========================
// PAUSE / RESUME
// ==========================
func pauseMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause [id]",
		Short: "Pause a monitor (skipped by sweeps until resumed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m models.Monitor
			if err := apiCall("POST", "/v1/monitors/"+args[0]+"/pause", nil, &m); err != nil {
				return err
			}
			fmt.Printf("Monitor %d is now %s\n", m.ID, m.Status)
			return nil
		},
	}
}

func resumeMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume [id]",
		Short: "Resume a paused monitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m models.Monitor
			if err := apiCall("POST", "/v1/monitors/"+args[0]+"/resume", nil, &m); err != nil {
				return err
			}
			fmt.Printf("Monitor %d is now %s\n", m.ID, m.Status)
			return nil
		},
	}
}

// ==========================
// SILENCE
// ==========================
func silenceMonitorCmd() *cobra.Command {
	var until string

	cmd := &cobra.Command{
		Use:   "silence [id]",
		Short: "Suppress notifications until a given time (alerts are still recorded)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"until": nil}
			if until != "" {
				t, err := time.Parse(time.RFC3339, until)
				if err != nil {
					return fmt.Errorf("--until must be RFC 3339: %w", err)
				}
				payload["until"] = t
			}

			var m models.Monitor
			if err := apiCall("POST", "/v1/monitors/"+args[0]+"/silence", payload, &m); err != nil {
				return err
			}
			if m.AlertsSilencedUntil != nil {
				fmt.Printf("Monitor %d silenced until %s\n", m.ID, m.AlertsSilencedUntil.Format(time.RFC3339))
			} else {
				fmt.Printf("Monitor %d silencing cleared\n", m.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&until, "until", "", "silence until this RFC 3339 time (omit to clear)")
	return cmd
}

// ==========================
// PING
// ==========================
func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping [token]",
		Short: "Record a check-in for a monitor by token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Token-addressed, no auth.
			resp, err := http.Post(config.APIURL()+"/ping/"+args[0], "", nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("check-in failed: status %d", resp.StatusCode)
			}
			fmt.Println("Check-in recorded")
			return nil
		},
	}
}

// apiCall performs an authenticated request against the API and decodes the
// JSON response into out when non-nil.
func apiCall(method, path string, payload interface{}, out interface{}) error {
	token, err := config.ReadToken()
	if err != nil {
		return fmt.Errorf("please login first")
	}

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
