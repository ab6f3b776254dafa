// Vitactl is a command-line client for a running VitaNote server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wosledon/vitanote/internal/report"
	"github.com/wosledon/vitanote/internal/statistics"
	"github.com/wosledon/vitanote/internal/users"
)

var (
	// serverURL is the base URL for the VitaNote HTTP server
	serverURL string
	// token is the bearer token sent on authenticated requests
	token string
)

const defaultServerURL = "http://localhost:5080"

var rootCmd = &cobra.Command{
	Use:   "vitactl",
	Short: "VitaNote command-line client",
	Long:  `Vitactl talks to a running VitaNote server over its HTTP API.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL, "VitaNote server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("VITANOTE_TOKEN"), "access token (env VITANOTE_TOKEN)")

	summaryCmd.Flags().IntVar(&summaryDays, "days", statistics.DefaultDays, "number of days to summarize")
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "", "username or email (required)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", os.Getenv("VITANOTE_PASSWORD"), "password (env VITANOTE_PASSWORD)")
	_ = loginCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(summaryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var health struct {
			Status  string `json:"status"`
			Service string `json:"service"`
			Version string `json:"version"`
		}
		if err := call(http.MethodGet, "/health", nil, &health); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Server URL: %s\n", serverURL)
		fmt.Fprintf(cmd.OutOrStdout(), "Status:     %s\n", health.Status)
		fmt.Fprintf(cmd.OutOrStdout(), "Version:    %s\n", health.Version)
		return nil
	},
}

var (
	loginUser     string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print an access token",
	Long: `Log in and print an access token. Export it for later commands:

  export VITANOTE_TOKEN=$(vitactl login -u alice -p secret)`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var res users.AuthResult
		err := call(http.MethodPost, "/api/v1/auth/login", users.LoginRequest{
			Username: loginUser,
			Password: loginPassword,
		}, &res)
		if err != nil {
			return err
		}
		if res.Token == nil || res.AccessToken == "" {
			return fmt.Errorf("server returned no token")
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.AccessToken)
		return nil
	},
}

var summaryDays int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a health summary for the last days",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ov, err := fetchOverview(summaryDays)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), report.Error(serverURL, err))
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), report.Overview(ov, time.Now()))
		return nil
	},
}

func fetchOverview(days int) (*statistics.Overview, error) {
	q := url.Values{"days": {strconv.Itoa(days)}}
	var ov statistics.Overview
	if err := call(http.MethodGet, "/api/v1/statistics/overview?"+q.Encode(), nil, &ov); err != nil {
		return nil, err
	}
	return &ov, nil
}

// call sends a JSON request and decodes a 2xx response into out.
func call(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		reqJSON, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequest(method, serverURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("server returned status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
