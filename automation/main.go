// Command automation is the terminal client for the test case generation API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	apiBaseURL string
	token      string
	caCertFile string
	timeout    time.Duration
	markdown   bool
}

var gf globalFlags

var rootCmd = &cobra.Command{
	Use:   "automation",
	Short: "Generate test cases and manage generation history from the terminal",
	Long: `automation talks to the test case generation API.

Connection settings default to API_BASE_URL, TCGEN_TOKEN and CA_CERT_FILE,
read from the environment or automation/.env.`,
	SilenceUsage: true,
}

func init() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load("automation/.env")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&gf.apiBaseURL, "api", os.Getenv("API_BASE_URL"), "API base URL, e.g. https://localhost:8080/api/v1")
	pf.StringVar(&gf.token, "token", os.Getenv("TCGEN_TOKEN"), "bearer token")
	pf.StringVar(&gf.caCertFile, "ca-cert", os.Getenv("CA_CERT_FILE"), "PEM file used to validate the server certificate")
	pf.DurationVar(&gf.timeout, "timeout", 3*time.Minute, "request timeout")
	pf.BoolVar(&gf.markdown, "markdown", false, "render tables as Markdown")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(tokenCmd)
}

func newClientFromFlags() (*Client, error) {
	return NewClient(gf.apiBaseURL, gf.token, gf.caCertFile, gf.timeout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
