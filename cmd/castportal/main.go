// Command castportal drives the cast client from a terminal: a discovery
// pass, a heartbeat probe, or an application availability check.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go2tv.app/castportal"
	"go2tv.app/castportal/internal/diagnostics"
)

var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:           "castportal",
	Short:         "Discover and probe Google Cast devices on the local network",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	discoverIPv4 bool
	discoverIPv6 bool
	discoverWait int
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one discovery pass and print the located devices as JSON",
	RunE:  runDiscover,
}

var (
	devicePort int
	appID      string
)

var pingCmd = &cobra.Command{
	Use:   "ping <address>",
	Short: "Heartbeat the device at the given address",
	Args:  cobra.ExactArgs(1),
	RunE:  runPing,
}

var availCmd = &cobra.Command{
	Use:   "avail <address>",
	Short: "Ask the device whether the application can be launched",
	Args:  cobra.ExactArgs(1),
	RunE:  runAvail,
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverIPv4, "ipv4", false, "query over IPv4 only")
	discoverCmd.Flags().BoolVar(&discoverIPv6, "ipv6", false, "query over IPv6 only")
	discoverCmd.Flags().IntVar(&discoverWait, "wait", 0, "per-family listen budget in milliseconds")

	pingCmd.Flags().IntVar(&devicePort, "port", 0, "device port (default 8009)")
	availCmd.Flags().IntVar(&devicePort, "port", 0, "device port (default 8009)")
	availCmd.Flags().StringVar(&appID, "app", "", "application id to check (default from configuration)")

	rootCmd.AddCommand(discoverCmd, pingCmd, availCmd, doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report whether the host network can carry a discovery pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(diagnostics.DetectNetwork())
	},
}

func main() {
	logLevel := castportal.ParseLogLevel(os.Getenv("CASTPORTAL_LOG_LEVEL"))
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cfg := castportal.ConfigFromEnv()
	cfg.Logger = logger
	castportal.Configure(cfg)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDiscover(cmd *cobra.Command, args []string) error {
	mode := castportal.Mode(0)
	if discoverIPv4 {
		mode |= castportal.INET4
	}
	if discoverIPv6 {
		mode |= castportal.INET6
	}
	if mode == 0 {
		mode = castportal.INET4 | castportal.INET6
	}

	found := castportal.Discover(mode, discoverWait)
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(found)
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, err := castportal.Connect(args[0], devicePort)
	if err != nil {
		return err
	}
	defer castportal.Close(conn)

	if !castportal.Ping(conn) {
		return fmt.Errorf("no heartbeat answer from %s", args[0])
	}
	fmt.Println("PONG")
	return nil
}

func runAvail(cmd *cobra.Command, args []string) error {
	if appID != "" {
		cfg := castportal.ConfigFromEnv()
		cfg.Logger = logger
		cfg.ApplicationID = appID
		castportal.Configure(cfg)
	}

	conn, err := castportal.Connect(args[0], devicePort)
	if err != nil {
		return err
	}
	defer castportal.Close(conn)

	if castportal.AppAvailable(conn) {
		fmt.Println("AVAILABLE")
	} else {
		fmt.Println("UNAVAILABLE")
	}
	return nil
}
