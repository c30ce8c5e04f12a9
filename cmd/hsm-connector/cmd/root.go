package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"hermannm.dev/devlog"
)

var logLevel slog.LevelVar

var rootCmd = &cobra.Command{
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Use:   "hsm-connector",
	Short: "Relay a YubiHSM2's USB interface over HTTP",
	Long: `hsm-connector bridges a YubiHSM2 attached over USB to the same
HTTP relay contract the securechannel connector package speaks, so a host
without direct USB access can still reach the device.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	slog.SetDefault(slog.New(devlog.NewHandler(os.Stdout, &devlog.Options{
		Level: &logLevel,
	})))

	rootCmd.PersistentFlags().Bool("debug", false, "print debug logging")
	rootCmd.PersistentFlags().String("addr", "127.0.0.1", "address to listen on")
	rootCmd.PersistentFlags().Int("port", 12345, "port to listen on")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr"))
	_ = viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.SetEnvPrefix("YUBIHSM")
	viper.AutomaticEnv()
}

type config struct {
	addr string
	port int
}

// loadConfig binds viper's resolved flag/env values, the way go-fdo-server's
// root command resolves its own config before each subcommand runs.
func loadConfig() config {
	if viper.GetBool("debug") {
		logLevel.Set(slog.LevelDebug)
	}
	return config{
		addr: viper.GetString("addr"),
		port: viper.GetInt("port"),
	}
}

// exitCodeFor maps a command failure to §6's exit-code contract: 0 success
// (handled by cobra returning nil), 1 transport error, 2 device absent.
func exitCodeFor(err error) int {
	if _, ok := err.(*deviceAbsentError); ok {
		return 2
	}
	return 1
}

type deviceAbsentError struct{ cause error }

func (e *deviceAbsentError) Error() string { return e.cause.Error() }
func (e *deviceAbsentError) Unwrap() error { return e.cause }
