package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

const defaultServerURL = "http://localhost:5000"

var (
	serverURL string
	cfgFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jugs",
	Short: "Water jug fill/empty tracker",
	Long: `jugs records when water jugs are filled and emptied.

Run 'jugs serve' to start the HTTP API backed by a CSV ledger. The other
commands talk to a running server:

  jugs fill kitchen garage
  jugs filled
  jugs empty kitchen`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.jugs")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = defaultServerURL
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.jugs/config.yaml; for serve: configs/jugtracker.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "jugtracker server URL (default "+defaultServerURL+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(filledCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(emptyCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}
