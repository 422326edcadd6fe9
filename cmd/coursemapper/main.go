// coursemapper interprets parsed degree requirement blocks and writes the
// program/requirement/course mapping tables consumed by the transfer
// explorer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgw-tools/coursemapper/internal/config"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "coursemapper",
	Short: "coursemapper - map degree requirements to catalog courses",
	Long: `Interprets the parsed requirement blocks of every recently-active academic
plan and emits three CSV tables: programs, requirements, and the courses
that can satisfy each requirement.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(v, cfgFile); err != nil {
			return err
		}
		// Flags win over env and file values.
		return v.BindPFlags(cmd.Root().PersistentFlags())
	},
}

func init() {
	d := config.Defaults()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default coursemapper.yaml in . or $HOME)")
	pf.String("store", d.Store, "storage backend: mysql or sqlite")
	pf.String("dsn", d.DSN, "MySQL connection string")
	pf.String("db-file", "", "sqlite snapshot path (store=sqlite)")
	pf.String("reports-dir", d.ReportsDir, "directory for output tables and report channels")
	pf.String("quarantine", "", "CSV of blocks to skip")
	pf.BoolP("concise-conditionals", "c", false, "tag conditional branches if/else instead of if_true/if_false")
	pf.Bool("no-remarks", false, "drop remark text from requirement contexts")
	pf.Bool("no-proxy-advice", false, "drop proxy advice text from qualifiers and contexts")
	pf.Bool("debug", false, "debug reporting and periodic metric dumps")

	rootCmd.AddCommand(mapCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "coursemapper:", err)
		os.Exit(1)
	}
}
