package main

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/spend-intel/cmd/enrich"
	exportbaselines "fjacquet/spend-intel/cmd/export-baselines"
	"fjacquet/spend-intel/cmd/inspect"
	"fjacquet/spend-intel/cmd/predict"
	"fjacquet/spend-intel/cmd/recompute"
	"fjacquet/spend-intel/cmd/root"
	"fjacquet/spend-intel/cmd/schedule"
	"fjacquet/spend-intel/cmd/score"
	"fjacquet/spend-intel/cmd/train"
	"fjacquet/spend-intel/internal/config"

	"github.com/sirupsen/logrus"
)

func init() {
	// 1. Load .env before anything reads the environment
	config.LoadEnv()

	// 2. Set the global logrus level so loggers created before the
	//    container is built honour SPEND_LOG_LEVEL
	logrus.SetLevel(logLevelFromEnv())

	// 3. Initialize root command and add all subcommands
	root.Init()
	root.Cmd.AddCommand(train.Cmd)
	root.Cmd.AddCommand(recompute.Cmd)
	root.Cmd.AddCommand(predict.Cmd)
	root.Cmd.AddCommand(score.Cmd)
	root.Cmd.AddCommand(enrich.Cmd)
	root.Cmd.AddCommand(exportbaselines.Cmd)
	root.Cmd.AddCommand(inspect.Cmd)
	root.Cmd.AddCommand(schedule.Cmd)
}

func logLevelFromEnv() logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(config.GetEnv(config.EnvPrefix+"_LOG_LEVEL", "info")))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
