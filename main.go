package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func loadEnv(filenames ...string) {
	for _, filename := range filenames {
		if s, err := os.Stat(filename); err == nil && !s.IsDir() {
			godotenv.Load(filename)
		}
	}
}

func main() {
	if _, ok := os.LookupEnv("ENV"); !ok {
		env := "development"
		os.Setenv("ENV", env)
	}
	loadEnv(".env."+os.Getenv("ENV")+".local", ".env."+os.Getenv("ENV"), ".env.local", ".env")

	root := &cobra.Command{
		Use:          "smogn",
		Short:        "Rebalance regression datasets with SMOTE and gaussian noise oversampling",
		SilenceUsage: true,
	}
	root.AddCommand(newResampleCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
