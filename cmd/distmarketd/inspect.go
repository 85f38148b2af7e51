package main

import (
	"fmt"
	"os"

	"distmarket/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print the fully-resolved configuration (defaults + file + env) as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, string(out))
			return nil
		},
	}
}
