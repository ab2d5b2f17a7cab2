package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/resources"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Converge the appliance to the declared resources",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer application.Close()
		return application.Run(cmd.Context())
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what apply would change (same as apply --check)",
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.Set("settings.check_mode", true)
		return applyCmd.RunE(cmd, args)
	},
}

var (
	factsPartition string
	factsParams    []string
)

var factsCmd = &cobra.Command{
	Use:   "facts <kind> <name>",
	Short: "Print the appliance's view of one resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer application.Close()
		id := domain.Identity{Name: args[1], Partition: factsPartition}
		return application.Facts(cmd.Context(), domain.ResourceKind(args[0]), id, factsParams)
	},
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the supported resource kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tOPERATIONS\tDESCRIPTION")
		for _, def := range resources.Definitions() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Kind, def.Ops, def.Description)
		}
		return tw.Flush()
	},
}

func init() {
	factsCmd.Flags().StringVarP(&factsPartition, "partition", "p", domain.DefaultPartition, "Partition holding the resource")
	factsCmd.Flags().StringArrayVar(&factsParams, "param", nil, "Locating parameter as name=value, e.g. policy=p1 for ltm_policy_rule (repeatable)")
}
