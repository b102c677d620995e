package commands

import (
	"fmt"

	"github.com/marmos91/tso-lease/cmd/tso-leasectl/cmdutil"
	"github.com/marmos91/tso-lease/pkg/apiclient"
	"github.com/spf13/cobra"
)

var stepDownCmd = &cobra.Command{
	Use:   "step-down",
	Short: "Request that the replica voluntarily release the lease",
	Long: `Request that the connected replica step down as lease holder.

The replica finishes its current renewal cycle and then lets the lease
expire, allowing another replica to acquire it. Fails if the connected
replica is not currently the lease holder.

Examples:
  tso-leasectl step-down`,
	RunE: runStepDown,
}

func runStepDown(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.StepDown(); err != nil {
		if apiErr, ok := err.(*apiclient.APIError); ok && apiErr.IsConflict() {
			return fmt.Errorf("replica is not currently the lease holder")
		}
		return fmt.Errorf("step-down failed: %w", err)
	}

	fmt.Println("Step-down requested")
	return nil
}
