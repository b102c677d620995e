package commands

import (
	"fmt"
	"os"

	"github.com/marmos91/tso-lease/cmd/tso-leasectl/cmdutil"
	"github.com/marmos91/tso-lease/internal/cli/output"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a replica's lease status",
	Long: `Display the current lease status of the connected replica.

Examples:
  # Check status of the logged-in replica
  tso-leasectl status

  # Output as JSON
  tso-leasectl status -o json`,
	RunE: runStatus,
}

// statusDisplay renders a lease status as a table row.
type statusDisplay struct {
	IsLeader     bool   `json:"is_leader" yaml:"is_leader"`
	InLeaseHold  bool   `json:"in_lease_period" yaml:"in_lease_period"`
	CurrentEpoch int64  `json:"current_epoch" yaml:"current_epoch"`
	LeaseHolder  string `json:"lease_holder" yaml:"lease_holder"`
}

func (s statusDisplay) Headers() []string {
	return []string{"IS LEADER", "IN LEASE PERIOD", "CURRENT EPOCH", "LEASE HOLDER"}
}

func (s statusDisplay) Rows() [][]string {
	return [][]string{{
		cmdutil.BoolToYesNo(s.IsLeader),
		cmdutil.BoolToYesNo(s.InLeaseHold),
		fmt.Sprintf("%d", s.CurrentEpoch),
		s.LeaseHolder,
	}}
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	display := statusDisplay{
		IsLeader:     status.IsLeader,
		InLeaseHold:  status.InLeaseHold,
		CurrentEpoch: status.CurrentEpoch,
		LeaseHolder:  status.LeaseHolder,
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, display)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, display)
	default:
		return output.PrintTable(os.Stdout, display)
	}
}
