package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "query the masternode validator rpc",
}

var asJSON = false

func init() {
	queryCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print lists as json instead of a table")
	queryCmd.AddCommand(heightCmd)
	queryCmd.AddCommand(phaseCmd)
	queryCmd.AddCommand(candidatesCmd)
	queryCmd.AddCommand(votesCmd)
	queryCmd.AddCommand(validatorsCmd)
	queryCmd.AddCommand(blkByHeightCmd)
	queryCmd.AddCommand(pendingTxsCmd)
	queryCmd.AddCommand(stateCmd)
}

var (
	heightCmd = &cobra.Command{
		Use:   "height",
		Short: "query the confirmed tip height",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Height())
		},
	}

	phaseCmd = &cobra.Command{
		Use:   "phase",
		Short: "query the phase of the next block and the blocks until each window opens",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Phase())
		},
	}

	candidatesCmd = &cobra.Command{
		Use:   "mnregvalidatorlist",
		Short: "list the registered validator candidates",
		Run: func(cmd *cobra.Command, args []string) {
			candidates, err := client.Candidates()
			if err != nil || asJSON {
				writeToConsole(candidates, err)
				return
			}
			rows := make([][]string, 0, len(candidates))
			for _, c := range candidates {
				rows = append(rows, []string{c.PublicKey.String(), string(c.Status), strconv.FormatUint(c.Height, 10), c.TxID, strconv.FormatBool(c.Genesis)})
			}
			writeTable([]string{"pubkey", "status", "height", "txid", "genesis"}, rows)
		},
	}

	votesCmd = &cobra.Command{
		Use:   "mnvotevalidatorlist",
		Short: "list the validator votes",
		Run: func(cmd *cobra.Command, args []string) {
			votes, err := client.Votes()
			if err != nil || asJSON {
				writeToConsole(votes, err)
				return
			}
			rows := make([][]string, 0, len(votes))
			for _, v := range votes {
				rows = append(rows, []string{v.Voter.String(), v.Candidate.String(), string(v.Value), string(v.Status), strconv.FormatUint(v.Height, 10)})
			}
			writeTable([]string{"voter", "candidate", "vote", "status", "height"}, rows)
		},
	}

	validatorsCmd = &cobra.Command{
		Use:   "mnvalidatorlist",
		Short: "list the active validators",
		Run: func(cmd *cobra.Command, args []string) {
			validators, err := client.Validators()
			if err != nil || asJSON {
				writeToConsole(validators, err)
				return
			}
			rows := make([][]string, 0, len(validators))
			for i, v := range validators {
				rows = append(rows, []string{strconv.Itoa(i + 1), v})
			}
			writeTable([]string{"#", "pubkey"}, rows)
		},
	}

	blkByHeightCmd = &cobra.Command{
		Use:   "block-by-height <height>",
		Short: "query a block at a height",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.BlockByHeight(argToUint64(args[0])))
		},
	}

	pendingTxsCmd = &cobra.Command{
		Use:   "pending",
		Short: "list the transactions waiting for a block",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Pending())
		},
	}

	stateCmd = &cobra.Command{
		Use:   "state",
		Short: "export the governance layout and the confirmed ledgers",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.State())
		},
	}
)

// writeTable() renders rows under a header on stdout
func writeTable(header []string, rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
	fmt.Printf("%d total\n", len(rows))
}

func argToUint64(arg string) uint64 {
	i, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		l.Fatal(err.Error())
	}
	return i
}
