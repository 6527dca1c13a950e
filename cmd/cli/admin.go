package cli

import (
	"strconv"

	"github.com/canopy-network/mnvalidator/fsm"
	"github.com/canopy-network/mnvalidator/lib"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "admin only operations for the node's wallet, masternodes and regtest chain",
}

var (
	validatorPublicKey, operating = "", false
)

func init() {
	generateCmd.Flags().StringVar(&validatorPublicKey, "validator", "", "sign every block with this keystore key, it must be an active validator")
	mnAddCmd.Flags().BoolVar(&operating, "operating", true, "the masternode runs and is synced")
	adminCmd.AddCommand(generateCmd)
	adminCmd.AddCommand(registerCmd)
	adminCmd.AddCommand(voteCmd)
	adminCmd.AddCommand(disconnectCmd)
	adminCmd.AddCommand(ksCmd)
	adminCmd.AddCommand(ksNewKeyCmd)
	adminCmd.AddCommand(ksImportRawCmd)
	adminCmd.AddCommand(ksDeleteCmd)
	adminCmd.AddCommand(mnCmd)
	adminCmd.AddCommand(mnAddCmd)
	adminCmd.AddCommand(mnOperatingCmd)
	adminCmd.AddCommand(mnRemoveCmd)
	adminCmd.AddCommand(configCmd)
	adminCmd.AddCommand(resourceUsageCmd)
}

var (
	generateCmd = &cobra.Command{
		Use:   "generate <n> --validator=<pubkey>",
		Short: "produce n blocks from the mempool",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			password := ""
			if validatorPublicKey != "" {
				password = getPassword()
			}
			writeToConsole(client.Generate(int(argToUint64(args[0])), validatorPublicKey, password))
		},
	}

	registerCmd = &cobra.Command{
		Use:   "mnregvalidator <alias>",
		Short: "register the masternode configured under alias as a validator candidate",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.RegisterValidator(args[0], getPassword()))
		},
	}

	voteCmd = &cobra.Command{
		Use:   "mnvotevalidator <pubkey> <yes|no> [<pubkey> <yes|no>...]",
		Short: "vote on validator candidates with the wallet's masternode key",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			votes, err := argsToVotes(args)
			if err != nil {
				l.Fatal(err.Error())
			}
			writeToConsole(client.VoteValidators(votes, getPassword()))
		},
	}

	disconnectCmd = &cobra.Command{
		Use:   "disconnect",
		Short: "disconnect the tip block, demoting its transactions to pending",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Disconnect())
		},
	}

	ksCmd = &cobra.Command{
		Use:   "ks",
		Short: "query the keystore of the node",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Keystore())
		},
	}

	ksNewKeyCmd = &cobra.Command{
		Use:   "ks-new-key --password=<password>",
		Short: "add a new masternode key to the keystore of the node",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.KeystoreNewKey(getPassword()))
		},
	}

	ksImportRawCmd = &cobra.Command{
		Use:   "ks-import-raw <private_key> --password=<password>",
		Short: "add a raw private key to the keystore of the node",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.KeystoreImportRaw(args[0], getPassword()))
		},
	}

	ksDeleteCmd = &cobra.Command{
		Use:   "ks-delete <pubkey>",
		Short: "delete a key from the keystore of the node",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.KeystoreDelete(args[0]))
		},
	}

	mnCmd = &cobra.Command{
		Use:   "masternode",
		Short: "query the masternode list of the node",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Masternodes())
		},
	}

	mnAddCmd = &cobra.Command{
		Use:   "masternode-add <alias> <pubkey> --operating=true",
		Short: "add a masternode to the list",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.MasternodeAdd(args[0], args[1], operating))
		},
	}

	mnOperatingCmd = &cobra.Command{
		Use:   "masternode-operating <alias> <true|false>",
		Short: "mark a listed masternode as running or stopped",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			running, err := strconv.ParseBool(args[1])
			if err != nil {
				l.Fatal(err.Error())
			}
			writeToConsole(client.MasternodeOperating(args[0], running))
		},
	}

	mnRemoveCmd = &cobra.Command{
		Use:   "masternode-remove <alias>",
		Short: "remove a masternode from the list",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.MasternodeRemove(args[0]))
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "query the configuration of the node",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.Config())
		},
	}

	resourceUsageCmd = &cobra.Command{
		Use:   "resource-usage",
		Short: "query the memory, cpu and disk usage of the node",
		Run: func(cmd *cobra.Command, args []string) {
			writeToConsole(client.ResourceUsage())
		},
	}
)

// argsToVotes() parses '<pubkey> <yes|no>' pairs
func argsToVotes(args []string) (votes []fsm.VoteEntry, err lib.ErrorI) {
	if len(args)%2 != 0 {
		return nil, lib.ErrInvalidArgument()
	}
	for i := 0; i < len(args); i += 2 {
		candidate, e := lib.StringToBytes(args[i])
		if e != nil {
			return nil, e
		}
		value, e := fsm.ParseVoteValue(args[i+1])
		if e != nil {
			return nil, e
		}
		votes = append(votes, fsm.VoteEntry{Candidate: candidate, Value: value})
	}
	return
}
