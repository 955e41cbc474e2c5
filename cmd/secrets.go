package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/config"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Store API keys in the OS keychain",
	Long: "Keys stored here are used when the matching config value and LEADGEN_* variable are unset. Names: " +
		strings.Join(config.SecretNames, ", "),
}

var secretsSetCmd = &cobra.Command{
	Use:   "set NAME [VALUE]",
	Short: "Store a key; reads VALUE from stdin when omitted",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := ""
		if len(args) == 2 {
			value = args[1]
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Enter %s: ", args[0])
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return eris.Wrap(err, "read secret")
			}
			value = strings.TrimSpace(line)
		}
		if err := config.SetSecret(args[0], value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in the keychain.\n", args[0])
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove a key from the keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.DeleteSecret(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s from the keychain.\n", args[0])
		return nil
	},
}

func init() {
	secretsCmd.AddCommand(secretsSetCmd, secretsDeleteCmd)
	rootCmd.AddCommand(secretsCmd)
}
