package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/navgurukul/windows-rms-server/internal/auth"
)

var tokenGenerate bool

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token [TOKEN]",
	Short: "Hash an admin API token for admin.token_hash",
	Long: `hash-token prints the argon2id hash to put in admin.token_hash (or
FLEET_ADMIN_TOKEN_HASH). The token is read from the argument or stdin; with
--generate a new random token is created and printed alongside its hash.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashToken,
}

func init() {
	hashTokenCmd.Flags().BoolVar(&tokenGenerate, "generate", false, "generate a new random token")
	rootCmd.AddCommand(hashTokenCmd)
}

func runHashToken(cmd *cobra.Command, args []string) error {
	var token string
	switch {
	case tokenGenerate:
		generated, err := auth.GenerateAdminToken()
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		token = generated
		fmt.Fprintf(cmd.OutOrStdout(), "token: %s\n", token)
	case len(args) == 1:
		token = args[0]
	default:
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token from stdin: %w", err)
		}
		token = strings.TrimSpace(line)
	}

	hash, err := auth.HashToken(token)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "hash: %s\n", hash)
	return nil
}
