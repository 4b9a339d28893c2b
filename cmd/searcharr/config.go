package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memohai/searcharr/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration file",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and print every problem found",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash usable as bot.password or bot.admin_password",
	Long: `Print a bcrypt hash usable as bot.password or bot.admin_password.

The password is read from standard input when it is not given as an argument.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashPassword,
}

func init() {
	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(hashPasswordCmd)
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	path := config.ResolvePath(configFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	problems := cfg.Validate()
	out := cmd.OutOrStdout()
	if len(problems) == 0 {
		fmt.Fprintf(out, "%s: ok\n", path)
		return nil
	}
	for _, p := range problems {
		fmt.Fprintf(out, "%-7s %s: %s\n", p.Severity, p.Field, p.Message)
	}
	if config.HasErrors(problems) {
		return errors.New("configuration has errors")
	}
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	password := ""
	if len(args) == 1 {
		password = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("password must not be empty")
	}
	hash, err := config.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
