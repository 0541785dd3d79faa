// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authd/internal/auth"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	var cfg auth.HasherConfig

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin",
		Long: `Read one password line from stdin and print its hash, for seeding
user records by hand. The password is never echoed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHashPassword(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Algorithm, "algorithm", auth.AlgorithmBcrypt, "hashing algorithm (bcrypt or argon2id)")
	cmd.Flags().IntVar(&cfg.Cost, "cost", 0, "bcrypt cost (0 = default)")

	return cmd
}

func runHashPassword(cmd *cobra.Command, cfg auth.HasherConfig) error {
	hasher, err := auth.NewPasswordHasher(cfg)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return oops.Code("PASSWORD_READ_FAILED").Errorf("no password on stdin")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return oops.Code("PASSWORD_EMPTY").Errorf("refusing to hash an empty password")
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return oops.Wrap(err)
}
