// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DataDog/chaos-seal/policy"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "validate a policy document",
	Long:  `validates a chaos policy document the same way the controller does on startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")

		return ValidatePolicy(path)
	},
}

func init() {
	validateCmd.Flags().String("path", "", "The path to the policy file to be validated.")

	_ = validateCmd.MarkFlagRequired("path")
}

// ValidatePolicy loads and validates the policy file at path, printing a
// short summary of what it declares
func ValidatePolicy(path string) error {
	pol, err := policy.LoadFile(path)
	if err != nil {
		return fmt.Errorf("%v: %w", path, err)
	}

	fmt.Printf("%s is a valid policy: %d node scenario(s), %d pod scenario(s)\n", path, len(pol.NodeScenarios), len(pol.PodScenarios))

	return nil
}
