// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package main

import (
	"github.com/DataDog/chaos-seal/cli/sealcli/cmd"
)

func main() {
	// execute command
	cmd.Execute()
}
