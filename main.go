// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 FreshTrace Labs
//
// Voicepick - PTI Voice Pick Code Toolkit
//
// A CLI tool for computing PTI voice pick codes and supervising the
// FreshTrace label station feed.

package main

import (
	"os"

	"github.com/freshtrace/voicepick/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
