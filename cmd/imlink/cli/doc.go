// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the imlink CLI: a tree of
// [Command] values with pflag-based parameter structs, the shared root
// flags and config loading ([Globals]), the saved login ([Session]),
// and categorized errors ([ToolError]).
package cli
