// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the imlink CLI configuration file.
//
// Configuration is loaded from a single file named by either the
// IMLINK_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no search path. Files
// ending in .json or .jsonc are read as JSON with comments and
// trailing commas (tidwall/jsonc); anything else is YAML.
//
// Sections: api, log, pubsub, authorize, upload, session. Blocks named
// development, staging and production override the base values when
// [Config].Environment matches.
//
// String fields expand ${VAR} and ${VAR:-default} from the process
// environment after overrides are applied. [LoadEnvFile] reads a .env
// file into the environment first, without replacing variables that
// are already set, so secrets can live next to the config without
// being written into it.
package config
