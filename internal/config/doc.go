// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for stdqa.
//
// Configuration is layered, later layers winning:
//   - Built-in defaults
//   - ~/.stdqa/config.toml (or the file passed with --config)
//   - Environment variables (STDQA_*, and SELECTEL_IP for the backend host)
//
// A .env file in the working directory is loaded by main before Load runs,
// so its values arrive through the environment layer.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	client := api.NewClient(api.OptionsFromConfig(cfg))
//
// Watch reports edits to the config file so the TUI can pick up a corrected
// backend address without a restart.
package config
