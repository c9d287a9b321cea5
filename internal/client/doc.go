// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the command line client runtime.
//
// It wires the configured local backend, the remote gateway and a hybrid
// database into one process and runs a single command against them: find,
// findone, upsert, remove, upload or sync.
package client
