// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package codegen generates the MCP trust server's registration code.
//
// Tool, resource, and prompt definitions live in JSON files under config;
// templates under templates render them into the checked-in Go sources, so
// the registered handlers, their descriptions, and the capability listings
// all come from one place.
package codegen
