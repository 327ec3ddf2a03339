// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"testing"

	"github.com/H0llyW00dzZ/tls-server-trust/tools/codegen/internal"
)

func TestGeneratorSteps(t *testing.T) {
	// main regenerates checked-in files, so it is not run here. The
	// generation itself is covered in the internal package tests; this
	// pins the step order main walks through.
	steps := []func() error{
		codegen.GenerateResources,
		codegen.GenerateTools,
		codegen.GeneratePrompts,
	}

	for i, step := range steps {
		if step == nil {
			t.Fatalf("generator step %d is nil", i)
		}
	}
}
