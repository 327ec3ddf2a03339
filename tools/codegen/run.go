// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"fmt"
	"os"

	"github.com/H0llyW00dzZ/tls-server-trust/tools/codegen/internal"
)

func main() {
	steps := []struct {
		name string
		run  func() error
	}{
		{"resources", codegen.GenerateResources},
		{"tools", codegen.GenerateTools},
		{"prompts", codegen.GeneratePrompts},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", step.name, err)
			os.Exit(1)
		}
	}
}
