// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger_test

import (
	"bytes"
	"testing"

	"github.com/H0llyW00dzZ/tls-server-trust/src/logger"
)

func BenchmarkMCPLogger_Printf(b *testing.B) {
	var buf bytes.Buffer
	log := logger.NewMCPLogger(&buf, false)

	b.ReportAllocs()

	for i := 0; b.Loop(); i++ {
		log.Printf("policy lint %d", i)
	}
}

func BenchmarkMCPLogger_Println(b *testing.B) {
	var buf bytes.Buffer
	log := logger.NewMCPLogger(&buf, false)

	b.ReportAllocs()

	for i := 0; b.Loop(); i++ {
		log.Println("policy lint", i)
	}
}

func BenchmarkMCPLogger_PrintfConcurrent(b *testing.B) {
	var buf bytes.Buffer
	log := logger.NewMCPLogger(&buf, false)

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			log.Printf("worker lint %d", i)
			i++
		}
	})
}

func BenchmarkMCPLogger_PrintlnConcurrent(b *testing.B) {
	var buf bytes.Buffer
	log := logger.NewMCPLogger(&buf, false)

	b.ResetTimer()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			log.Println("worker lint", i)
			i++
		}
	})
}

func BenchmarkMCPLogger_Silent(b *testing.B) {
	var buf bytes.Buffer
	log := logger.NewMCPLogger(&buf, true)

	b.ReportAllocs()

	for i := 0; b.Loop(); i++ {
		log.Printf("suppressed lint %d", i)
	}
}

func BenchmarkCLILogger_Printf(b *testing.B) {
	var buf bytes.Buffer
	log := logger.NewCLILogger()
	log.SetOutput(&buf)

	b.ReportAllocs()

	for i := 0; b.Loop(); i++ {
		log.Printf("Evaluating endpoint %d...", i)
	}
}

func BenchmarkMCPLogger_ComplexMessage(b *testing.B) {
	var buf bytes.Buffer
	log := logger.NewMCPLogger(&buf, false)

	b.ReportAllocs()

	for i := 0; b.Loop(); i++ {
		log.Printf("evaluated %s: chain length %d, revocation checked in %d ms",
			"internal.api.example.org:8443", i%4, i)
	}
}

func BenchmarkMCPLogger_JSONEscaping(b *testing.B) {
	var buf bytes.Buffer
	log := logger.NewMCPLogger(&buf, false)

	msg := `policyfile: "policies.yaml" line 12: unknown key\nnear: hosts\tpinned-keys`

	b.ReportAllocs()

	for b.Loop() {
		log.Printf("%s", msg)
	}
}
