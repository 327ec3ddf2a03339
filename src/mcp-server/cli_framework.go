// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/template"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/helper/posix"
	x509certs "github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/revoke"
	"github.com/H0llyW00dzZ/tls-server-trust/src/logger"
	"github.com/H0llyW00dzZ/tls-server-trust/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

// cliHelpData carries the values substituted into the embedded cli_help.md
// template when BuildRootCommand renders the root command's Long description
// and Examples sections.
type cliHelpData struct {
	// ExeName: Executable name for command examples
	ExeName string
	// InstructionsFlagName: Dynamic instructions flag name
	InstructionsFlagName string
	// ConfigFlagName: Dynamic config flag name
	ConfigFlagName string
	// HelpFlagName: Dynamic help flag name
	HelpFlagName string
}

// CLIFramework fronts the trust evaluation MCP server with a conventional
// command line. Running the binary with no arguments starts the stdio server;
// flags cover the documentation and configuration paths.
//
// Key features:
//   - Dynamic executable naming based on the actual binary path (not hardcoded)
//   - [Gopls-style] --instructions flag for displaying trust evaluation workflows
//   - Configuration via the --config flag or the MCP_TRUST_CONFIG_FILE environment variable
//   - Default MCP server startup when no arguments are provided
//   - Graceful shutdown on SIGINT and SIGTERM
//
// The fields mirror ServerDependencies and are split the same way the
// ServerBuilder consumes them: the cert manager and session factory feed the
// trust tools, the embed filesystem backs templates and embedded resources,
// the sampling handler carries AI analysis traffic, and config-dependent
// tools stay apart from self-contained ones so Build can wrap their handlers.
//
// [Gopls-style]: https://tip.golang.org/gopls/features/mcp#instructions-to-the-model
type CLIFramework struct {
	configFile         string
	config             *Config
	embed              templates.EmbedFS
	version            string
	certManager        CertificateManager
	sessionFactory     SessionFactory
	tools              []ToolDefinition
	toolsWithConfig    []ToolDefinitionWithConfig
	resources          []ServerResource
	resourcesWithEmbed []ServerResourceWithEmbed
	prompts            []ServerPrompt
	promptsWithEmbed   []ServerPromptWithEmbed
	samplingHandler    client.SamplingHandler
	instructions       string
	populateCache      bool
}

// NewCLIFramework creates a CLI framework wired with the given dependencies.
//
// Dependencies arrive through ServerDependencies so tests can swap the cert
// manager, session factory, or tool set without a separate constructor per
// combination. Configuration loading is deferred until runtime (in
// BuildRootCommand or startMCPServer) so --config and the environment
// variable fallback still apply.
//
// Parameters:
//   - configFile: Path to the MCP server configuration file. Empty string
//     falls back to MCP_TRUST_CONFIG_FILE or the built-in defaults.
//   - deps: Server dependencies the framework hands through to ServerBuilder.
//
// Returns:
//   - *CLIFramework: Initialized CLI framework ready for building commands.
//
// Example usage:
//
//	deps := ServerDependencies{
//	    Version: "1.0.0",
//	    Config: &Config{...},
//	    CertManager: x509certs.New(),
//	    // ... other dependencies
//	}
//	framework := NewCLIFramework("config.json", deps)
//	cmd := framework.BuildRootCommand()
func NewCLIFramework(configFile string, deps ServerDependencies) *CLIFramework {
	return &CLIFramework{
		configFile:         configFile,
		config:             deps.Config,
		embed:              deps.Embed,
		version:            deps.Version,
		certManager:        deps.CertManager,
		sessionFactory:     deps.SessionFactory,
		tools:              deps.Tools,
		toolsWithConfig:    deps.ToolsWithConfig,
		resources:          deps.Resources,
		resourcesWithEmbed: deps.ResourcesWithEmbed,
		prompts:            deps.Prompts,
		promptsWithEmbed:   deps.PromptsWithEmbed,
		samplingHandler:    deps.SamplingHandler,
		instructions:       deps.Instructions,
		populateCache:      deps.PopulateCache,
	}
}

// newDefaultFramework assembles a CLIFramework with every default tool,
// resource, prompt, and sampling handler the MCP server ships with.
//
// Configuration is loaded up front to surface config errors before command
// execution and to seed the sampling handler. The --config flag can still
// point startMCPServer at a different file at runtime.
//
// Parameters:
//   - version: Server version string for identification and User-Agent headers
//   - configFile: Initial configuration file path; empty string falls back to
//     the MCP_TRUST_CONFIG_FILE environment variable
//
// Returns:
//   - *CLIFramework: Framework wired with the default server dependencies
//   - error: Configuration or instruction template loading errors
func newDefaultFramework(version, configFile string) (*CLIFramework, error) {
	config, err := loadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	tools, toolsWithConfig := createTools()

	instructions, err := loadInstructions(tools, toolsWithConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load instructions: %w", err)
	}

	deps := ServerDependencies{
		Config:             config,
		Embed:              templates.MagicEmbed,
		Version:            version,
		CertManager:        x509certs.New(),
		SessionFactory:     DefaultSessionFactory{},
		Tools:              tools,
		ToolsWithConfig:    toolsWithConfig,
		Resources:          createResources(),
		ResourcesWithEmbed: createEmbeddedResources(),
		PromptsWithEmbed:   createPrompts(),
		SamplingHandler:    NewDefaultSamplingHandler(config, version),
		Instructions:       instructions,
		PopulateCache:      true,
	}

	return NewCLIFramework(configFile, deps), nil
}

// RunCLI starts the MCP server behind a Cobra front end.
//
// RunCLI is the flag-aware counterpart to [Run]. It builds the default
// CLIFramework and executes the root command, which adds the --config,
// --instructions, --help, and --version flags documented by the server
// binaries. Running without arguments starts the stdio MCP server, exactly
// like [Run].
//
// Parameters:
//   - version: Version string to set for the server (e.g., "0.3.0")
//   - configFile: Default configuration file path; overridable with --config
//
// Returns:
//   - error: Configuration loading, command parsing, or server runtime errors;
//     nil after a signal-triggered graceful shutdown
func RunCLI(version, configFile string) error {
	appVersion = version

	framework, err := newDefaultFramework(version, configFile)
	if err != nil {
		return err
	}

	return framework.BuildRootCommand().Execute()
}

// BuildRootCommand creates the root Cobra command the server binaries execute.
//
// The root command keeps the binary's dual nature in one place:
//   - Without arguments it starts the stdio MCP server (no server subcommand needed)
//   - With [gopls-style] --instructions it prints the trust evaluation workflows and exits
//   - --config points the server at an alternate configuration file
//   - --help and --version come from Cobra, named after the actual binary
//
// The Long description and Examples are rendered from the embedded
// cli_help.md template with the real executable and flag names, so a renamed
// binary still shows accurate help output.
//
// Returns:
//   - *cobra.Command: Root command with MCP server integration.
//
// Template processing failures panic: a broken embedded help template is a
// packaging defect, not a runtime condition.
//
// Example usage:
//
//	framework := NewCLIFramework("config.json", deps)
//	rootCmd := framework.BuildRootCommand()
//	if err := rootCmd.Execute(); err != nil {
//	    log.Fatal(err)
//	}
//
// [gopls-style]: https://tip.golang.org/gopls/features/mcp#instructions-to-the-model
func (cf *CLIFramework) BuildRootCommand() *cobra.Command {
	// Help text embeds the binary name, so resolve it the cross-platform way
	exeName := posix.GetExecutableName()

	rootCmd := &cobra.Command{
		Use:     exeName,
		Short:   "TLS server trust evaluator with MCP server integration",
		Version: cf.version,
	}

	// Cobra adds the help flag during Execute, which is too late for the
	// flag name lookup the help template needs
	rootCmd.Flags().BoolP("help", "h", false, "help for "+exeName)

	var showInstructions bool
	rootCmd.PersistentFlags().BoolVar(&showInstructions, "instructions", false, "print usage workflows for trust evaluation operations")

	// Persistent so future subcommands inherit the configuration override
	rootCmd.PersistentFlags().StringVar(&cf.configFile, "config", cf.configFile, "path to MCP server configuration file")

	instructionsFlagName, configFlagName, helpFlagName := extractFlagNames(rootCmd)

	// The help template lives in the embed filesystem; without it there is
	// nothing valid to build
	if cf.embed == nil {
		panic("CLIFramework embed filesystem not initialized")
	}

	longDesc, examples, err := cf.loadAndExecuteCLIHelpTemplate(exeName, instructionsFlagName, configFlagName, helpFlagName)
	if err != nil {
		panic(fmt.Sprintf("failed to process CLI help template: %v", err))
	}

	rootCmd.Long = longDesc
	rootCmd.Example = examples

	// The flag value is passed by pointer because Cobra binds it during
	// Execute, after this closure is created
	originalRunE := rootCmd.RunE
	rootCmd.RunE = cf.createRootCommandRunE(&showInstructions, exeName, originalRunE)

	return rootCmd
}

// loadAndExecuteCLIHelpTemplate renders the embedded cli_help.md template and
// splits the result into Long description and Examples sections. Keeping the
// template processing out of BuildRootCommand keeps the command wiring
// readable and lets tests exercise the template path directly.
//
// Parameters:
//   - exeName: The name of the executable binary for command examples
//   - instructionsFlagName: The formatted instructions flag name (e.g., "--instructions")
//   - configFlagName: The formatted config flag name (e.g., "--config")
//   - helpFlagName: The formatted help flag name (e.g., "--help")
//
// Returns:
//   - longDesc: The processed Long description text for the CLI command
//   - examples: The processed Examples section text for the CLI command
//   - err: Template loading, parsing, execution, or result parsing errors
func (cf *CLIFramework) loadAndExecuteCLIHelpTemplate(exeName, instructionsFlagName, configFlagName, helpFlagName string) (longDesc, examples string, err error) {
	templateBytes, err := cf.embed.ReadFile("cli_help.md")
	if err != nil {
		return "", "", fmt.Errorf("failed to load CLI help template: %w", err)
	}

	data := cliHelpData{
		ExeName:              exeName,
		InstructionsFlagName: instructionsFlagName,
		ConfigFlagName:       configFlagName,
		HelpFlagName:         helpFlagName,
	}

	tmpl, err := template.New("cli_help").Parse(string(templateBytes))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse CLI help template: %w", err)
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", "", fmt.Errorf("failed to execute CLI help template: %w", err)
	}

	longDesc, examples, err = cf.parseTemplateResult(result.String())
	if err != nil {
		return "", "", err
	}

	return longDesc, examples, nil
}

// parseTemplateResult splits rendered help text at the "## Examples" marker.
//
// Everything before the marker line becomes the Long description and
// everything after it becomes the Examples section, both trimmed; the marker
// line itself is dropped. Boundaries are located byte-wise, so both Unix and
// Windows line endings survive the split.
//
// Parameters:
//   - templateResult: The rendered template output as a string
//
// Returns:
//   - longDesc: The Long description text (everything before "## Examples")
//   - examples: The Examples section text (everything after "## Examples")
//   - err: Missing "## Examples" marker in the rendered template
func (cf *CLIFramework) parseTemplateResult(templateResult string) (longDesc, examples string, err error) {
	examplesMarker := "## Examples"
	markerIndex := strings.Index(templateResult, examplesMarker)
	if markerIndex == -1 {
		return "", "", fmt.Errorf("CLI help template has invalid format - missing '## Examples' section")
	}

	// Widen to the full line holding the marker
	lineStart := strings.LastIndex(templateResult[:markerIndex], "\n")
	if lineStart == -1 {
		lineStart = 0 // Marker sits on the first line
	} else {
		lineStart++ // Skip the newline character
	}

	lineEnd := strings.Index(templateResult[markerIndex:], "\n")
	if lineEnd == -1 {
		lineEnd = len(templateResult) - markerIndex // Marker line ends the text
	} else {
		lineEnd += markerIndex
	}

	longDesc = strings.TrimSpace(templateResult[:lineStart])
	examples = strings.TrimSpace(templateResult[lineEnd:])

	return longDesc, examples, nil
}

// extractFlagNames looks up the instructions, config, and help flags on the
// root command and formats their names with the "--" prefix for template
// substitution. Help text always reflects the real flag names this way;
// a failed lookup falls back to the documented defaults.
//
// Parameters:
//   - rootCmd: The root Cobra command from which to extract flag information
//
// Returns:
//   - instructionsFlagName: Formatted instructions flag (e.g., "--instructions")
//   - configFlagName: Formatted config flag (e.g., "--config")
//   - helpFlagName: Formatted help flag (e.g., "--help")
func extractFlagNames(rootCmd *cobra.Command) (instructionsFlagName, configFlagName, helpFlagName string) {
	instructionsFlag := rootCmd.PersistentFlags().Lookup("instructions")
	instructionsFlagName = "--instructions"
	if instructionsFlag != nil {
		instructionsFlagName = "--" + instructionsFlag.Name
	}

	configFlag := rootCmd.PersistentFlags().Lookup("config")
	configFlagName = "--config"
	if configFlag != nil {
		configFlagName = "--" + configFlag.Name
	}

	helpFlag := rootCmd.Flags().Lookup("help")
	helpFlagName = "--help"
	if helpFlag != nil {
		helpFlagName = "--" + helpFlag.Name
	}

	return instructionsFlagName, configFlagName, helpFlagName
}

// startMCPServer starts the stdio MCP server. This is the default behavior
// when the binary runs without arguments; no server subcommand exists.
//
// The sequence mirrors [Run]: load configuration (--config flag, then the
// MCP_TRUST_CONFIG_FILE environment variable, then defaults), assemble the
// server through ServerBuilder with the framework's dependencies, start the
// CRL cache cleanup, and serve MCP messages over stdin/stdout until a signal
// arrives.
//
// Signal handling:
//   - Intercepts SIGINT (Ctrl+C) and SIGTERM
//   - Cancels the serving context for graceful shutdown
//   - Prints the shutdown notice to stderr so stdout stays protocol-clean
//
// Returns:
//   - nil: When the server shuts down gracefully after a signal
//   - error: Configuration loading, server building, or runtime errors.
//     context.Canceled translates to nil; deadline errors are reported.
func (cf *CLIFramework) startMCPServer() error {
	// Server chatter goes to stderr; stdout belongs to the MCP protocol
	l := logger.NewCLILogger()
	l.SetOutput(os.Stderr)

	config, err := loadConfig(cf.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Hand every framework dependency to the builder
	builder := NewServerBuilder().
		WithConfig(config).
		WithEmbed(cf.embed).
		WithVersion(cf.version).
		WithCertManager(cf.certManager).
		WithSessionFactory(cf.sessionFactory).
		WithTools(cf.tools...).
		WithToolsWithConfig(cf.toolsWithConfig...).
		WithResources(cf.resources...).
		WithEmbeddedResources(cf.resourcesWithEmbed...).
		WithPrompts(cf.prompts...).
		WithEmbeddedPrompts(cf.promptsWithEmbed...).
		WithSampling(cf.samplingHandler).
		WithInstructions(cf.instructions)

	if cf.populateCache {
		builder = builder.WithPopulate()
	}

	mcpServer, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build MCP server: %w", err)
	}

	stdioServer := server.NewStdioServer(mcpServer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The CRL cache cleanup goroutine must stop with the server
	revoke.Default.StartCacheCleanup(ctx)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		// \r clears any echoed ^C before the shutdown notice
		l.Printf("\rReceived signal %s, initiating graceful shutdown...", sig)
		cancel()
	}()

	l.Printf("TLS Server Trust Evaluator MCP server started.")

	// Signal-driven cancellation is a clean exit; timeouts and transport
	// failures are not
	if err = stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil && err == context.Canceled {
		return nil
	}

	return err
}

// printInstructions writes the trust evaluation workflows to stdout, the
// same text the MCP server sends clients during initialization. The CLI
// --instructions flag exposes it the way [gopls] does.
//
// Returns:
//   - error: None (instructions are pre-generated and validated).
//
// [gopls]: https://tip.golang.org/gopls/features/mcp#instructions-to-the-model
func (cf *CLIFramework) printInstructions() error {
	// Pre-generated at framework construction, so CLI and server output
	// never drift apart
	fmt.Print(cf.instructions)

	return nil
}

// createRootCommandRunE builds the RunE closure for the root command.
//
// Execution order:
//  1. --instructions prints the pre-generated workflows and exits
//  2. No arguments starts the stdio MCP server
//  3. Unexpected arguments produce an error naming the binary
//
// Parameters:
//   - showInstructions: Pointer to the --instructions flag value; dereferenced
//     at execution time, after Cobra has parsed the flags
//   - exeName: The executable name for error messages and identification
//   - originalRunE: The original RunE function (if any) from Cobra command setup
//
// Returns:
//   - func(*cobra.Command, []string) error: The RunE function that handles command execution
func (cf *CLIFramework) createRootCommandRunE(showInstructions *bool, exeName string, originalRunE func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if *showInstructions {
			return cf.printInstructions()
		}
		// Just running the binary starts the server; no subcommand needed
		if len(args) == 0 {
			return cf.startMCPServer()
		}
		// Any RunE Cobra attached earlier still gets its chance
		if originalRunE != nil {
			return originalRunE(cmd, args)
		}
		if len(args) > 0 {
			return fmt.Errorf("unexpected arguments: %s for %q", strings.Join(args, " "), exeName)
		}
		return nil
	}
}
