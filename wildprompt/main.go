package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpt/go-wildprompt-cli/internal/app"
	"github.com/fpt/go-wildprompt-cli/internal/config"
	pkgLogger "github.com/fpt/go-wildprompt-cli/pkg/logger"
)

// presetPathsFlag implements flag.Value for handling multiple preset paths
type presetPathsFlag []string

func (p *presetPathsFlag) String() string {
	return strings.Join(*p, ",")
}

func (p *presetPathsFlag) Set(value string) error {
	*p = append(*p, value)
	return nil
}

// resolveStringFlag returns the non-empty value, preferring short flag over long flag
func resolveStringFlag(shortVal, longVal string) string {
	if shortVal != "" {
		return shortVal
	}
	return longVal
}

func printUsage() {
	fmt.Println("wildprompt - expand prompt templates with variants and wildcards")
	fmt.Println()
	fmt.Println("Template syntax:")
	fmt.Println("  {a|b|c}                 One option")
	fmt.Println("  {2$$a|b|c}              Two options joined with \", \"")
	fmt.Println("  {1-3$$ and $$a|b|c}     One to three options with a custom separator")
	fmt.Println("  {@a|b} {&a|b} {~a|b}    Cyclical, combinatorial, random")
	fmt.Println("  __name__                An option from name.txt in the wildcard directory")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  wildprompt                                   # Interactive mode")
	fmt.Println("  wildprompt \"a {red|blue} __animal__\"         # One-shot mode")
	fmt.Println("  wildprompt -n 5 --sampler cyclical \"{a|b}\"   # Five expansions")
	fmt.Println("  wildprompt -w ./wildcards -l                 # List wildcards")
	fmt.Println("  wildprompt -f prompts.txt                    # Templates separated by '----'")
	fmt.Println("  wildprompt --seed 42 \"{a|b|c}\"               # Reproducible output")
	fmt.Println()
}

func main() {
	var wildcards = flag.String("w", "", "Wildcard directory (remembered in settings)")
	var wildcardsLong = flag.String("wildcards", "", "Wildcard directory (remembered in settings)")
	var samplerFlag = flag.String("sampler", "", "Default sampler (random, cyclical or combinatorial)")
	var seed = flag.Uint64("seed", 0, "Fixed seed for reproducible output")
	var collapse = flag.Bool("collapse", false, "Collapse whitespace in the output")
	var count = flag.Int("n", 1, "Number of expansions per template")
	var promptFile = flag.String("f", "", "File containing templates separated by '----'")
	var list = flag.Bool("l", false, "List wildcard names and exit")
	var listLong = flag.Bool("list", false, "List wildcard names and exit")
	var settingsPath = flag.String("settings", "", "Path to settings file")
	var verbose = flag.Bool("v", false, "Enable verbose logging (debug level)")
	var verboseLong = flag.Bool("verbose", false, "Enable verbose logging (debug level)")
	var help = flag.Bool("h", false, "Show this help message")
	var helpLong = flag.Bool("help", false, "Show this help message")

	var presetPaths presetPathsFlag
	flag.Var(&presetPaths, "presets", "Additional example file or directory (can be used multiple times)")

	flag.Usage = func() {
		printUsage()
		fmt.Println("Flags:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *help || *helpLong {
		flag.Usage()
		return
	}

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	resolvedWildcards := resolveStringFlag(*wildcards, *wildcardsLong)
	resolvedList := *list || *listLong
	resolvedVerbose := *verbose || *verboseLong
	args := flag.Args()

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Warning: failed to load settings: %v\n", err)
		settings = config.GetDefaultSettings()
	}

	// Override log level to debug if verbose flag is set
	logLevel := pkgLogger.ParseLevel(settings.LogLevel)
	if resolvedVerbose {
		logLevel = pkgLogger.LogLevelDebug
	}
	pkgLogger.SetGlobalLogLevel(logLevel)
	logger := pkgLogger.NewComponentLogger("wildprompt")
	logger.DebugWithIntention(pkgLogger.IntentionConfig, "Settings loaded", "path", settings.Path(), "log_level", logLevel)

	// Override settings with command line arguments
	if *samplerFlag != "" {
		settings.Sampler.Default = *samplerFlag
	}
	if setFlags["seed"] {
		settings.Sampler.FixedSeed = true
		settings.Sampler.Seed = *seed
	}
	if setFlags["collapse"] {
		settings.Output.Collapse = *collapse
	}
	if len(presetPaths) > 0 {
		settings.Presets.Paths = append(settings.Presets.Paths, presetPaths...)
	}

	if err := config.ValidateSettings(settings); err != nil {
		logger.ErrorWithIcon("❌", "Settings validation failed", "error", err.Error())
		os.Exit(1)
	}

	tester, err := app.NewPromptTesterFromSettings(settings, logger)
	if err != nil {
		logger.ErrorWithIcon("❌", "Failed to initialize", "error", err.Error())
		os.Exit(1)
	}

	if resolvedWildcards != "" {
		if err := tester.SetWildcardsPath(resolvedWildcards); err != nil {
			logger.ErrorWithIcon("❌", "Failed to load wildcard directory", "path", resolvedWildcards, "error", err.Error())
			os.Exit(1)
		}
	}

	if resolvedList {
		listWildcards(tester)
		return
	}

	if *promptFile != "" {
		executeTemplateFile(tester, *promptFile, *count)
		return
	}

	if len(args) > 0 {
		executeTemplate(tester, strings.Join(args, " "), *count)
		return
	}

	session := app.NewSession(tester, os.Stdout)
	if err := session.StartInteractiveMode(historyFile(settings)); err != nil {
		fmt.Printf("❌ Failed to initialize interactive mode: %v\n", err)
		fmt.Println("💡 Please use one-shot mode instead: wildprompt \"your template\"")
		os.Exit(1)
	}
}

func historyFile(settings *config.Settings) string {
	if settings.Path() != "" {
		return filepath.Join(filepath.Dir(settings.Path()), "history")
	}
	return filepath.Join(os.TempDir(), "wildprompt_history")
}

func listWildcards(tester *app.PromptTester) {
	names := tester.Wildcards()
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "🃏 No wildcards found. Set a directory with -w <dir>.")
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func executeTemplate(tester *app.PromptTester, template string, n int) {
	results := tester.Generate(template, n)
	for i, result := range results {
		if i > 0 {
			fmt.Println(tester.Separator())
		}
		fmt.Println(result.Output)
	}
}

func executeTemplateFile(tester *app.PromptTester, filePath string, n int) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to read template file '%s': %v\n", filePath, err)
		os.Exit(1)
	}

	var templates []string
	for _, t := range strings.Split(string(content), "----") {
		if t = strings.TrimSpace(t); t != "" {
			templates = append(templates, t)
		}
	}
	if len(templates) == 0 {
		fmt.Fprintf(os.Stderr, "❌ No templates found in file '%s'\n", filePath)
		os.Exit(1)
	}

	for i, template := range templates {
		if i > 0 {
			fmt.Println(tester.Separator())
		}
		executeTemplate(tester, template, n)
	}
}
