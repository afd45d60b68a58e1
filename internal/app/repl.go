package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"

	"github.com/fpt/go-wildprompt-cli/internal/repository"
	"github.com/fpt/go-wildprompt-cli/pkg/prompt/domain"
)

// Session is the interactive state on top of a PromptTester
type Session struct {
	tester    *PromptTester
	out       io.Writer
	rl        *readline.Instance // nil outside the REPL
	style     terminalStyle
	lastInput string
}

// NewSession creates a session printing to out.
func NewSession(tester *PromptTester, out io.Writer) *Session {
	if out == nil {
		out = os.Stdout
	}
	return &Session{tester: tester, out: out}
}

// SlashCommand represents a command that starts with /
type SlashCommand struct {
	Name        string
	Usage       string
	Description string
	Handler     func(s *Session, args []string) bool // Returns true if should exit
}

// getSlashCommands returns all available slash commands
func getSlashCommands() []SlashCommand {
	return []SlashCommand{
		{
			Name:        "help",
			Description: "Show available commands and template syntax",
			Handler: func(s *Session, args []string) bool {
				showInteractiveHelp(s.out)
				return false
			},
		},
		{
			Name:        "wildcards",
			Usage:       "[filter]",
			Description: "List wildcards, or pick one to insert",
			Handler:     (*Session).cmdWildcards,
		},
		{
			Name:        "reload",
			Description: "Re-read wildcard files from disk",
			Handler: func(s *Session, args []string) bool {
				if err := s.tester.ReloadWildcards(); err != nil {
					fmt.Fprintf(s.out, "❌ Reload failed: %v\n", err)
					return false
				}
				fmt.Fprintf(s.out, "🔄 Reloaded %d wildcards\n", len(s.tester.Wildcards()))
				return false
			},
		},
		{
			Name:        "path",
			Usage:       "[dir]",
			Description: "Show or change the wildcard directory",
			Handler:     (*Session).cmdPath,
		},
		{
			Name:        "sampler",
			Usage:       "[random|cyclical|combinatorial]",
			Description: "Show or change the default sampler",
			Handler:     (*Session).cmdSampler,
		},
		{
			Name:        "seed",
			Usage:       "[on|off|N]",
			Description: "Show or change the seeding policy",
			Handler:     (*Session).cmdSeed,
		},
		{
			Name:        "collapse",
			Description: "Toggle whitespace collapsing of the output",
			Handler: func(s *Session, args []string) bool {
				if s.tester.ToggleCollapse() {
					fmt.Fprintln(s.out, "🧹 Output collapsing on")
				} else {
					fmt.Fprintln(s.out, "🧹 Output collapsing off")
				}
				return false
			},
		},
		{
			Name:        "diff",
			Description: "Show the difference between the last two outputs",
			Handler:     (*Session).cmdDiff,
		},
		{
			Name:        "save",
			Usage:       "<folder/name>",
			Description: "Save the last template to the prompt library",
			Handler:     (*Session).cmdSave,
		},
		{
			Name:        "load",
			Usage:       "[folder/name]",
			Description: "Expand a saved template",
			Handler:     (*Session).cmdLoad,
		},
		{
			Name:        "update",
			Usage:       "<folder/name>",
			Description: "Replace a saved template with the last template",
			Handler:     (*Session).cmdUpdate,
		},
		{
			Name:        "rename",
			Usage:       "<folder/name> <new name>",
			Description: "Rename a saved template or folder",
			Handler:     (*Session).cmdRename,
		},
		{
			Name:        "mkdir",
			Usage:       "<folder>",
			Description: "Create a folder in the prompt library",
			Handler:     (*Session).cmdMkdir,
		},
		{
			Name:        "rm",
			Usage:       "<folder/name>",
			Description: "Delete a saved template or folder",
			Handler:     (*Session).cmdRemove,
		},
		{
			Name:        "prompts",
			Usage:       "[folder]",
			Description: "List saved templates",
			Handler:     (*Session).cmdPrompts,
		},
		{
			Name:        "search",
			Usage:       "<term>",
			Description: "Search saved templates by name or content",
			Handler:     (*Session).cmdSearch,
		},
		{
			Name:        "examples",
			Usage:       "[name]",
			Description: "List example templates, or expand one",
			Handler:     (*Session).cmdExamples,
		},
		{
			Name:        "quit",
			Description: "Exit the interactive session",
			Handler: func(s *Session, args []string) bool {
				fmt.Fprintln(s.out, "👋 Goodbye!")
				return true
			},
		},
		{
			Name:        "exit",
			Description: "Exit the interactive session (alias for quit)",
			Handler: func(s *Session, args []string) bool {
				fmt.Fprintln(s.out, "👋 Goodbye!")
				return true
			},
		},
	}
}

// HandleSlashCommand processes commands that start with /
// Returns true if the command requests program exit, false otherwise
func (s *Session) HandleSlashCommand(input string) bool {
	// Check if this is just "/" - show command selector
	if strings.TrimSpace(input) == "/" {
		return s.showCommandSelector()
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false
	}

	commandName := strings.TrimPrefix(parts[0], "/")
	commands := getSlashCommands()

	for _, cmd := range commands {
		if cmd.Name == commandName {
			return cmd.Handler(s, parts[1:])
		}
	}

	// Command not found - show available commands
	fmt.Fprintf(s.out, "❌ Unknown command: /%s\n", commandName)
	fmt.Fprintln(s.out, "💡 Available commands:")
	for _, cmd := range commands {
		fmt.Fprintf(s.out, "  /%s - %s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprintln(s.out, "\n💡 Tip: Type just '/' to see an interactive command selector!")
	return false
}

// Expand runs one template and prints the result with its stats line.
func (s *Session) Expand(template string) Result {
	s.lastInput = template
	result := s.tester.Process(template)
	s.printResult(result)
	return result
}

func (s *Session) printResult(result Result) {
	fmt.Fprintln(s.out, s.style.wrap(result.Output))
	fmt.Fprintln(s.out, s.style.render(statsStyle, fmt.Sprintf("📊 %s | Seed: %d", result.Stats, result.Seed)))
}

func (s *Session) printError(err error) {
	fmt.Fprintln(s.out, s.style.render(errorStyle, "❌ "+err.Error()))
}

func (s *Session) cmdWildcards(args []string) bool {
	names := s.tester.Wildcards()
	if filter := strings.Join(args, " "); filter != "" {
		names = fuzzyFilter(filter, names)
	}
	if len(names) == 0 {
		if s.tester.WildcardsPath() == "" {
			fmt.Fprintln(s.out, "🃏 No wildcard directory set. Use /path <dir>.")
		} else {
			fmt.Fprintln(s.out, "🃏 No wildcards found.")
		}
		return false
	}

	// Outside the REPL there is no line to insert into.
	if s.rl == nil {
		combinatorial := s.tester.Sampler() == domain.SamplerCombinatorial
		for _, name := range names {
			if left, ok := s.tester.CombinationsLeft(name); ok && combinatorial {
				fmt.Fprintf(s.out, "  __%s__ (%d left)\n", name, left)
				continue
			}
			fmt.Fprintf(s.out, "  __%s__\n", name)
		}
		return false
	}

	prompt := promptui.Select{
		Label: "Insert wildcard",
		Items: names,
		Size:  15,
		Searcher: func(input string, index int) bool {
			return input == "" || len(fuzzy.Find(input, names[index:index+1])) > 0
		},
		Templates: &promptui.SelectTemplates{
			Active:   "▸ {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "🃏 {{ . | cyan }}",
		},
	}
	i, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			fmt.Fprintln(s.out, "\nCancelled.")
		}
		return false
	}
	if _, err := s.rl.WriteStdin([]byte("__" + names[i] + "__")); err != nil {
		fmt.Fprintf(s.out, "__%s__\n", names[i])
	}
	return false
}

// fuzzyFilter returns the names matching pattern, best match first.
func fuzzyFilter(pattern string, names []string) []string {
	matches := fuzzy.Find(pattern, names)
	filtered := make([]string, 0, len(matches))
	for _, m := range matches {
		filtered = append(filtered, m.Str)
	}
	return filtered
}

func (s *Session) cmdPath(args []string) bool {
	if len(args) == 0 {
		if p := s.tester.WildcardsPath(); p != "" {
			fmt.Fprintf(s.out, "📁 Wildcard directory: %s (%d wildcards)\n", p, len(s.tester.Wildcards()))
		} else {
			fmt.Fprintln(s.out, "📁 No wildcard directory set.")
		}
		return false
	}

	dir := strings.Join(args, " ")
	if strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}
	if err := s.tester.SetWildcardsPath(dir); err != nil {
		s.printError(err)
		return false
	}
	fmt.Fprintf(s.out, "📁 Wildcard directory: %s (%d wildcards)\n", s.tester.WildcardsPath(), len(s.tester.Wildcards()))
	return false
}

func (s *Session) cmdSampler(args []string) bool {
	var kind domain.SamplerKind
	if len(args) == 0 {
		if s.rl == nil {
			fmt.Fprintf(s.out, "🎲 Default sampler: %s\n", s.tester.Sampler())
			return false
		}
		kinds := domain.SamplerKinds()
		prompt := promptui.Select{
			Label:     fmt.Sprintf("Default sampler (current: %s)", s.tester.Sampler()),
			Items:     kinds,
			CursorPos: samplerIndex(kinds, s.tester.Sampler()),
		}
		i, _, err := prompt.Run()
		if err != nil {
			return false
		}
		kind = kinds[i]
	} else {
		parsed, err := domain.ParseSamplerKind(args[0])
		if err != nil {
			s.printError(err)
			return false
		}
		kind = parsed
	}

	if err := s.tester.SetSampler(kind); err != nil {
		s.printError(err)
		return false
	}
	fmt.Fprintf(s.out, "🎲 Default sampler: %s\n", kind)
	return false
}

func samplerIndex(kinds []domain.SamplerKind, current domain.SamplerKind) int {
	for i, k := range kinds {
		if k == current {
			return i
		}
	}
	return 0
}

func (s *Session) cmdSeed(args []string) bool {
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on":
			_, seed := s.tester.SeedPolicy()
			s.tester.SetFixedSeed(seed)
		case "off":
			s.tester.SetRandomSeed()
		default:
			seed, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				fmt.Fprintf(s.out, "❌ Invalid seed %q: use on, off or a non-negative number\n", args[0])
				return false
			}
			s.tester.SetFixedSeed(seed)
		}
	}

	if fixed, seed := s.tester.SeedPolicy(); fixed {
		fmt.Fprintf(s.out, "🌱 Fixed seed: %d\n", seed)
	} else {
		fmt.Fprintln(s.out, "🌱 Random seed per run")
	}
	return false
}

func (s *Session) cmdDiff(args []string) bool {
	out, ok := s.tester.DiffLast()
	switch {
	case !ok:
		fmt.Fprintln(s.out, "🔍 Need two outputs to compare.")
	case out == "":
		fmt.Fprintln(s.out, "🔍 The last two outputs are identical.")
	default:
		fmt.Fprint(s.out, out)
	}
	return false
}

func (s *Session) cmdSave(args []string) bool {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "❌ Usage: /save <folder/name>")
		return false
	}
	if s.lastInput == "" {
		fmt.Fprintln(s.out, "❌ Nothing to save yet: enter a template first.")
		return false
	}
	saved, err := s.tester.SavePrompt(strings.Join(args, " "), s.lastInput)
	if err != nil {
		s.printError(err)
		return false
	}
	fmt.Fprintf(s.out, "💾 Saved as %s\n", saved)
	return false
}

func (s *Session) cmdLoad(args []string) bool {
	path := strings.Join(args, " ")
	if path == "" {
		if s.rl == nil {
			fmt.Fprintln(s.out, "❌ Usage: /load <folder/name>")
			return false
		}
		selected, ok := s.selectPrompt()
		if !ok {
			return false
		}
		path = selected
	}

	template, err := s.tester.LoadPrompt(path)
	if err != nil {
		s.printError(err)
		return false
	}
	fmt.Fprintf(s.out, "📚 %s: %s\n", path, template)
	s.Expand(template)
	return false
}

func (s *Session) cmdUpdate(args []string) bool {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "❌ Usage: /update <folder/name>")
		return false
	}
	if s.lastInput == "" {
		fmt.Fprintln(s.out, "❌ Nothing to save yet: enter a template first.")
		return false
	}
	path := strings.Join(args, " ")
	if err := s.tester.UpdatePrompt(path, s.lastInput); err != nil {
		s.printError(err)
		return false
	}
	fmt.Fprintf(s.out, "💾 Updated %s\n", path)
	return false
}

// cmdRename takes the last argument as the new name so that paths may
// contain spaces.
func (s *Session) cmdRename(args []string) bool {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "❌ Usage: /rename <folder/name> <new name>")
		return false
	}
	path := strings.Join(args[:len(args)-1], " ")
	renamed, err := s.tester.RenamePrompt(path, args[len(args)-1])
	if err != nil {
		s.printError(err)
		return false
	}
	fmt.Fprintf(s.out, "✏️  Renamed %s to %s\n", path, renamed)
	return false
}

func (s *Session) cmdMkdir(args []string) bool {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "❌ Usage: /mkdir <folder>")
		return false
	}
	created, err := s.tester.AddFolder(strings.Join(args, " "))
	if err != nil {
		s.printError(err)
		return false
	}
	fmt.Fprintf(s.out, "📁 Created %s/\n", created)
	return false
}

func (s *Session) cmdRemove(args []string) bool {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "❌ Usage: /rm <folder/name>")
		return false
	}
	path := strings.Join(args, " ")
	if err := s.tester.RemovePrompt(path); err != nil {
		s.printError(err)
		return false
	}
	fmt.Fprintf(s.out, "🗑️  Removed %s\n", path)
	return false
}

// selectPrompt lets the user pick any saved template.
func (s *Session) selectPrompt() (string, bool) {
	entries, err := s.tester.SearchPrompts("")
	if err != nil {
		s.printError(err)
		return "", false
	}
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "📚 The prompt library is empty.")
		return "", false
	}

	prompt := promptui.Select{
		Label: "Load template",
		Items: entries,
		Size:  10,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(entries[index].Path), strings.ToLower(input))
		},
		Templates: &promptui.SelectTemplates{
			Active:   "▸ {{ .Path | cyan }}",
			Inactive: "  {{ .Path }}",
			Selected: "📚 {{ .Path | cyan }}",
			Details: `
--------- Template ----------
{{ .Content }}`,
		},
	}
	i, _, err := prompt.Run()
	if err != nil {
		return "", false
	}
	return entries[i].Path, true
}

func (s *Session) cmdPrompts(args []string) bool {
	folder := strings.Join(args, " ")
	entries, err := s.tester.ListPrompts(folder)
	if err != nil {
		s.printError(err)
		return false
	}
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "📚 No saved templates.")
		return false
	}
	for _, e := range entries {
		if e.Type == repository.EntryFolder {
			fmt.Fprintf(s.out, "  📁 %s/\n", e.Path)
		} else {
			fmt.Fprintf(s.out, "  📝 %s\n", e.Path)
		}
	}
	return false
}

func (s *Session) cmdSearch(args []string) bool {
	term := strings.Join(args, " ")
	if term == "" {
		fmt.Fprintln(s.out, "❌ Usage: /search <term>")
		return false
	}
	entries, err := s.tester.SearchPrompts(term)
	if err != nil {
		s.printError(err)
		return false
	}
	if len(entries) == 0 {
		fmt.Fprintf(s.out, "🔍 No templates match %q\n", term)
		return false
	}
	for _, e := range entries {
		fmt.Fprintf(s.out, "  📝 %s: %s\n", e.Path, firstLine(e.Content))
	}
	return false
}

func (s *Session) cmdExamples(args []string) bool {
	if len(args) > 0 {
		preset, ok := s.tester.Preset(strings.Join(args, " "))
		if !ok {
			fmt.Fprintf(s.out, "❌ Unknown example %q\n", strings.Join(args, " "))
			return false
		}
		fmt.Fprintf(s.out, "✨ %s\n", preset.Template)
		s.Expand(preset.Template)
		return false
	}

	category := ""
	for _, p := range s.tester.Presets() {
		if p.Category != category {
			category = p.Category
			fmt.Fprintf(s.out, "\n%s\n", s.style.render(categoryStyle, category+":"))
		}
		fmt.Fprintf(s.out, "  %s %-40s %s\n", s.style.render(presetNameStyle, fmt.Sprintf("%-18s", p.Name)), p.Template, p.Description)
	}
	fmt.Fprintln(s.out, "\n💡 Run one with /examples <name>")
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

// showCommandSelector shows an interactive command selector using promptui
func (s *Session) showCommandSelector() bool {
	commands := getSlashCommands()

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "▸ {{ .Name | cyan }} - {{ .Description | faint }}",
		Inactive: "  {{ .Name | cyan }} - {{ .Description | faint }}",
		Selected: "{{ .Name | red | cyan }}",
		Details: `
--------- Command Details ----------
{{ "Name:" | faint }}	{{ .Name }} {{ .Usage }}
{{ "Description:" | faint }}	{{ .Description }}`,
	}

	searcher := func(input string, index int) bool {
		command := commands[index]
		name := strings.ReplaceAll(strings.ToLower(command.Name), " ", "")
		input = strings.ReplaceAll(strings.ToLower(input), " ", "")
		return strings.Contains(name, input)
	}

	prompt := promptui.Select{
		Label:     "Choose a command",
		Items:     commands,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	i, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			fmt.Fprintln(s.out, "\nCancelled.")
			return false
		}
		fmt.Fprintf(s.out, "Command selection failed: %v\n", err)
		return false
	}
	return commands[i].Handler(s, nil)
}

// StartInteractiveMode runs the readline-based REPL
func (s *Session) StartInteractiveMode(historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "🎲 > ",
		HistoryFile:         historyFile,
		AutoComplete:        newCompleter(s.tester),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		HistoryLimit:        2000,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	s.rl, s.style = rl, newTerminalStyle()
	defer func() { s.rl, s.style = nil, terminalStyle{} }()

	fmt.Fprintln(s.out, "\n🚀 Welcome to wildprompt!")
	fmt.Fprintln(s.out, "💬 Type a template to expand it. Commands start with '/'.")
	fmt.Fprintln(s.out, "⌨️ Tab completes commands and __wildcards__, Ctrl+R searches history.")
	fmt.Fprintln(s.out, strings.Repeat("=", 60))

	for {
		fmt.Fprint(s.out, "\n")
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if s.HandleSlashCommand(input) {
				break
			}
			continue
		}

		s.Expand(input)
	}
	return nil
}

// completer completes slash commands at the start of the line and
// __wildcard__ tokens anywhere in it.
type completer struct {
	commands *readline.PrefixCompleter
	tester   *PromptTester
}

func newCompleter(tester *PromptTester) *completer {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range getSlashCommands() {
		var children []readline.PrefixCompleterInterface
		switch cmd.Name {
		case "sampler":
			for _, k := range domain.SamplerKinds() {
				children = append(children, readline.PcItem(string(k)))
			}
		case "seed":
			children = append(children, readline.PcItem("on"), readline.PcItem("off"))
		case "load", "update", "rm", "rename":
			children = append(children, readline.PcItemDynamic(func(string) []string {
				entries, _ := tester.SearchPrompts("")
				paths := make([]string, 0, len(entries))
				for _, e := range entries {
					paths = append(paths, e.Path)
				}
				return paths
			}))
		case "examples":
			children = append(children, readline.PcItemDynamic(func(string) []string {
				var names []string
				for _, p := range tester.Presets() {
					names = append(names, p.Name)
				}
				return names
			}))
		}
		items = append(items, readline.PcItem("/"+cmd.Name, children...))
	}
	return &completer{commands: readline.NewPrefixCompleter(items...), tester: tester}
}

func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	if strings.HasPrefix(string(line), "/") {
		return c.commands.Do(line, pos)
	}

	// complete the token after the last unmatched "__" before the cursor
	head := string(line[:pos])
	start := strings.LastIndex(head, "__")
	if start < 0 || strings.Count(head[:start], "__")%2 == 1 {
		return nil, 0
	}
	typed := head[start+2:]
	if len(typed) > 0 && domain.IsSamplerPrefix(typed[0]) {
		typed = typed[1:]
	}
	if strings.ContainsAny(typed, " \t") {
		return nil, 0
	}

	var candidates [][]rune
	for _, name := range c.tester.Wildcards() {
		if strings.HasPrefix(name, typed) {
			candidates = append(candidates, []rune(name[len(typed):]+"__"))
		}
	}
	return candidates, len([]rune(typed))
}

// filterInput filters input runes to handle special keys
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showInteractiveHelp(out io.Writer) {
	fmt.Fprintln(out, "\n📚 Interactive Commands:")
	fmt.Fprintln(out, "  /                           - Show interactive command selector")
	for _, cmd := range getSlashCommands() {
		fmt.Fprintf(out, "  /%-27s - %s\n", strings.TrimSpace(cmd.Name+" "+cmd.Usage), cmd.Description)
	}

	fmt.Fprintln(out, "\n🧩 Template Syntax:")
	fmt.Fprintln(out, "  {a|b|c}                     - pick one option")
	fmt.Fprintln(out, "  {2$$a|b|c}                  - pick two, joined with \", \"")
	fmt.Fprintln(out, "  {1-3$$ and $$a|b|c}         - pick one to three, custom separator")
	fmt.Fprintln(out, "  {~a|b} {@a|b} {&a|b}        - random, cyclical, combinatorial")
	fmt.Fprintln(out, "  __name__ __@name__          - option from a wildcard file")
	fmt.Fprintln(out, "  # comment                   - lines starting with # are ignored")

	fmt.Fprintln(out, "\n⌨️  Enhanced Features:")
	fmt.Fprintln(out, "  Ctrl+C           - Cancel current input")
	fmt.Fprintln(out, "  Ctrl+R           - Search template history")
	fmt.Fprintln(out, "  Tab              - Complete commands and wildcard names")
}
