package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/stigoleg/movemouse/internal/config"
)

// This small tool generates shell completions and a man page from the flags
// config.NewFlagSet declares, so the docs cannot drift from the binary.

const (
	appName        = "movemouse"
	appDescription = "Keeps a session active by running configurable actions on an interval."
)

// shortAliases maps a long flag to its single letter alias.
var shortAliases = map[string]string{
	"duration": "d",
	"version":  "v",
}

type flagDef struct {
	Short string
	Long  string
	Arg   string
	Desc  string
}

func main() {
	flags := collectFlags()
	if err := writeCompletions(flags); err != nil {
		panic(err)
	}
	if err := writeMan(flags); err != nil {
		panic(err)
	}
}

// collectFlags lists every declared flag once, folding single letter
// aliases into their long form.
func collectFlags() []flagDef {
	fs, _, _, _ := config.NewFlagSet(appName, io.Discard)
	aliases := make(map[string]bool, len(shortAliases))
	for _, short := range shortAliases {
		aliases[short] = true
	}

	var flags []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		if aliases[f.Name] {
			return
		}
		arg, usage := flag.UnquoteUsage(f)
		def := flagDef{Long: "--" + f.Name, Desc: usage}
		if short, ok := shortAliases[f.Name]; ok {
			def.Short = "-" + short
		}
		if arg != "" {
			def.Arg = "<" + arg + ">"
		}
		flags = append(flags, def)
	})
	return append(flags, flagDef{Short: "-h", Long: "--help", Desc: "Show help message"})
}

// Names returns the short and long spellings that are set.
func (f flagDef) Names() []string {
	var names []string
	if f.Short != "" {
		names = append(names, f.Short)
	}
	return append(names, f.Long)
}

var completionFuncs = template.FuncMap{
	"join":  strings.Join,
	"trim":  strings.TrimLeft,
	"quote": func(s string) string { return strings.ReplaceAll(s, `"`, `\"`) },
	"zsh": func(f flagDef) string {
		name := f.Long
		if f.Arg != "" {
			// zsh needs = on options that take a value.
			return fmt.Sprintf("'%s=[%s]:value:%s'", name, f.Desc, strings.Trim(f.Arg, "<>"))
		}
		return fmt.Sprintf("'%s[%s]'", name, f.Desc)
	},
}

var completions = map[string]*template.Template{
	appName + ".bash": template.Must(template.New("bash").Funcs(completionFuncs).Parse(`_{{.App}}() {
  local cur="${COMP_WORDS[COMP_CWORD]}"
  local opts="{{range $i, $f := .Flags}}{{if $i}} {{end}}{{join $f.Names " "}}{{end}}"
  if [[ ${cur} == -* ]]; then
    COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
  fi
}
complete -F _{{.App}} {{.App}}
`)),
	"_" + appName: template.Must(template.New("zsh").Funcs(completionFuncs).Parse(`#compdef {{.App}}
_arguments{{range .Flags}} {{zsh .}}{{end}}
`)),
	appName + ".fish": template.Must(template.New("fish").Funcs(completionFuncs).Parse(`complete -c {{.App}} -f
{{range .Flags}}complete -c {{$.App}}{{if .Short}} -s {{trim .Short "-"}}{{end}} -l {{trim .Long "-"}}{{if .Arg}} -r{{else}} -f{{end}} -d "{{quote .Desc}}"
{{end}}`)),
}

func writeCompletions(flags []flagDef) error {
	base := filepath.Join("docs", "completions")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return err
	}
	data := struct {
		App   string
		Flags []flagDef
	}{appName, flags}

	for name, tmpl := range completions {
		var b strings.Builder
		if err := tmpl.Execute(&b, data); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(base, name), []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeMan(flags []flagDef) error {
	if err := os.MkdirAll("man", 0o755); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(".TH \"" + strings.ToUpper(appName) + "\" \"1\" \"\" \"movemouse\" \"User Commands\"\n")
	b.WriteString(".SH NAME\n" + appName + " - " + appDescription + "\n")
	b.WriteString(".SH SYNOPSIS\n.B " + appName + "\n")
	b.WriteString(synopsis(flags) + "\n")
	b.WriteString(".SH DESCRIPTION\n" + appDescription + "\n")
	b.WriteString(".SH OPTIONS\n")
	for _, f := range flags {
		names := strings.Join(f.Names(), ", ")
		if f.Arg != "" {
			names += " " + f.Arg
		}
		b.WriteString(".TP\n\\fB" + names + "\\fR\n" + f.Desc + "\n")
	}
	b.WriteString(".SH EXAMPLES\n")
	b.WriteString(".TP\n\\fB" + appName + "\\fR\nStart interactive TUI.\n")
	b.WriteString(".TP\n\\fB" + appName + " -d 2h30m\\fR\nRun the active profile for 2 hours 30 minutes, then stop.\n")
	b.WriteString(".TP\n\\fB" + appName + " -headless -start -profile Work\\fR\nRun the Work profile without the terminal UI.\n")
	b.WriteString(".TP\n\\fB" + appName + " -headless -listen 127.0.0.1:7071\\fR\nServe the control API and event stream.\n")
	b.WriteString(".SH FILES\n$XDG_CONFIG_HOME/movemouse/settings.yaml, $XDG_CONFIG_HOME/movemouse/journal.db\n")
	b.WriteString(".SH SEE ALSO\nProject homepage: https://github.com/stigoleg/movemouse\n")
	return os.WriteFile(filepath.Join("man", appName+".1"), []byte(b.String()), 0o644)
}

func synopsis(flags []flagDef) string {
	parts := make([]string, 0, len(flags))
	for _, f := range flags {
		name := roffEscape(f.Long)
		if f.Short != "" {
			name = roffEscape(f.Short) + "|" + name
		}
		if f.Arg != "" {
			name += " " + f.Arg
		}
		parts = append(parts, "["+name+"]")
	}
	return strings.Join(parts, " ")
}

func roffEscape(s string) string {
	return strings.ReplaceAll(s, "-", "\\-")
}
