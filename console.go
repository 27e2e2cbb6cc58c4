package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/c-bata/go-prompt"

	"github.com/whyrusleeping/drumkit/sampler"
)

// promptReader reads lines from the terminal with command and key
// completion.
func promptReader(kit *sampler.Kit) func() string {
	commands := make([]prompt.Suggest, 0, len(sampler.CommandHelp)+1)
	for _, c := range sampler.CommandHelp {
		commands = append(commands, prompt.Suggest{Text: c.Name, Description: c.Help})
	}
	commands = append(commands, prompt.Suggest{Text: "exit", Description: "leave the console"})

	var keys []prompt.Suggest
	for _, k := range kit.Bank.Keys() {
		keys = append(keys, prompt.Suggest{Text: strings.ToLower(k)})
	}

	completer := func(d prompt.Document) []prompt.Suggest {
		before := d.TextBeforeCursor()
		word := d.GetWordBeforeCursor()
		if !strings.Contains(before, " ") {
			return prompt.FilterHasPrefix(commands, word, true)
		}
		if strings.HasPrefix(strings.TrimSpace(before), "hit") {
			return prompt.FilterHasPrefix(keys, word, true)
		}
		return nil
	}

	return func() string {
		return prompt.Input("> ", completer)
	}
}

// runConsole executes lines from read until "exit". Results and errors go to
// out.
func runConsole(kit *sampler.Kit, read func() string, out io.Writer) {
	for {
		t := strings.TrimSpace(read())
		if t == "exit" {
			return
		}
		res, err := kit.Exec(t)
		if err != nil {
			fmt.Fprintln(out, "ERROR: ", err)
			continue
		}
		if res != "" {
			fmt.Fprintln(out, res)
		}
	}
}
