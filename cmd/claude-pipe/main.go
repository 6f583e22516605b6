// claude-pipe sends a prompt to an AI CLI agent running in a tmux
// session and prints only the agent's answer.
package main

import "github.com/volker-fr/claude-pipe/internal/cmd"

func main() {
	cmd.Execute()
}
