package main

import "github.com/tmux-vault/tmux-vault/cmd"

func main() {
	cmd.Execute()
}
