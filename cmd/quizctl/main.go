package main

import "github.com/mcoot/quizarena/internal/cli"

func main() {
	cli.Execute()
}
