package main

import (
	"io"
	"os"

	"github.com/benbeisheim/consolechess/internal/console"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
)

func main() {
	session := console.NewSession(os.Stdin, os.Stdout)
	if err := session.Play(); err != nil && !errors.Is(err, io.EOF) {
		log.Fatal(err)
	}
}
