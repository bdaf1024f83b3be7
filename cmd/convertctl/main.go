// convertctl — локальная конвертация файлов без HTTP-сервера.
//
// Использует тот же конвейер, что и сервис: классификация, политика,
// метаданные, стратегии конвертации.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
