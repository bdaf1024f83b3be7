package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/converter/internal/domain/model"
	"github.com/bigkaa/goartstore/converter/internal/domain/policy"
)

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>...",
		Short: "Определить категорию файлов и допустимые форматы",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := policy.DefaultRules()

			rows := make([][]string, 0, len(args))
			for _, path := range args {
				size := "-"
				if info, err := os.Stat(path); err == nil {
					size = humanize.IBytes(uint64(info.Size()))
				}
				category := categoryOf(path)
				rows = append(rows, []string{path, string(category), size, rules.Suggestion(category)})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Файл", "Категория", "Размер", "Подсказка"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

// categoryOf — категория файла по имени и MIME-типу, выведенному из расширения.
func categoryOf(name string) model.Category {
	return policy.Classify(name, mime.TypeByExtension(filepath.Ext(name)))
}
