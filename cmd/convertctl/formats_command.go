package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/converter/internal/converter"
	"github.com/bigkaa/goartstore/converter/internal/domain/policy"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "Показать категории, правила и поддерживаемые форматы",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			suffixes := make(map[string]string)
			for _, info := range policy.Categories() {
				suffixes[string(info.Category)] = strings.Join(info.Suffixes, ", ")
			}

			rows := make([][]string, 0)
			for _, info := range policy.DefaultRules().Describe() {
				allowed := strings.Join(info.Allowed, ", ")
				forbidden := strings.Join(info.Forbidden, ", ")
				if info.Unrestricted {
					allowed = "любой"
					forbidden = "-"
				}
				rows = append(rows, []string{string(info.Category), suffixes[string(info.Category)], allowed, forbidden})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Категория", "Расширения", "Разрешено", "Запрещено"},
				rows,
				nil,
			))

			groups := make([][]string, 0)
			for _, g := range converter.SupportedFormats() {
				groups = append(groups, []string{g.Name, strings.Join(g.Formats, ", ")})
			}
			fmt.Fprintln(out, renderTable([]string{"Группа", "Целевые форматы"}, groups, nil))
			return nil
		},
	}
}
