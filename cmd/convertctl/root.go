package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/converter/internal/config"
)

// cliOptions — общие флаги всех подкоманд.
type cliOptions struct {
	verbose bool
}

// logger возвращает логгер в stderr команды: DEBUG при --verbose, иначе только ошибки.
func (o *cliOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelError
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "convertctl",
		Short:         "Конвертация файлов между форматами",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Подробный лог в stderr")

	rootCmd.AddCommand(newConvertCommand(opts))
	rootCmd.AddCommand(newFormatsCommand())
	rootCmd.AddCommand(newClassifyCommand())

	return rootCmd
}
