package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/converter/internal/converter"
	"github.com/bigkaa/goartstore/converter/internal/domain/policy"
	"github.com/bigkaa/goartstore/converter/internal/domain/throttle"
	"github.com/bigkaa/goartstore/converter/internal/metadata"
	"github.com/bigkaa/goartstore/converter/internal/service"
	"github.com/bigkaa/goartstore/converter/internal/storage/artifacts"
)

// maxLocalFileSize — лимит размера входного файла для локальной конвертации.
const maxLocalFileSize = 1 << 30

type convertOptions struct {
	target   string
	quality  int
	metadata bool
	output   string
	force    bool
}

func newConvertCommand(root *cliOptions) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Сконвертировать файл в другой формат",
		Long: `Конвертирует локальный файл в целевой формат и записывает результат на диск.

По умолчанию результат сохраняется рядом с исходным файлом под именем
<имя>.<формат>. Флаг --output задаёт путь к файлу или существующий каталог.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.target, "to", "t", "png", "Целевой формат")
	cmd.Flags().IntVarP(&opts.quality, "quality", "q", 90, "Качество для форматов с потерями (1-100)")
	cmd.Flags().BoolVar(&opts.metadata, "metadata", false, "Включить метаданные исходного файла")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Путь результата или каталог")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Перезаписать существующий файл")

	return cmd
}

func runConvert(cmd *cobra.Command, root *cliOptions, opts *convertOptions, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("чтение %s: %w", path, err)
	}

	logger := root.logger(cmd.ErrOrStderr())

	// Хранилище на один результат: CLI забирает его сразу после конвертации
	store, err := artifacts.New(time.Hour, 1, logger)
	if err != nil {
		return err
	}

	svc := service.NewConvertService(
		throttle.New(),
		policy.DefaultRules(),
		converter.DefaultRegistry(),
		metadata.New(logger),
		store,
		artifacts.HandleRandom,
		service.ConvertDefaults{Format: "png", Quality: 90, MaxFileSize: maxLocalFileSize},
		logger,
	)

	name := filepath.Base(path)
	res, cerr := svc.Convert(cmd.Context(), service.ConvertParams{
		FileName:        name,
		MediaType:       mime.TypeByExtension(filepath.Ext(name)),
		Data:            data,
		Target:          opts.target,
		Quality:         opts.quality,
		IncludeMetadata: opts.metadata,
	})
	if cerr != nil {
		if cerr.Suggestion != "" {
			return fmt.Errorf("%s\n%s", cerr.Message, cerr.Suggestion)
		}
		return fmt.Errorf("%s", cerr.Message)
	}

	dest := outputPath(path, opts.output, res.FileName)
	if !opts.force {
		if _, statErr := os.Stat(dest); statErr == nil {
			return fmt.Errorf("файл %s уже существует (используйте --force)", dest)
		}
	}
	if err := os.WriteFile(dest, res.Data, 0o644); err != nil {
		return fmt.Errorf("запись %s: %w", dest, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s, %s) -> %s (%s, %s)\n",
		name, res.SourceCategory, humanize.IBytes(uint64(res.OriginalSize)),
		dest, res.MediaType, humanize.IBytes(uint64(res.Size)),
	)
	fmt.Fprintf(out, "Размер относительно исходного: %s%%\n", res.CompressionRatio)

	if res.Metadata != nil {
		encoded, err := json.MarshalIndent(res.Metadata, "", "  ")
		if err != nil {
			return fmt.Errorf("сериализация метаданных: %w", err)
		}
		fmt.Fprintln(out, string(encoded))
	}
	return nil
}

// outputPath определяет путь результата: явный файл, файл в каталоге
// или файл рядом с исходным.
func outputPath(source, output, fileName string) string {
	if output == "" {
		return filepath.Join(filepath.Dir(source), fileName)
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, fileName)
	}
	return output
}
