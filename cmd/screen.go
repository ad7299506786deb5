package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/document"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/report"
	"github.com/spigell/resume-screener/internal/screening"
)

const (
	PromptDownloadCSV = "Download results as CSV"
	PromptDetails     = "Show candidate details"
	PromptDumpJSON    = "Dump results to JSON file"
	PromptExit        = "Exit"
	PromptBack        = "back"

	tableCellLimit = 60
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptDownloadCSV, PromptDetails, PromptDumpJSON, PromptExit},
}

var screenCmd = &cobra.Command{
	Use:   "screen [flags] RESUME...",
	Short: "Screen resumes against a job description and rank them",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		screen(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().String("jd", "", "job description text")
	screenCmd.Flags().String("jd-file", "", "file with the job description (pdf, docx or txt)")
	screenCmd.Flags().StringP("output", "o", report.DefaultCSVName, "path of the CSV export")
	screenCmd.Flags().BoolP("auto-approve", "y", false, "write the CSV and exit without asking")
}

func screen(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume screening", zap.String("version", version))

	extractor := document.NewAutoExtractor()

	jd, err := jobDescription(ctx, cmd, extractor)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err))
	}

	docs, err := document.ReadFiles(args)
	if err != nil {
		logger.Fatal("reading resumes", zap.Error(err))
	}

	assessor, err := newAssessor(config.Oracle, logger)
	if err != nil {
		logger.Fatal("building the oracle client", zap.Error(err))
	}

	pipeline := screening.New(extractor, assessor, logger, screening.WithProgress(func(done, total int) {
		logger.Info("screening progress", zap.Int("done", done), zap.Int("total", total))
	}))

	set, err := pipeline.Run(ctx, jd, docs)
	if err != nil {
		var inputErr *screening.InputError
		if errors.As(err, &inputErr) {
			logger.Fatal("invalid input", zap.Error(err),
				zap.String("hint", "pass --jd or --jd-file and at least one resume file"),
			)
		}
		logger.Fatal("screening failed", zap.Error(err))
	}

	if err := report.WriteTable(os.Stdout, set.Results, tableCellLimit); err != nil {
		logger.Fatal("rendering results", zap.Error(err))
	}

	output, _ := cmd.Flags().GetString("output")

	if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); autoApprove {
		if err := downloadCSV(logger, output, set); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, output, set); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, output string, set *screening.RankedResultSet) error {
	switch action {
	case PromptDownloadCSV:
		return downloadCSV(logger, output, set)
	case PromptDetails:
		return showDetails(set)
	case PromptDumpJSON:
		filename, err := report.DumpToTmpFile(set)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func downloadCSV(logger *zap.Logger, output string, set *screening.RankedResultSet) error {
	if err := report.WriteCSVFile(output, set.Results); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	logger.Info("results written", zap.String("filename", output), zap.Int("count", set.Len()))
	return nil
}

func showDetails(set *screening.RankedResultSet) error {
	for {
		items := make([]string, 0, set.Len()+1)
		for i, r := range set.Results {
			items = append(items, fmt.Sprintf("%d. %s (%d, %s)", i+1, r.CandidateName, r.MatchScore, r.Recommendation))
		}

		candidatePrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, PromptBack),
		}

		idx, selected, err := candidatePrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		if err := report.WriteDetails(os.Stdout, set.Results[idx]); err != nil {
			return err
		}
	}
}

func jobDescription(ctx context.Context, cmd *cobra.Command, extractor document.Extractor) (string, error) {
	text, _ := cmd.Flags().GetString("jd")
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	path, _ := cmd.Flags().GetString("jd-file")
	if strings.TrimSpace(path) == "" {
		// Left to the pipeline to reject.
		return "", nil
	}

	doc, err := document.ReadFile(path)
	if err != nil {
		return "", err
	}
	return extractor.Extract(ctx, doc)
}
