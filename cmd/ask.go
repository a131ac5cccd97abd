package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkumv1/AgenticAI-1/src/core/agentflow"
	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
	"github.com/pkumv1/AgenticAI-1/src/core/session"
	"github.com/pkumv1/AgenticAI-1/src/fsutil"
	"github.com/pkumv1/AgenticAI-1/src/log"
)

var (
	askFiles     []string
	askDirect    bool
	askShowSteps bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question over local files",
	Long: `The ask command ingests the given files into a throwaway in-memory session,
answers the question with the reasoning agent and prints the result.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	settingDefaultConfig()

	askCmd.Flags().StringArrayVarP(&askFiles, "file", "f", nil, "File to ingest (repeatable)")
	askCmd.Flags().BoolVar(&askDirect, "direct", false, "Skip the agent loop and answer from stuffed passages")
	askCmd.Flags().BoolVar(&askShowSteps, "show-steps", false, "Print the agent's reasoning steps")
	askCmd.MarkFlagRequired("file")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := args[0]

	llm, _, err := newLLMProvider()
	if err != nil {
		return err
	}
	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	splitter, err := newSplitter()
	if err != nil {
		return err
	}
	builder, _, err := newIndexBuilder(embedder)
	if err != nil {
		return err
	}
	extractor, err := newExtractor()
	if err != nil {
		return err
	}

	svc, err := session.NewService(llm, extractor, splitter, builder,
		session.WithTopK(viper.GetInt("retrieve.top_k")),
		session.WithIngestWorkers(viper.GetInt("ingest.workers")),
		session.WithAgentOptions(newAgentOptions(llm)...),
	)
	if err != nil {
		return err
	}

	// Read the files up front so a missing path fails before any model call
	fs := fsutil.NewLocalFileStore()
	artifacts := make([]artifact.Artifact, 0, len(askFiles))
	for _, path := range askFiles {
		data, err := fs.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		artifacts = append(artifacts, artifact.New(filepath.Base(path), data))
	}

	sess, err := svc.Create(ctx, "ask")
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Delete(ctx, sess.ID); err != nil {
			log.Error(err, "Failed to tear down session")
		}
	}()

	bar := progressbar.NewOptions(len(artifacts),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	for _, art := range artifacts {
		report, err := svc.Ingest(ctx, sess.ID, []artifact.Artifact{art})
		if err != nil {
			return err
		}
		for _, skipped := range report.Skipped {
			fmt.Fprintf(os.Stderr, "skipped %s: %s\n", skipped.Name, skipped.Reason)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	var answer *agentflow.Answer
	if askDirect {
		answer, err = svc.AnswerDirect(ctx, sess.ID, question)
	} else {
		answer, err = svc.Ask(ctx, sess.ID, question)
	}
	if err != nil {
		return err
	}

	if askShowSteps {
		for _, step := range answer.Steps {
			fmt.Printf("[%d] thought: %s\n", step.Iteration, step.Thought)
			if step.Tool != "" {
				fmt.Printf("    tool: %s(%s)\n", step.Tool, step.Input)
				fmt.Printf("    observation: %s\n", step.Observation)
			}
		}
		fmt.Println()
	}

	fmt.Println(answer.Text)
	if answer.State != agentflow.StateFinished {
		fmt.Printf("(state: %s)\n", answer.State)
	}

	return nil
}
