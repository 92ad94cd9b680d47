package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"smartcs-backend/internal/analyses"
	"smartcs-backend/internal/bootstrap"
	"smartcs-backend/internal/shared/config"
	"smartcs-backend/internal/shared/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "prompttest",
		Short:        "Preview and exercise crop and soil analysis prompts",
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(newPromptsCmd(), newRunCmd())
	return root
}

func newPromptsCmd() *cobra.Command {
	var requestPath string
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Render the crop, soil and integration prompts for a request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadRequest(requestPath)
			if err != nil {
				return err
			}
			return renderPrompts(cmd.OutOrStdout(), req)
		},
	}
	cmd.Flags().StringVarP(&requestPath, "request", "r", "", "Path to a combined analysis request JSON file (- for stdin)")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		requestPath string
		provider    string
		model       string
		parallel    bool
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one combined analysis against the configured model gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			telemetry.Configure(cfg.LogLevel)
			defer telemetry.Sync()
			cfg = overrideModel(cfg, provider, model)

			req, err := loadRequest(requestPath)
			if err != nil {
				return err
			}
			if err := analyses.Validate(req); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			gateway, configured, err := bootstrap.BuildGateway(ctx, cfg)
			if err != nil {
				return err
			}
			if !configured {
				return fmt.Errorf("no API key configured for provider %s", cfg.LLMProvider)
			}

			result, err := analyses.NewService(gateway, parallel).AnalyzeCombined(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), result.String())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&requestPath, "request", "r", "", "Path to a combined analysis request JSON file (- for stdin)")
	cmd.Flags().StringVar(&provider, "provider", "", "Override LLM_PROVIDER (openai or gemini)")
	cmd.Flags().StringVar(&model, "model", "", "Override LLM_MODEL")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Issue the crop and soil calls concurrently")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "Overall deadline for the analysis")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func loadRequest(path string) (analyses.AnalysisRequest, error) {
	var (
		raw []byte
		err error
	)
	if strings.TrimSpace(path) == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return analyses.AnalysisRequest{}, fmt.Errorf("read request: %w", err)
	}
	var req analyses.AnalysisRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return analyses.AnalysisRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func renderPrompts(w io.Writer, req analyses.AnalysisRequest) error {
	fmt.Fprintf(w, "=== crop (image attached: %t) ===\n%s\n\n", strings.TrimSpace(req.ImageBase64) != "", analyses.CropPrompt(req))
	fmt.Fprintf(w, "=== soil ===\n%s\n\n", analyses.SoilPrompt(req))

	// The integration prompt depends on model output; preview it with placeholders.
	integration, err := analyses.IntegrationPrompt(
		analyses.CropAnalysis{CropType: analyses.Text(req.CropType), Disease: "<from crop stage>"},
		analyses.SoilAnalysis{SoilHealth: "<from soil stage>"},
	)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "=== integration ===\n%s\n", integration)
	return nil
}

// overrideModel applies the --provider and --model flags. A provider switch
// without an explicit model falls back to that provider's default model.
func overrideModel(cfg config.Config, provider, model string) config.Config {
	if provider != "" {
		cfg.LLMProvider = config.NormalizeProvider(provider)
		cfg.LLMModel = config.DefaultModel(cfg.LLMProvider)
	}
	if model != "" {
		cfg.LLMModel = model
	}
	return cfg
}
